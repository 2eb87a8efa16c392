package quake

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMagnitude(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		in     any
		want   float64
		wantOK bool
	}{
		{"plain float", 5.2, 5.2, true},
		{"plain int", 6, 6.0, true},
		{"zero", 0.0, 0.0, true},
		{"dot string", "5.2", 5.2, true},
		{"comma string", "5,2", 5.2, true},
		{"padded string", "  7,8 ", 7.8, true},
		{"integer string", "4", 4.0, true},
		{"nested value number", map[string]any{"value": 6.1}, 6.1, true},
		{"nested value comma string", map[string]any{"value": "6,1"}, 6.1, true},
		{"empty string", "", 0, false},
		{"garbage string", "strong", 0, false},
		{"double comma", "5,,2", 0, false},
		{"nested without value", map[string]any{"mag": 5.0}, 0, false},
		{"nested non-numeric value", map[string]any{"value": true}, 0, false},
		{"nil", nil, 0, false},
		{"bool", true, 0, false},
		{"nan", math.NaN(), 0, false},
		{"inf", math.Inf(1), 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, ok := ParseMagnitude(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.InDelta(t, tt.want, got, 1e-9)
			}
		})
	}
}

// Magnitudes arrive through generic JSON decoding, so the interesting inputs
// are whatever encoding/json hands back for each wire shape.
func TestParseMagnitude_FromJSON(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{`5.2`, `"5,2"`, `{"value":5.2}`, `{"value":"5,2"}`} {
		var v any
		require.NoError(t, json.Unmarshal([]byte(raw), &v))
		got, ok := ParseMagnitude(v)
		require.True(t, ok, "input %s", raw)
		assert.InDelta(t, 5.2, got, 1e-9, "input %s", raw)
	}
}

func TestEvent_Actionable(t *testing.T) {
	t.Parallel()

	assert.True(t, Event{ID: "E1", Magnitude: 5.2}.Actionable())
	assert.False(t, Event{ID: "", Magnitude: 5.2}.Actionable())
	assert.False(t, Event{ID: "E1", Magnitude: math.NaN()}.Actionable())
	assert.False(t, Event{ID: "E1", Magnitude: math.Inf(-1)}.Actionable())
}
