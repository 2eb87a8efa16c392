package quake

import (
	"math"
	"strconv"
	"strings"
)

// ParseMagnitude normalizes the magnitude representations seen across feed
// revisions into a float64. Accepted shapes, tried in order:
//
//   - JSON number (float64 after generic decoding)
//   - string with either decimal separator ("5.2" or "5,2")
//   - object with a "value" member holding either of the above
//
// Returns ok=false for anything else, including NaN and infinities.
func ParseMagnitude(v any) (float64, bool) {
	switch m := v.(type) {
	case float64:
		return m, isFinite(m)
	case int:
		return float64(m), true
	case string:
		return parseMagnitudeString(m)
	case map[string]any:
		inner, ok := m["value"]
		if !ok {
			return 0, false
		}
		// one level only, a {"value":{"value":...}} feed would be garbage
		switch iv := inner.(type) {
		case float64:
			return iv, isFinite(iv)
		case string:
			return parseMagnitudeString(iv)
		}
		return 0, false
	}
	return 0, false
}

func parseMagnitudeString(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	s = strings.ReplaceAll(s, ",", ".")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || !isFinite(f) {
		return 0, false
	}
	return f, true
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
