package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func serve(t *testing.T, status int, body string) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return New(srv.URL)
}

func TestLatest_TopLevelArray(t *testing.T) {
	t.Parallel()

	c := serve(t, http.StatusOK, `[{"id":"E1","magnitude":5.2},{"id":"E0","magnitude":4.1}]`)

	events, err := c.Latest(context.Background())
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("len(events) = %d, want 2", len(events))
	}
	if events[0].ID != "E1" || events[0].Magnitude != 5.2 {
		t.Errorf("events[0] = %+v, want id E1 mag 5.2", events[0])
	}
}

func TestLatest_WrappedList(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
	}{
		{"events key", `{"events":[{"id":"E1","magnitude":"5,2"}]}`},
		{"data key", `{"data":[{"id":"E1","magnitude":"5,2"}]}`},
		{"results key", `{"results":[{"id":"E1","magnitude":"5,2"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c := serve(t, http.StatusOK, tt.body)
			events, err := c.Latest(context.Background())
			if err != nil {
				t.Fatalf("Latest: %v", err)
			}
			if len(events) != 1 {
				t.Fatalf("len(events) = %d, want 1", len(events))
			}
			if events[0].ID != "E1" || events[0].Magnitude != 5.2 {
				t.Errorf("events[0] = %+v, want id E1 mag 5.2", events[0])
			}
		})
	}
}

func TestLatest_HeterogeneousMagnitudes(t *testing.T) {
	t.Parallel()

	c := serve(t, http.StatusOK,
		`[{"id":"A","magnitude":5.2},{"id":"B","magnitud":"6,3"},{"id":"C","mag":{"value":"4,4"}},{"id":"D","magnitude":"junk"}]`)

	events, err := c.Latest(context.Background())
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if len(events) != 4 {
		t.Fatalf("len(events) = %d, want 4", len(events))
	}
	want := []float64{5.2, 6.3, 4.4, 0}
	for i, w := range want {
		if events[i].Magnitude != w {
			t.Errorf("events[%d].Magnitude = %v, want %v", i, events[i].Magnitude, w)
		}
	}
	if events[3].Actionable() {
		t.Error("event with unparseable magnitude should not be actionable")
	}
}

func TestLatest_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"upstream 500", http.StatusInternalServerError, "boom"},
		{"upstream 404", http.StatusNotFound, ""},
		{"malformed json", http.StatusOK, `{bad`},
		{"object without list", http.StatusOK, `{"status":"ok"}`},
		{"wrapped non-array", http.StatusOK, `{"events":{"id":"E1"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c := serve(t, tt.status, tt.body)
			if _, err := c.Latest(context.Background()); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestLatest_EmptyList(t *testing.T) {
	t.Parallel()

	c := serve(t, http.StatusOK, `[]`)
	events, err := c.Latest(context.Background())
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("len(events) = %d, want 0", len(events))
	}
}
