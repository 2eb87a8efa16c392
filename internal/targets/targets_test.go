package targets

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/linnemanlabs/temblor/internal/quake"
)

func TestDecodeTargets_Defaults(t *testing.T) {
	t.Parallel()

	list, err := decodeTargets([]byte(`[
		{"phone":"+560001","min_mag":4,"localidad":"Santiago","enabled":true},
		{"phone":"+560002","min_mag":"5,5","enabled":true},
		{"phone":"+560003"},
		{"phone":"+560004","min_mag":"junk","enabled":true}
	]`))
	if err != nil {
		t.Fatalf("decodeTargets: %v", err)
	}
	if len(list) != 4 {
		t.Fatalf("len = %d, want 4", len(list))
	}

	if list[0].MinMagnitude != 4 || list[0].Locality != "Santiago" || !list[0].Enabled {
		t.Errorf("list[0] = %+v", list[0])
	}
	if list[1].MinMagnitude != 5.5 {
		t.Errorf("list[1].MinMagnitude = %v, want 5.5 (comma decimal)", list[1].MinMagnitude)
	}
	// absent fields default to zero values
	if list[2].MinMagnitude != 0 || list[2].Enabled || list[2].Locality != "" {
		t.Errorf("list[2] = %+v, want defaults", list[2])
	}
	// malformed min_mag defaults to 0, record is kept
	if list[3].MinMagnitude != 0 || !list[3].Enabled {
		t.Errorf("list[3] = %+v", list[3])
	}
}

func TestDecodeTargets_NonArray(t *testing.T) {
	t.Parallel()

	if _, err := decodeTargets([]byte(`{"phone":"+560001"}`)); err == nil {
		t.Fatal("expected error for non-array payload")
	}
}

func TestTarget_Matches(t *testing.T) {
	t.Parallel()

	localities := []quake.Locality{{Name: "Santiago", Intensity: "4"}, {Name: "Rancagua", Intensity: "3"}}

	tests := []struct {
		name   string
		target Target
		mag    float64
		want   bool
	}{
		{"wildcard clears floor", Target{Enabled: true, MinMagnitude: 4}, 5.2, true},
		{"wildcard below floor", Target{Enabled: true, MinMagnitude: 6}, 5.2, false},
		{"disabled never matches", Target{Enabled: false}, 9.0, false},
		{"locality exact", Target{Enabled: true, Locality: "Santiago"}, 5.2, true},
		{"locality case-insensitive", Target{Enabled: true, Locality: "sAnTiAgO"}, 5.2, true},
		{"locality not predicted", Target{Enabled: true, Locality: "Arica"}, 5.2, false},
		{"floor boundary is inclusive", Target{Enabled: true, MinMagnitude: 5.2}, 5.2, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := tt.target.Matches(tt.mag, localities); got != tt.want {
				t.Errorf("Matches = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTarget_Matches_WildcardIgnoresLocalities(t *testing.T) {
	t.Parallel()

	tg := Target{Enabled: true, MinMagnitude: 4}
	if !tg.Matches(5.0, nil) {
		t.Error("wildcard target should match with no predicted localities")
	}
}

func TestHTTPRegistry_List(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[{"phone":"+560001","min_mag":4,"enabled":true}]`))
	}))
	t.Cleanup(srv.Close)

	list, err := NewHTTPRegistry(srv.URL).List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 1 || list[0].Phone != "+560001" {
		t.Errorf("list = %+v", list)
	}
}

func TestHTTPRegistry_ListErrors(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	if _, err := NewHTTPRegistry(srv.URL).List(context.Background()); err == nil {
		t.Fatal("expected error on non-200")
	}
}

func TestFileRegistry_LoadAndReload(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "targets.json")
	write := func(body string) {
		t.Helper()
		if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
			t.Fatalf("write file: %v", err)
		}
	}
	write(`[{"phone":"+560001","enabled":true}]`)

	r, err := NewFileRegistry(path, nil)
	if err != nil {
		t.Fatalf("NewFileRegistry: %v", err)
	}

	list, err := r.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("len = %d, want 1", len(list))
	}

	stop, err := r.Watch(context.Background())
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	defer stop()

	write(`[{"phone":"+560001","enabled":true},{"phone":"+560002","enabled":true}]`)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		list, _ = r.List(context.Background())
		if len(list) == 2 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("reload did not land, have %d targets", len(list))
}

func TestFileRegistry_BadReloadKeepsPrevious(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "targets.json")
	if err := os.WriteFile(path, []byte(`[{"phone":"+560001","enabled":true}]`), 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}

	r, err := NewFileRegistry(path, nil)
	if err != nil {
		t.Fatalf("NewFileRegistry: %v", err)
	}
	stop, err := r.Watch(context.Background())
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	defer stop()

	if err := os.WriteFile(path, []byte(`{bad`), 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}

	// give the watcher a moment, then confirm the old list survived
	time.Sleep(200 * time.Millisecond)
	list, err := r.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 1 || list[0].Phone != "+560001" {
		t.Errorf("list = %+v, want previous list retained", list)
	}
}

func TestNewFileRegistry_MissingFile(t *testing.T) {
	t.Parallel()

	if _, err := NewFileRegistry(filepath.Join(t.TempDir(), "absent.json"), nil); err == nil {
		t.Fatal("expected error for missing file")
	}
}
