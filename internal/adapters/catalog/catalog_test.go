package catalog

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestLoadPool(t *testing.T) {
	path := filepath.Join(t.TempDir(), "models.json")
	if err := os.WriteFile(path, []byte(`["m1", "m2", " m1 ", "", "m3"]`), 0o644); err != nil {
		t.Fatalf("write pool file: %v", err)
	}

	pool, err := LoadPool(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if want := []string{"m1", "m2", "m3"}; !reflect.DeepEqual(pool, want) {
		t.Errorf("expected %v, got %v", want, pool)
	}
}

func TestLoadPool_MissingFile(t *testing.T) {
	if _, err := LoadPool(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadPool_BadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "models.json")
	if err := os.WriteFile(path, []byte(`{"not": "a list"}`), 0o644); err != nil {
		t.Fatalf("write pool file: %v", err)
	}
	if _, err := LoadPool(path); err == nil {
		t.Error("expected error for non-array JSON")
	}
}

func TestNormalize_Empty(t *testing.T) {
	if got := Normalize(nil); len(got) != 0 {
		t.Errorf("expected empty, got %v", got)
	}
}
