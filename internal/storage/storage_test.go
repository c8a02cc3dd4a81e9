package storage_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Tiliavir/trivial-timecard/internal/storage"
)

func TestOpenNotExist(t *testing.T) {
	base := t.TempDir()
	s, err := storage.Open(base)
	if err != nil {
		t.Fatalf("Open on empty dir: %v", err)
	}
	_, ok, err := s.Get(storage.KeyStartDate)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok {
		t.Error("Get on empty store reported a value")
	}
	if _, err := os.Stat(s.Path()); !os.IsNotExist(err) {
		t.Errorf("Open created %s before the first write", s.Path())
	}
}

func TestSetAndReopen(t *testing.T) {
	base := t.TempDir()
	s, err := storage.Open(base)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Set(storage.KeyStartDate, "2026-10-12"); err != nil {
		t.Fatalf("Set: %v", err)
	}

	reopened, err := storage.Open(base)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	got, ok, err := reopened.Get(storage.KeyStartDate)
	if err != nil || !ok {
		t.Fatalf("Get after reopen = %q, %v, %v", got, ok, err)
	}
	if got != "2026-10-12" {
		t.Errorf("Get = %q, want %q", got, "2026-10-12")
	}
}

func TestDelete(t *testing.T) {
	base := t.TempDir()
	s, err := storage.Open(base)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Delete("missing"); err != nil {
		t.Errorf("Delete of missing key: %v", err)
	}
	if err := s.Set("a", "1"); err != nil {
		t.Fatal(err)
	}
	if err := s.Set("b", "2"); err != nil {
		t.Fatal(err)
	}
	if err := s.Delete("a"); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	reopened, err := storage.Open(base)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := reopened.Get("a"); ok {
		t.Error("deleted key still present after reopen")
	}
	if v, ok, _ := reopened.Get("b"); !ok || v != "2" {
		t.Errorf("Get(b) = %q, %v; want 2, true", v, ok)
	}
}

func TestOpenCorruptFile(t *testing.T) {
	// Verify that a corrupt JSON file is backed up and returns an error.
	base := t.TempDir()
	path := filepath.Join(base, "state.json")
	if err := os.WriteFile(path, []byte("{bad json"), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := storage.Open(base); err == nil {
		t.Fatal("expected error for corrupt JSON, got nil")
	}

	// Backup file should exist.
	if _, err2 := os.Stat(path + ".corrupt"); os.IsNotExist(err2) {
		t.Error("expected backup file to exist after corrupt JSON")
	}
}

func TestMemoryStore(t *testing.T) {
	m := storage.NewMemory()
	if err := m.Set("k", "v"); err != nil {
		t.Fatal(err)
	}
	if v, ok, _ := m.Get("k"); !ok || v != "v" {
		t.Errorf("Get = %q, %v", v, ok)
	}
	if err := m.Delete("k"); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := m.Get("k"); ok {
		t.Error("key still present after Delete")
	}
}
