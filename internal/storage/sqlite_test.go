package storage

import (
	"errors"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen_SchemaAtLatest(t *testing.T) {
	s := openTestStore(t)

	v, err := s.SchemaVersion()
	if err != nil {
		t.Fatalf("SchemaVersion: %v", err)
	}
	if v != len(schema) {
		t.Errorf("version = %d, want %d", v, len(schema))
	}
}

// TestOpen_ReopenKeepsData opens the same file twice; the second open must
// not re-run the schema or lose rows.
func TestOpen_ReopenKeepsData(t *testing.T) {
	dir := t.TempDir()

	s1, err := Open(dir)
	if err != nil {
		t.Fatalf("first Open: %v", err)
	}
	if err := s1.SetPreference("recapture_language", "yo"); err != nil {
		t.Fatalf("SetPreference: %v", err)
	}
	s1.Close()

	s2, err := Open(dir)
	if err != nil {
		t.Fatalf("second Open: %v", err)
	}
	defer s2.Close()

	if v, _ := s2.SchemaVersion(); v != len(schema) {
		t.Errorf("version after reopen = %d, want %d", v, len(schema))
	}
	val, err := s2.GetPreference("recapture_language")
	if err != nil {
		t.Fatalf("GetPreference: %v", err)
	}
	if val != "yo" {
		t.Errorf("value = %q, want yo", val)
	}
}

func TestOpen_RejectsNewerSchema(t *testing.T) {
	dir := t.TempDir()

	s, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := s.db.Exec("PRAGMA user_version = 99"); err != nil {
		t.Fatalf("bumping version: %v", err)
	}
	s.Close()

	if _, err := Open(dir); !errors.Is(err, ErrSchemaTooNew) {
		t.Errorf("err = %v, want ErrSchemaTooNew", err)
	}
}

func TestPreferenceRoundTrip(t *testing.T) {
	s := openTestStore(t)

	if err := s.SetPreference("recapture_language", "sw"); err != nil {
		t.Fatalf("SetPreference: %v", err)
	}

	val, err := s.GetPreference("recapture_language")
	if err != nil {
		t.Fatalf("GetPreference: %v", err)
	}
	if val != "sw" {
		t.Errorf("value = %q, want %q", val, "sw")
	}

	// Overwrite and verify upsert works.
	if err := s.SetPreference("recapture_language", "zu"); err != nil {
		t.Fatalf("SetPreference (overwrite): %v", err)
	}
	val, err = s.GetPreference("recapture_language")
	if err != nil {
		t.Fatalf("GetPreference (overwrite): %v", err)
	}
	if val != "zu" {
		t.Errorf("value = %q, want %q", val, "zu")
	}
}

func TestGetPreferenceNotFound(t *testing.T) {
	s := openTestStore(t)

	_, err := s.GetPreference("missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestDeletePreference(t *testing.T) {
	s := openTestStore(t)

	if err := s.SetPreference("recapture_language", "am"); err != nil {
		t.Fatalf("SetPreference: %v", err)
	}
	if err := s.DeletePreference("recapture_language"); err != nil {
		t.Fatalf("DeletePreference: %v", err)
	}
	if _, err := s.GetPreference("recapture_language"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	if err := s.DeletePreference("recapture_language"); err != nil {
		t.Errorf("deleting a missing key: %v", err)
	}
}
