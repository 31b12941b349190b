package ledger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileIsEmpty(t *testing.T) {
	l, err := Load(filepath.Join(t.TempDir(), DefaultFile))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if l.Len() != 0 {
		t.Errorf("expected empty ledger, got %d entries", l.Len())
	}
	if l.Has("anyone") {
		t.Error("empty ledger should not report any identity")
	}
}

func TestGrantRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFile)
	l, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if err := l.Grant("Jane D."); err != nil {
		t.Fatalf("Grant failed: %v", err)
	}
	if !l.Has("Jane D.") {
		t.Error("identity should be discounted after Grant")
	}

	reloaded, err := Load(path)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if !reloaded.Has("Jane D.") {
		t.Error("reloaded ledger should report identity as discounted")
	}
	if reloaded.Has("Someone Else") {
		t.Error("unrelated identity should not be discounted")
	}
}

func TestGrantTwiceWritesOnce(t *testing.T) {
	l, err := Load(filepath.Join(t.TempDir(), DefaultFile))
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 3; i++ {
		if err := l.Grant("Unknown"); err != nil {
			t.Fatal(err)
		}
	}
	if l.Saves() != 1 {
		t.Errorf("expected 1 write, got %d", l.Saves())
	}
	if l.Len() != 1 {
		t.Errorf("expected 1 entry, got %d", l.Len())
	}
}

func TestFileFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFile)
	l, _ := Load(path)
	l.Grant("A")
	l.Grant("B")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var raw map[string]bool
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("ledger is not a JSON object: %v", err)
	}
	if len(raw) != 2 || !raw["A"] || !raw["B"] {
		t.Errorf("unexpected ledger contents %v", raw)
	}
}

func TestSaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	l, _ := Load(filepath.Join(dir, DefaultFile))
	l.Grant("A")

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != DefaultFile {
		t.Errorf("expected only %s in dir, found %v", DefaultFile, entries)
	}
}

func TestLoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFile)
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for corrupt ledger")
	}
}

func TestLoadEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFile)
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	l, err := Load(path)
	if err != nil {
		t.Fatalf("empty file should load: %v", err)
	}
	if l.Len() != 0 {
		t.Errorf("expected empty ledger")
	}
}

func TestLoadNullFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFile)
	if err := os.WriteFile(path, []byte("null\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	l, err := Load(path)
	if err != nil {
		t.Fatalf("null ledger should load: %v", err)
	}
	if l.Len() != 0 {
		t.Errorf("expected empty ledger, got %d entries", l.Len())
	}
	if err := l.Grant("Pat"); err != nil {
		t.Fatalf("Grant failed: %v", err)
	}
	if !l.Has("Pat") {
		t.Error("expected Pat to be discounted after Grant")
	}

	reloaded, err := Load(path)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if !reloaded.Has("Pat") {
		t.Error("grant was not persisted")
	}
}
