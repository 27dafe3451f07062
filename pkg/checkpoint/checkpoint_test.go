package checkpoint

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	errs "github.com/emanongen/wiki-project/pkg/errors"
)

func TestFileStoreFreshLoad(t *testing.T) {
	store, err := NewFileStore(t.TempDir(), "notables")
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}

	cur, ok := store.Load()
	if ok {
		t.Errorf("Expected no pointer on a fresh store, got %q", cur.String())
	}
	if cur != nil {
		t.Errorf("Expected nil cursor, got %v", cur)
	}
}

func TestFileStoreSaveLoadRoundtrip(t *testing.T) {
	store, err := NewFileStore(t.TempDir(), "notables")
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}

	saved := Cursor{"1823-01-15T00:00:00Z", "http://www.wikidata.org/entity/Q1234"}
	if err := store.Save(saved); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, ok := store.Load()
	if !ok {
		t.Fatal("Expected a pointer after Save")
	}
	if loaded.String() != saved.String() {
		t.Errorf("Expected %q, got %q", saved.String(), loaded.String())
	}
}

func TestFileStoreLastWriteWins(t *testing.T) {
	store, err := NewFileStore(t.TempDir(), "notables")
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}

	cursors := []Cursor{
		{"1800-01-01T00:00:00Z", "Q1"},
		{"1810-06-30T00:00:00Z", "Q2"},
		{"1823-01-15T00:00:00Z", "Q3"},
	}
	for _, cur := range cursors {
		if err := store.Save(cur); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
	}

	loaded, ok := store.Load()
	if !ok {
		t.Fatal("Expected a pointer after saves")
	}
	want := cursors[len(cursors)-1].String()
	if loaded.String() != want {
		t.Errorf("Expected last saved value %q, got %q", want, loaded.String())
	}
}

func TestFileStoreRejectsEmptyCursor(t *testing.T) {
	store, err := NewFileStore(t.TempDir(), "notables")
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}

	if err := store.Save(Cursor{}); err == nil {
		t.Error("Expected an error saving an empty cursor")
	}
}

func TestFileStoreRejectsDelimiterInField(t *testing.T) {
	store, err := NewFileStore(t.TempDir(), "notables")
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}

	err = store.Save(Cursor{"1800-01-01T00:00:00Z", "Q1|Q2"})
	if err == nil {
		t.Fatal("Expected an error saving a field containing the delimiter")
	}

	var typed *errs.Error
	if !errors.As(err, &typed) || typed.Type != errs.ErrorTypeMalformedCursor {
		t.Errorf("Expected a malformed_cursor error, got %v", err)
	}

	// The rejected save must not clobber an absent pointer
	if _, ok := store.Load(); ok {
		t.Error("Expected no pointer after a rejected save")
	}
}

func TestFileStoreClear(t *testing.T) {
	store, err := NewFileStore(t.TempDir(), "notables")
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}

	if err := store.Save(Cursor{"1800-01-01T00:00:00Z", "Q1"}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := store.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if _, ok := store.Load(); ok {
		t.Error("Expected no pointer after Clear")
	}
}

func TestFileStoreLoadUnreadableFile(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir, "notables")
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}

	// Simulate a truncated pointer file
	if err := os.WriteFile(filepath.Join(dir, "notables.pointer.txt"), []byte(""), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	if cur, ok := store.Load(); ok {
		t.Errorf("Expected no pointer from an empty file, got %q", cur.String())
	}
}

func TestCursorString(t *testing.T) {
	tests := []struct {
		cursor   Cursor
		expected string
	}{
		{Cursor{"a", "b"}, "a|b"},
		{Cursor{"only"}, "only"},
		{Cursor{}, ""},
		{nil, ""},
	}

	for _, test := range tests {
		if got := test.cursor.String(); got != test.expected {
			t.Errorf("Cursor %v: expected %q, got %q", test.cursor, test.expected, got)
		}
	}
}

func TestParseRoundtrip(t *testing.T) {
	original := Cursor{"1823-01-15T00:00:00Z", "http://www.wikidata.org/entity/Q1234"}
	parsed := Parse(original.String())
	if parsed.String() != original.String() {
		t.Errorf("Expected %q after roundtrip, got %q", original.String(), parsed.String())
	}
}
