package journal

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func testEntry(summary string) *Entry {
	return &Entry{
		Branch:  "feature/login",
		Base:    "a1b2c3d4e5f60718293a4b5c6d7e8f9012345678",
		Head:    "fedcba9876543210fedcba9876543210fedcba98",
		Summary: summary,
	}
}

func TestJournal_Append(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	j := New(path, 0)

	entry := testEntry("Consolidate login work")
	if err := j.Append(entry); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	if entry.ID == "" {
		t.Error("expected an ID to be generated")
	}
	if entry.Time.IsZero() {
		t.Error("expected the timestamp to be set")
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("journal file was not created")
	}
}

func TestJournal_AppendPreservesProvidedIdentity(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	j := New(path, 0)

	first := testEntry("Consolidate login work")
	first.ID = "test-id-1"
	first.Time = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	if err := j.Append(first); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if err := j.Append(testEntry("Flatten profile page changes")); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	entries, err := j.Entries()
	if err != nil {
		t.Fatalf("Entries failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	got := entries[0]
	if got.ID != "test-id-1" {
		t.Errorf("ID = %q, want %q", got.ID, "test-id-1")
	}
	if !got.Time.Equal(first.Time) {
		t.Errorf("Time = %v, want %v", got.Time, first.Time)
	}
	if got.Branch != "feature/login" {
		t.Errorf("Branch = %q, want %q", got.Branch, "feature/login")
	}
	if got.Head != "fedcba9876543210fedcba9876543210fedcba98" {
		t.Errorf("Head = %q", got.Head)
	}
	if got.Summary != "Consolidate login work" {
		t.Errorf("Summary = %q", got.Summary)
	}
}

func TestJournal_Entries_MissingFile(t *testing.T) {
	j := New(filepath.Join(t.TempDir(), "nonexistent", FileName), 0)

	entries, err := j.Entries()
	if err != nil {
		t.Fatalf("Entries failed: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected 0 entries, got %d", len(entries))
	}
}

func TestJournal_Rotation(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	j := New(path, 5)

	for i := 0; i < 10; i++ {
		if err := j.Append(testEntry(fmt.Sprintf("squash %d", i))); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	entries, err := j.Entries()
	if err != nil {
		t.Fatalf("Entries failed: %v", err)
	}
	if len(entries) != 5 {
		t.Fatalf("expected 5 entries after rotation, got %d", len(entries))
	}
	for i, entry := range entries {
		want := fmt.Sprintf("squash %d", 5+i)
		if entry.Summary != want {
			t.Errorf("entry %d: Summary = %q, want %q", i, entry.Summary, want)
		}
	}
}

func TestJournal_CorruptFileReported(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	if err := os.WriteFile(path, []byte("not json"), 0600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	j := New(path, 0)
	if err := j.Append(testEntry("Consolidate login work")); err == nil {
		t.Error("expected Append on a corrupt journal to fail")
	}
	if _, err := j.Entries(); err == nil {
		t.Error("expected Entries on a corrupt journal to fail")
	}
}

func TestJournal_FilePermissions(t *testing.T) {
	if os.PathSeparator == '\\' {
		t.Skip("file permissions work differently on Windows")
	}

	path := filepath.Join(t.TempDir(), FileName)
	j := New(path, 0)
	if err := j.Append(testEntry("Consolidate login work")); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("expected file permissions 0600, got %o", perm)
	}
}

func TestNew_DefaultCap(t *testing.T) {
	if j := New("/tmp/journal.json", 0); j.maxEntries != DefaultMaxEntries {
		t.Errorf("maxEntries = %d, want %d", j.maxEntries, DefaultMaxEntries)
	}
	if j := New("/tmp/journal.json", -1); j.maxEntries != DefaultMaxEntries {
		t.Errorf("maxEntries = %d, want %d", j.maxEntries, DefaultMaxEntries)
	}
}
