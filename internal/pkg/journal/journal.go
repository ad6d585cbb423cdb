// Package journal records squash operations so an interrupted squash can be
// undone by hand.
package journal

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/gitcai/gitcai/internal/pkg/errors"
)

const (
	// FileName is the journal file kept under the global config directory.
	FileName = "squash-journal.json"

	// DefaultMaxEntries caps the journal size. The oldest entries are
	// dropped once the cap is exceeded.
	DefaultMaxEntries = 100
)

// Entry records the repository state immediately before a squash reset.
// Head is the commit the branch pointed at; a squash that fails after the
// reset is undone with `git reset --soft <head>`. Summary holds the
// headline of the squash commit message.
type Entry struct {
	ID      string    `json:"id"`
	Time    time.Time `json:"time"`
	Branch  string    `json:"branch"`
	Base    string    `json:"base"`
	Head    string    `json:"head"`
	Summary string    `json:"summary"`
}

// Journal is an append-only JSON file of squash records.
type Journal struct {
	path       string
	maxEntries int
	mu         sync.Mutex
}

// New returns a journal backed by the file at path. maxEntries <= 0 selects
// DefaultMaxEntries.
func New(path string, maxEntries int) *Journal {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &Journal{path: path, maxEntries: maxEntries}
}

// Append adds an entry, filling in the ID and timestamp when unset, and
// rotates the oldest entries out once the cap is exceeded.
func (j *Journal) Append(entry *Entry) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.Time.IsZero() {
		entry.Time = time.Now()
	}

	entries, err := j.load()
	if err != nil && !os.IsNotExist(err) {
		return err
	}

	entries = append(entries, entry)
	if len(entries) > j.maxEntries {
		entries = entries[len(entries)-j.maxEntries:]
	}
	return j.save(entries)
}

// Entries returns every record in the journal, oldest first. A missing file
// is an empty journal.
func (j *Journal) Entries() ([]*Entry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	entries, err := j.load()
	if err != nil {
		if os.IsNotExist(err) {
			return []*Entry{}, nil
		}
		return nil, err
	}
	return entries, nil
}

func (j *Journal) load() ([]*Entry, error) {
	data, err := os.ReadFile(j.path)
	if err != nil {
		// Returned unwrapped so callers can test os.IsNotExist.
		return nil, err
	}
	var entries []*Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrFileSystemError, "failed to parse squash journal")
	}
	return entries, nil
}

func (j *Journal) save(entries []*Entry) error {
	if err := os.MkdirAll(filepath.Dir(j.path), 0755); err != nil {
		return apperrors.Wrap(err, apperrors.ErrFileSystemError, "failed to create journal directory")
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrFileSystemError, "failed to marshal squash journal")
	}
	// User read/write only.
	if err := os.WriteFile(j.path, data, 0600); err != nil {
		return apperrors.Wrap(err, apperrors.ErrFileSystemError, "failed to write squash journal")
	}
	return nil
}
