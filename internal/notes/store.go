package notes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"
)

const (
	// KeyLayout is the canonical YYYY-MM-DD form of a note key.
	KeyLayout = "2006-01-02"

	filePermissions = 0644
	tmpSuffix       = ".tmp"
)

// Store is a file-based, date-keyed note store. The whole file is read on
// Load and replaced on Save; there is a single writer per run.
type Store struct {
	Path string
}

// NewStore creates a new Store backed by the file at path.
func NewStore(path string) *Store {
	return &Store{Path: path}
}

// Load reads every note from the file at store.Path.
// A missing file is an empty store, not an error. A corrupt file is an error.
func (store *Store) Load() (map[string]string, error) {
	data, err := os.ReadFile(store.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("failed to read notes file: %w", err)
	}

	notes := map[string]string{}
	if err := json.Unmarshal(data, &notes); err != nil {
		return nil, fmt.Errorf("failed to parse notes file %s: %w", store.Path, err)
	}
	if notes == nil {
		// A file containing "null" decodes to a nil map.
		notes = map[string]string{}
	}

	return notes, nil
}

// Save replaces the file at store.Path with notes, indented for readability.
// The data is written to a temp file first and renamed into place.
func (store *Store) Save(notes map[string]string) error {
	if notes == nil {
		notes = map[string]string{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(notes); err != nil {
		return fmt.Errorf("failed to marshal notes: %w", err)
	}

	if dir := filepath.Dir(store.Path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create notes directory: %w", err)
		}
	}

	tmpFile := store.Path + tmpSuffix
	if err := os.WriteFile(tmpFile, buf.Bytes(), filePermissions); err != nil {
		return fmt.Errorf("failed to write notes file: %w", err)
	}

	if err := os.Rename(tmpFile, store.Path); err != nil {
		if removeErr := os.Remove(tmpFile); removeErr != nil {
			log.Printf("Warning: failed to remove %s: %v", tmpFile, removeErr)
		}
		return fmt.Errorf("failed to replace notes file: %w", err)
	}

	return nil
}

// Get returns the note for key, or "" if there is none.
func Get(notes map[string]string, key string) string {
	return notes[key]
}

// Set binds key to text, replacing any earlier note, and returns the map.
// A nil map is allocated.
func Set(notes map[string]string, key, text string) map[string]string {
	if notes == nil {
		notes = map[string]string{}
	}
	notes[key] = text
	return notes
}

// DateKey formats t as a note key.
func DateKey(t time.Time) string {
	return t.Format(KeyLayout)
}
