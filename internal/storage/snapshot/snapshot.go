// Package snapshot reads and writes the local icon snapshot: a JSON array of
// icon records kept next to the service. It holds the curated baseline and
// doubles as a development fallback for writes. The file is rewritten
// wholesale on every save; writes are neither appended nor atomic.
package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Adalene/glyph/pkg/types"
)

// ErrReadOnly is returned by Save when the snapshot was opened without write
// permission (any non-development deployment).
var ErrReadOnly = errors.New("snapshot: writes disabled outside development")

// File is a handle on a snapshot path.
type File struct {
	path     string
	writable bool
}

// New returns a snapshot handle for path. Saves are only performed when
// writable is true.
func New(path string, writable bool) *File {
	return &File{path: path, writable: writable}
}

// Path returns the file location.
func (f *File) Path() string {
	return f.path
}

// Writable reports whether Save will touch the file.
func (f *File) Writable() bool {
	return f.writable
}

// Load reads every record in file order. A missing file is an empty
// snapshot, not an error.
func (f *File) Load() ([]types.Icon, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []types.Icon{}, nil
		}
		return nil, fmt.Errorf("snapshot: failed to read %s: %w", f.path, err)
	}

	var icons []types.Icon
	if err := json.Unmarshal(data, &icons); err != nil {
		return nil, fmt.Errorf("snapshot: malformed %s: %w", f.path, err)
	}
	if icons == nil {
		icons = []types.Icon{}
	}
	return icons, nil
}

// Save replaces the file contents with icons, indented two spaces.
func (f *File) Save(icons []types.Icon) error {
	if !f.writable {
		return ErrReadOnly
	}
	if icons == nil {
		icons = []types.Icon{}
	}

	data, err := json.MarshalIndent(icons, "", "  ")
	if err != nil {
		return fmt.Errorf("snapshot: failed to encode icons: %w", err)
	}

	if dir := filepath.Dir(f.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("snapshot: failed to create %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(f.path, data, 0o644); err != nil {
		return fmt.Errorf("snapshot: failed to write %s: %w", f.path, err)
	}
	return nil
}
