// Package checkpoint persists ScanState for pause/resume survivability.
// The atomic temp-file-then-rename pattern is adapted from the teacher's
// internal/engine/checkpoint.go CheckpointManager.
package checkpoint

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/archenemy/domainhawk/internal/types"
)

// data is the on-disk representation of a ScanState snapshot.
type data struct {
	Term         string                    `json:"term"`
	StartedAt    time.Time                 `json:"started_at"`
	SavedAt      time.Time                 `json:"saved_at"`
	Interrupted  bool                      `json:"interrupted"`
	CurrentSlice string                    `json:"current_slice"`
	Counts       map[types.RecordKind]int  `json:"counts"`
	SeenURLs     []string                  `json:"seen_urls"`
}

// FileCheckpointer saves and loads ScanState to a single JSON file using an
// atomic temp-then-rename write, so a crash mid-write never corrupts the
// last good checkpoint.
type FileCheckpointer struct {
	Path string
}

// NewFile builds a FileCheckpointer writing to path.
func NewFile(path string) *FileCheckpointer {
	return &FileCheckpointer{Path: path}
}

// Save writes the current state of the given term's scan to disk.
func (f *FileCheckpointer) Save(term string, state *types.ScanState, seenURLs []string) error {
	d := data{
		Term:         term,
		StartedAt:    state.StartedAt,
		SavedAt:      time.Now(),
		Interrupted:  state.IsInterrupted(),
		CurrentSlice: state.CurrentSlice,
		Counts:       state.Snapshot(),
		SeenURLs:     seenURLs,
	}

	payload, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal checkpoint: %w", err)
	}

	dir := filepath.Dir(f.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("ensure checkpoint dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".checkpoint-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp checkpoint: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write temp checkpoint: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp checkpoint: %w", err)
	}

	if err := os.Rename(tmpPath, f.Path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename checkpoint into place: %w", err)
	}
	return nil
}

// Load reads the last saved checkpoint, if any. A missing file is not an
// error: it simply means there is nothing to resume.
func (f *FileCheckpointer) Load() (term string, seenURLs []string, counts map[types.RecordKind]int, found bool, err error) {
	raw, readErr := os.ReadFile(f.Path)
	if os.IsNotExist(readErr) {
		return "", nil, nil, false, nil
	}
	if readErr != nil {
		return "", nil, nil, false, fmt.Errorf("read checkpoint: %w", readErr)
	}

	var d data
	if err := json.Unmarshal(raw, &d); err != nil {
		return "", nil, nil, false, fmt.Errorf("unmarshal checkpoint: %w", err)
	}
	return d.Term, d.SeenURLs, d.Counts, true, nil
}
