package payload

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/skillsenselab/scribeflow/errors"
)

// Store persists pipeline payloads (chunks, extractions, notes) as JSON
// files under a base directory. Jobs carry only the payload reference; the
// bytes live here. References are relative paths, deterministic per
// meeting, so a stage can look up its predecessor's output without any
// extra bookkeeping.
type Store struct {
	basePath string
}

// Open creates a payload store rooted at baseDir.
func Open(baseDir string) (*Store, error) {
	abs, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("payload: resolve base path: %w", err)
	}
	if err := os.MkdirAll(abs, 0o750); err != nil {
		return nil, fmt.Errorf("payload: create base directory: %w", err)
	}
	return &Store{basePath: abs}, nil
}

// Save marshals v and writes it at ref, creating parent directories as
// needed. An existing payload at the same ref is replaced.
func (s *Store) Save(_ context.Context, ref string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Internal(fmt.Errorf("payload: marshal %s: %w", ref, err))
	}
	full := s.path(ref)
	if err := os.MkdirAll(filepath.Dir(full), 0o750); err != nil {
		return errors.StoreError(fmt.Errorf("payload: create directory: %w", err))
	}
	if err := os.WriteFile(full, data, 0o640); err != nil {
		return errors.StoreError(fmt.Errorf("payload: write %s: %w", ref, err))
	}
	return nil
}

// Load reads the payload at ref into v.
func (s *Store) Load(_ context.Context, ref string, v any) error {
	data, err := os.ReadFile(s.path(ref))
	if err != nil {
		if os.IsNotExist(err) {
			return errors.NotFound("payload", ref)
		}
		return errors.StoreError(fmt.Errorf("payload: read %s: %w", ref, err))
	}
	if err := json.Unmarshal(data, v); err != nil {
		return errors.StoreError(fmt.Errorf("payload: decode %s: %w", ref, err))
	}
	return nil
}

// Exists reports whether a payload is present at ref.
func (s *Store) Exists(_ context.Context, ref string) bool {
	_, err := os.Stat(s.path(ref))
	return err == nil
}

func (s *Store) path(ref string) string {
	return filepath.Join(s.basePath, filepath.Clean(ref))
}

// ChunkRef is the reference for a segmented chunk of a meeting.
func ChunkRef(meetingID string, index int) string {
	return filepath.Join(meetingID, fmt.Sprintf("chunk_%04d.json", index))
}

// ExtractionRef is the reference for a chunk's map-stage extraction.
func ExtractionRef(meetingID string, index int) string {
	return filepath.Join(meetingID, fmt.Sprintf("extraction_%04d.json", index))
}

// NoteRef is the reference for the meeting's consolidated note.
func NoteRef(meetingID string) string {
	return filepath.Join(meetingID, "note.json")
}
