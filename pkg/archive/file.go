package archive

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/matzehuels/microperf/pkg/errors"
)

// FileStore keeps one JSON file per record in a directory. It is the CLI's
// default history.
type FileStore struct {
	mu      sync.RWMutex
	baseDir string
}

// NewFileStore creates a store rooted at baseDir, creating it if needed.
func NewFileStore(baseDir string) (*FileStore, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "create archive dir")
	}
	return &FileStore{baseDir: baseDir}, nil
}

// Path returns the directory holding the records.
func (s *FileStore) Path() string { return s.baseDir }

func (s *FileStore) recordPath(id string) string {
	return filepath.Join(s.baseDir, id+".json")
}

// Save implements Store.
func (s *FileStore) Save(_ context.Context, rec Record) error {
	if err := validateRecord(rec); err != nil {
		return err
	}
	if filepath.Base(rec.ID) != rec.ID {
		return errors.New(errors.ErrCodeInvalidInput, "invalid record ID %q", rec.ID)
	}
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "marshal run")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.WriteFile(s.recordPath(rec.ID), data, 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "write run")
	}
	return nil
}

// Get implements Store.
func (s *FileStore) Get(_ context.Context, id string) (Record, error) {
	if filepath.Base(id) != id {
		return Record{}, errors.New(errors.ErrCodeNotFound, "run %q not found", id)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.recordPath(id))
	if os.IsNotExist(err) {
		return Record{}, errors.New(errors.ErrCodeNotFound, "run %q not found", id)
	}
	if err != nil {
		return Record{}, errors.Wrap(errors.ErrCodeInternal, err, "read run")
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, errors.Wrap(errors.ErrCodeInternal, err, "parse run %s", id)
	}
	return rec, nil
}

// List implements Store. Unreadable files are skipped.
func (s *FileStore) List(_ context.Context, limit int) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "read archive dir")
	}

	out := make([]Record, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.baseDir, entry.Name()))
		if err != nil {
			continue
		}
		var rec Record
		if err := json.Unmarshal(data, &rec); err != nil {
			continue
		}
		out = append(out, rec)
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	if limit = normalizeLimit(limit); len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Close implements Store.
func (s *FileStore) Close(context.Context) error { return nil }

var _ Store = (*FileStore)(nil)
