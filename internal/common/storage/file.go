package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/project-tktt/go-vacancies/internal/domain"
	"github.com/project-tktt/go-vacancies/pkg/logging"
)

// FileStore keeps records as a JSON array in a single file.
// Every mutation rewrites the whole file through a temp file and rename.
type FileStore struct {
	mu     sync.Mutex
	path   string
	logger *logging.Logger
	now    func() time.Time
}

var _ Storage = (*FileStore)(nil)

// NewFileStore creates a store backed by path. The file is created on first write.
func NewFileStore(path string, logger *logging.Logger) *FileStore {
	return &FileStore{
		path:   path,
		logger: logger.With("storage", "file", "path", path),
		now:    time.Now,
	}
}

func (s *FileStore) Update(ctx context.Context, records []domain.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, err := s.read()
	if err != nil {
		return err
	}

	index := make(map[string]int, len(stored))
	for i, r := range stored {
		index[r.IDVac] = i
	}

	var inserted, changed int
	now := s.now().UTC()
	for _, r := range prepare(records, s.logger) {
		i, ok := index[r.IDVac]
		if !ok {
			index[r.IDVac] = len(stored)
			stored = append(stored, domain.StoredRecord{Record: r, State: domain.StateActive, UpdatedAt: now})
			inserted++
			continue
		}
		if stored[i].Record == r {
			continue
		}
		stored[i].Record = r
		stored[i].UpdatedAt = now
		changed++
	}

	if inserted == 0 && changed == 0 {
		return nil
	}

	s.logger.Debug("records updated", "inserted", inserted, "changed", changed)
	return s.write(stored)
}

func (s *FileStore) Load(ctx context.Context, keywords string) ([]domain.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, err := s.read()
	if err != nil {
		return nil, err
	}

	words := splitKeywords(keywords)
	out := make([]domain.Record, 0, len(stored))
	for _, r := range stored {
		if r.State == domain.StateActive && matchKeywords(r.Record, words) {
			out = append(out, r.Record)
		}
	}
	return out, nil
}

func (s *FileStore) MarkDeleted(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, err := s.read()
	if err != nil {
		return err
	}

	for i := range stored {
		if stored[i].IDVac != id {
			continue
		}
		if !stored[i].State.CanTransition(domain.StateMarked) {
			return nil
		}
		stored[i].State = domain.StateMarked
		stored[i].UpdatedAt = s.now().UTC()
		return s.write(stored)
	}
	return fmt.Errorf("mark %s: %w", id, domain.ErrNotFound)
}

func (s *FileStore) ClearMarks(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, err := s.read()
	if err != nil {
		return err
	}

	cleared := 0
	now := s.now().UTC()
	for i := range stored {
		if stored[i].State == domain.StateMarked {
			stored[i].State = domain.StateActive
			stored[i].UpdatedAt = now
			cleared++
		}
	}
	if cleared == 0 {
		return nil
	}
	return s.write(stored)
}

func (s *FileStore) DeleteMarked(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, err := s.read()
	if err != nil {
		return err
	}

	kept := stored[:0]
	for _, r := range stored {
		if r.State != domain.StateMarked {
			kept = append(kept, r)
		}
	}
	if len(kept) == len(stored) {
		return nil
	}

	s.logger.Info("marked records deleted", "count", len(stored)-len(kept))
	return s.write(kept)
}

func (s *FileStore) DeleteAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.write([]domain.StoredRecord{})
}

func (s *FileStore) Close() error {
	return nil
}

// read loads the file; a missing file is an empty store
func (s *FileStore) read() ([]domain.StoredRecord, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []domain.StoredRecord{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}
	if len(data) == 0 {
		return []domain.StoredRecord{}, nil
	}

	var stored []domain.StoredRecord
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.path, err)
	}
	return stored, nil
}

func (s *FileStore) write(stored []domain.StoredRecord) error {
	data, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return fmt.Errorf("encode records: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create dir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace %s: %w", s.path, err)
	}
	return nil
}
