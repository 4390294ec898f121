package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/deppfellow/patient-api/internal/model/patient"
)

// FileStore keeps every record in one JSON object on disk:
//
//	{"P001": {"name": "...", ..., "bmi": 22.86, "verdict": "Normal"}}
//
// The file is re-read on every call so edits made outside the process are
// picked up. Writes go through a temp file and a rename, so readers never
// observe a half-written document.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore returns a store backed by path. The file does not need to
// exist yet.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) load() (map[string]patient.Record, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]patient.Record{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", s.path, err)
	}

	records := map[string]patient.Record{}
	if len(data) == 0 {
		return records, nil
	}
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", s.path, err)
	}
	return records, nil
}

func (s *FileStore) save(records map[string]patient.Record) error {
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encoding records: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing %s: %w", s.path, err)
	}
	return nil
}

func (s *FileStore) All(_ context.Context) ([]patient.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		return nil, err
	}

	entries := make([]patient.Entry, 0, len(records))
	for id, rec := range records {
		entries = append(entries, patient.Entry{ID: id, Record: rec})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })

	return entries, nil
}

func (s *FileStore) Get(_ context.Context, id string) (*patient.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		return nil, err
	}

	rec, ok := records[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &rec, nil
}

func (s *FileStore) Create(_ context.Context, id string, rec patient.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		return err
	}
	if _, ok := records[id]; ok {
		return ErrAlreadyExists
	}

	records[id] = rec
	return s.save(records)
}

func (s *FileStore) Update(_ context.Context, id string, fn UpdateFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		return err
	}

	current, ok := records[id]
	if !ok {
		return ErrNotFound
	}

	next, err := fn(current)
	if err != nil {
		return err
	}

	records[id] = next
	return s.save(records)
}

func (s *FileStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		return err
	}
	if _, ok := records[id]; !ok {
		return ErrNotFound
	}

	delete(records, id)
	return s.save(records)
}

// Ping checks that the document, if present, is readable and decodes.
func (s *FileStore) Ping(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.load()
	return err
}
