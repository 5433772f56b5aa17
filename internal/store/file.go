package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"
)

const fileVersion = 1

// fileDocument is the on-disk layout of a FileStore.
type fileDocument struct {
	Version  int               `json:"version"`
	Profiles map[string]Record `json:"profiles"`
}

// FileStore implements TokenStore as a single JSON file readable only by
// the owner. Every write replaces the file atomically.
type FileStore struct {
	path    string
	nowFunc func() time.Time

	mu sync.Mutex
}

// FileOption configures a FileStore.
type FileOption func(*FileStore)

// WithFileNowFunc overrides the time function for testing.
func WithFileNowFunc(f func() time.Time) FileOption {
	return func(s *FileStore) {
		s.nowFunc = f
	}
}

// NewFileStore creates a FileStore at path. The file is created on the first
// Save.
func NewFileStore(path string, opts ...FileOption) *FileStore {
	s := &FileStore{path: path, nowFunc: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the backing file.
func (s *FileStore) Path() string {
	return s.path
}

// Close is a no-op.
func (*FileStore) Close() {}

// Ping checks that the token file, if present, can be read.
func (s *FileStore) Ping(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.load()
	return err
}

// Get retrieves the token stored for profile.
func (s *FileStore) Get(_ context.Context, profile string) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return nil, err
	}
	r, ok := doc.Profiles[profile]
	if !ok {
		return nil, ErrNotFound
	}
	return &r, nil
}

// Save inserts or replaces the token for r.Profile.
func (s *FileStore) Save(_ context.Context, r *Record) error {
	if r.Profile == "" {
		return errors.New("profile is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}

	r.UpdatedAt = s.nowFunc().UTC()
	doc.Profiles[r.Profile] = *r

	return s.write(doc)
}

// Delete removes the token for profile.
func (s *FileStore) Delete(_ context.Context, profile string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}
	if _, ok := doc.Profiles[profile]; !ok {
		return ErrNotFound
	}
	delete(doc.Profiles, profile)

	return s.write(doc)
}

// List returns stored tokens matching q.
func (s *FileStore) List(_ context.Context, q *TokenQuery) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return nil, err
	}

	records := slices.Collect(maps.Values(doc.Profiles))
	return q.Apply(records), nil
}

func (s *FileStore) load() (*fileDocument, error) {
	doc := &fileDocument{Version: fileVersion, Profiles: map[string]Record{}}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return doc, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading token file: %w", err)
	}
	if len(data) == 0 {
		return doc, nil
	}

	if err := json.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("parsing token file %s: %w", s.path, err)
	}
	if doc.Version > fileVersion {
		return nil, fmt.Errorf("token file %s has unsupported version %d", s.path, doc.Version)
	}
	if doc.Profiles == nil {
		doc.Profiles = map[string]Record{}
	}
	return doc, nil
}

func (s *FileStore) write(doc *fileDocument) error {
	doc.Version = fileVersion

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling token file: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("creating token directory: %w", err)
	}

	// CreateTemp opens the file with mode 0600.
	tmp, err := os.CreateTemp(dir, ".tokens-*.json")
	if err != nil {
		return fmt.Errorf("creating temp token file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck // already renamed on success

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing token file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("syncing token file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing token file: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replacing token file: %w", err)
	}
	return nil
}
