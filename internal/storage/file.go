package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/matsen/tablebot/internal/table"
)

// Document is the on-disk layout of the file backend: scope -> name -> table.
type Document map[string]map[string]table.Table

// FileStore keeps every table in a single JSON document.
// The whole document is read and rewritten on each change, so a mutex
// serializes writers across all scopes.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore creates a FileStore at path. The file is created on first write.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the JSON document path.
func (s *FileStore) Path() string {
	return s.path
}

// Read implements table.Store.
func (s *FileStore) Read(ctx context.Context, scope, name string) (table.Table, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return table.Table{}, false, err
	}
	t, ok := doc[scope][name]
	if !ok {
		return table.Table{}, false, nil
	}
	t.Normalize()
	return t, true, nil
}

// Write implements table.Store.
func (s *FileStore) Write(ctx context.Context, scope, name string, t table.Table) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}
	if doc[scope] == nil {
		doc[scope] = make(map[string]table.Table)
	}
	t.Normalize()
	doc[scope][name] = t
	return s.save(doc)
}

// Delete implements table.Store.
func (s *FileStore) Delete(ctx context.Context, scope, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}
	if _, ok := doc[scope][name]; !ok {
		return nil
	}
	delete(doc[scope], name)
	return s.save(doc)
}

// ListNames implements table.Store.
func (s *FileStore) ListNames(ctx context.Context, scope string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(doc[scope]))
	for name := range doc[scope] {
		names = append(names, name)
	}
	return names, nil
}

// load reads the document. A missing file is an empty document.
func (s *FileStore) load() (Document, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(Document), nil
		}
		return nil, fmt.Errorf("reading %s: %w", s.path, err)
	}
	if len(data) == 0 {
		return make(Document), nil
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", s.path, err)
	}
	if doc == nil {
		doc = make(Document)
	}
	return doc, nil
}

// save writes the document atomically via temp file + rename.
func (s *FileStore) save(doc Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding tables: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	tmpFile, err := os.CreateTemp(dir, ".tmp-*.json")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("renaming temp file: %w", err)
	}

	success = true
	return nil
}
