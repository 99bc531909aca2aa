package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/hamadhk7/3D-AR-GENERATOR/types"
)

// fileDocument is the on-disk shape of the collection.
type fileDocument struct {
	SchemaVersion int           `json:"schema_version"`
	Records       []ModelRecord `json:"records"`
}

// FileStore keeps the record collection in a single JSON file.
type FileStore struct {
	path string
	mu   sync.RWMutex
}

// NewFileStore creates a file-backed record store at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) load() (*fileDocument, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return &fileDocument{SchemaVersion: SchemaVersion}, nil
		}
		return nil, fmt.Errorf("read model store: %w", err)
	}

	var doc fileDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse model store: %w", err)
	}
	return &doc, nil
}

func (s *FileStore) save(doc *fileDocument) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create model store directory: %w", err)
	}

	doc.SchemaVersion = SchemaVersion
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode model store: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write model store: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("finalize model store: %w", err)
	}
	return nil
}

// Append implements Store.
func (s *FileStore) Append(_ context.Context, rec *ModelRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return types.NewError(types.ErrStorage, "failed to load model store").WithCause(err)
	}

	for i := range doc.Records {
		if doc.Records[i].ID == rec.ID {
			return types.NewError(types.ErrStorage,
				fmt.Sprintf("record %s already exists", rec.ID))
		}
	}

	doc.Records = append(doc.Records, *rec)
	if err := s.save(doc); err != nil {
		return types.NewError(types.ErrStorage, "failed to persist model record").WithCause(err)
	}
	return nil
}

// List implements Store.
func (s *FileStore) List(_ context.Context, limit, offset int) ([]ModelRecord, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, err := s.load()
	if err != nil {
		return nil, 0, types.NewError(types.ErrStorage, "failed to load model store").WithCause(err)
	}

	records := make([]ModelRecord, len(doc.Records))
	copy(records, doc.Records)

	// Newest first; a zero CreatedAt sorts as oldest.
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})

	total := len(records)
	limit, offset = normalizePage(limit, offset)
	if offset >= total {
		return []ModelRecord{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return records[offset:end], total, nil
}

// GetByID implements Store.
func (s *FileStore) GetByID(_ context.Context, id string) (*ModelRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, err := s.load()
	if err != nil {
		return nil, types.NewError(types.ErrStorage, "failed to load model store").WithCause(err)
	}

	for i := range doc.Records {
		if doc.Records[i].ID == id {
			rec := doc.Records[i]
			return &rec, nil
		}
	}
	return nil, types.NewError(types.ErrNotFound, "model not found")
}

// AttachLocalPath implements Store.
func (s *FileStore) AttachLocalPath(_ context.Context, id, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return types.NewError(types.ErrStorage, "failed to load model store").WithCause(err)
	}

	for i := range doc.Records {
		if doc.Records[i].ID == id {
			doc.Records[i].LocalPath = path
			if err := s.save(doc); err != nil {
				return types.NewError(types.ErrStorage, "failed to persist local path").WithCause(err)
			}
			return nil
		}
	}
	return types.NewError(types.ErrNotFound, "model not found")
}
