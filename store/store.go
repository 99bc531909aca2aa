// Package store provides append-only persistence for generated model
// records. Records are immutable after creation; the single permitted update
// is attaching the local cache path once the artifact has been downloaded.
package store

import (
	"context"
	"time"
)

// SchemaVersion is written into the persisted collection.
const SchemaVersion = 1

// IDPrefix namespaces remotely generated records, disambiguating them from
// manually seeded ones.
const IDPrefix = "tripo_"

// UnknownFileSize is the sentinel recorded when the artifact size is not
// known at persistence time.
const UnknownFileSize int64 = 1024000

// ModelRecord is the metadata of one generated model.
type ModelRecord struct {
	ID              string    `json:"id" gorm:"primaryKey"`
	Prompt          string    `json:"prompt"`
	Format          string    `json:"format"`
	Quality         string    `json:"quality"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
	FileSizeBytes   int64     `json:"file_size"`
	DownloadLocator string    `json:"download_url,omitempty"`
	ThumbnailURL    string    `json:"thumbnail_url,omitempty"`
	RemoteJobID     string    `json:"tripo_task_id,omitempty"`
	LocalPath       string    `json:"local_path,omitempty"`
}

// Store persists model records. Implementations must serialize writes; reads
// may be concurrent.
type Store interface {
	// Append adds one record, creating the backing collection if needed.
	// Appending an id that already exists is an error: records are never
	// overwritten.
	Append(ctx context.Context, rec *ModelRecord) error

	// List returns records ordered newest first (records without a creation
	// time sort as oldest), applying limit and offset after sorting, plus the
	// total count before pagination.
	List(ctx context.Context, limit, offset int) ([]ModelRecord, int, error)

	// GetByID returns the record or a NOT_FOUND error.
	GetByID(ctx context.Context, id string) (*ModelRecord, error)

	// AttachLocalPath records the local artifact cache path for id. This is
	// the only mutation permitted after Append.
	AttachLocalPath(ctx context.Context, id, path string) error
}

// DefaultListLimit applies when a caller passes limit <= 0.
const DefaultListLimit = 50

func normalizePage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
