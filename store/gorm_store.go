package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/hamadhk7/3D-AR-GENERATOR/types"
)

// GormStore keeps model records in SQLite via gorm. A database-backed store
// gives the same append-only semantics as the JSON file but survives larger
// collections without rewriting the whole document on each append.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore opens (or creates) a SQLite database at path and migrates the
// record table. Pass ":memory:" for an ephemeral store.
func NewGormStore(path string) (*GormStore, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open model database: %w", err)
	}
	if err := db.AutoMigrate(&ModelRecord{}); err != nil {
		return nil, fmt.Errorf("migrate model database: %w", err)
	}
	return &GormStore{db: db}, nil
}

// Append implements Store.
func (s *GormStore) Append(ctx context.Context, rec *ModelRecord) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&ModelRecord{}).
		Where("id = ?", rec.ID).Count(&count).Error; err != nil {
		return types.NewError(types.ErrStorage, "failed to query model store").WithCause(err)
	}
	if count > 0 {
		return types.NewError(types.ErrStorage, fmt.Sprintf("record %s already exists", rec.ID))
	}

	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		return types.NewError(types.ErrStorage, "failed to persist model record").WithCause(err)
	}
	return nil
}

// List implements Store.
func (s *GormStore) List(ctx context.Context, limit, offset int) ([]ModelRecord, int, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&ModelRecord{}).Count(&total).Error; err != nil {
		return nil, 0, types.NewError(types.ErrStorage, "failed to count model records").WithCause(err)
	}

	limit, offset = normalizePage(limit, offset)

	var records []ModelRecord
	if err := s.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&records).Error; err != nil {
		return nil, 0, types.NewError(types.ErrStorage, "failed to list model records").WithCause(err)
	}
	return records, int(total), nil
}

// GetByID implements Store.
func (s *GormStore) GetByID(ctx context.Context, id string) (*ModelRecord, error) {
	var rec ModelRecord
	err := s.db.WithContext(ctx).First(&rec, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.NewError(types.ErrNotFound, "model not found")
		}
		return nil, types.NewError(types.ErrStorage, "failed to load model record").WithCause(err)
	}
	return &rec, nil
}

// AttachLocalPath implements Store.
func (s *GormStore) AttachLocalPath(ctx context.Context, id, path string) error {
	res := s.db.WithContext(ctx).Model(&ModelRecord{}).
		Where("id = ?", id).
		Update("local_path", path)
	if res.Error != nil {
		return types.NewError(types.ErrStorage, "failed to persist local path").WithCause(res.Error)
	}
	if res.RowsAffected == 0 {
		return types.NewError(types.ErrNotFound, "model not found")
	}
	return nil
}
