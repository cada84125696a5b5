package kv

import (
	"context"
	"errors"
	"time"

	"focus-guard/agent/internal/db"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore persists values as rows of the stored_values table.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(gdb *gorm.DB) *GormStore {
	return &GormStore{db: gdb}
}

func (s *GormStore) Get(ctx context.Context, key string) ([]byte, error) {
	if s.db == nil {
		return nil, ErrStorageUnavailable
	}
	var row db.StoredValue
	err := s.db.WithContext(ctx).Where("store_key = ?", key).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, classify(ctx, err)
	}
	return row.Value, nil
}

func (s *GormStore) Set(ctx context.Context, key string, value []byte) error {
	if s.db == nil {
		return ErrStorageUnavailable
	}
	row := db.StoredValue{Key: key, Value: value, UpdatedAt: time.Now()}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "store_key"}},
		DoUpdates: clause.Assignments(map[string]any{
			"value":      row.Value,
			"updated_at": row.UpdatedAt,
		}),
	}).Create(&row).Error
	if err != nil {
		return classify(ctx, err)
	}
	return nil
}

func classify(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return ErrTimeout
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return transient(err)
}
