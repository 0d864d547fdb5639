package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StateModel is the GORM model for the booking_state table.
type StateModel struct {
	Key       string          `gorm:"column:key;primaryKey;size:64"`
	Value     json.RawMessage `gorm:"type:jsonb;not null"`
	UpdatedAt time.Time       `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (StateModel) TableName() string {
	return "booking_state"
}

// GormKVStore is the GORM-based implementation of KVStore.
type GormKVStore struct {
	db *gorm.DB
}

// NewGormKVStore creates a new GormKVStore.
func NewGormKVStore(db *gorm.DB) *GormKVStore {
	return &GormKVStore{db: db}
}

// Load retrieves the document stored under key.
func (s *GormKVStore) Load(ctx context.Context, key string) ([]byte, error) {
	var model StateModel
	if err := s.db.WithContext(ctx).Where("key = ?", key).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load state %q: %w", key, err)
	}
	return model.Value, nil
}

// Save upserts the document stored under key.
func (s *GormKVStore) Save(ctx context.Context, key string, value []byte) error {
	model := StateModel{
		Key:       key,
		Value:     json.RawMessage(value),
		UpdatedAt: time.Now().UTC(),
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&model).Error
	if err != nil {
		return fmt.Errorf("failed to save state %q: %w", key, err)
	}
	return nil
}

// Ping checks the underlying database connection.
func (s *GormKVStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}
	return sqlDB.PingContext(ctx)
}
