package settings

import (
	"context"
	"fmt"
	"strings"
	"time"

	"spark-ledger/internal/apperr"
	"spark-ledger/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store keeps the business display info shown on the storefront.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// All returns every setting as a key → value map.
func (s *Store) All(ctx context.Context) (map[string]string, error) {
	var rows []models.Setting
	if err := s.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	out := make(map[string]string, len(rows))
	for _, row := range rows {
		out[row.Key] = row.Value
	}
	return out, nil
}

// Put inserts or overwrites each key in values.
func (s *Store) Put(ctx context.Context, values map[string]string) error {
	for key := range values {
		if strings.TrimSpace(key) == "" {
			return apperr.Invalid("key", "must not be empty")
		}
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for key, value := range values {
			row := models.Setting{Key: key, Value: value, UpdatedAt: time.Now().UTC()}
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "key"}},
				DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
			}).Create(&row).Error
			if err != nil {
				return fmt.Errorf("put setting %s: %w", key, err)
			}
		}
		return nil
	})
}
