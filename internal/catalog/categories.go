package catalog

import (
	"context"
	"fmt"
	"strings"

	"spark-ledger/internal/apperr"
	"spark-ledger/internal/models"

	"gorm.io/gorm"
)

// CategoryInput is the writable part of a category.
type CategoryInput struct {
	Name        string
	Description string
}

func (s *Store) ListCategories(ctx context.Context) ([]models.Category, error) {
	categories := []models.Category{}
	if err := s.db.WithContext(ctx).Order("name").Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

func (s *Store) CreateCategory(ctx context.Context, in CategoryInput) (*models.Category, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, apperr.Invalid("name", "is required")
	}
	c := models.Category{Name: strings.TrimSpace(in.Name), Description: in.Description}
	if err := s.db.WithContext(ctx).Create(&c).Error; err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	return &c, nil
}

func (s *Store) UpdateCategory(ctx context.Context, id uint, in CategoryInput) (*models.Category, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, apperr.Invalid("name", "is required")
	}

	var c models.Category
	if err := s.db.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, notFound(err)
	}
	c.Name = strings.TrimSpace(in.Name)
	c.Description = in.Description
	if err := s.db.WithContext(ctx).Model(&c).Select("Name", "Description").Updates(&c).Error; err != nil {
		return nil, fmt.Errorf("update category: %w", err)
	}
	return &c, nil
}

// DeleteCategory removes the category and clears the reference on every
// item that pointed at it. Items themselves are kept.
func (s *Store) DeleteCategory(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var c models.Category
		if err := tx.First(&c, id).Error; err != nil {
			return notFound(err)
		}
		if err := tx.Model(&models.Item{}).Where("category_id = ?", id).Update("category_id", nil).Error; err != nil {
			return fmt.Errorf("detach items: %w", err)
		}
		if err := tx.Delete(&c).Error; err != nil {
			return fmt.Errorf("delete category: %w", err)
		}
		return nil
	})
}
