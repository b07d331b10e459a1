// Package catalog stores items and categories. Every item write passes
// through the pricing rule before it is persisted.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"spark-ledger/internal/apperr"
	"spark-ledger/internal/models"
	"spark-ledger/internal/pricing"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ImageRemover releases stored image files once their item is gone.
type ImageRemover interface {
	Remove(ref string) error
}

// ItemInput carries the mutable fields of an item. Pointer fields are
// optional: nil means "not supplied".
type ItemInput struct {
	Name               string
	Description        string
	CategoryID         *uint
	OriginalPrice      decimal.Decimal
	SellingPrice       *decimal.Decimal
	CostPrice          decimal.Decimal
	DiscountPercentage decimal.Decimal
	Quantity           *int
	SKU                string
	Status             *models.ItemStatus
	Images             []string
}

// ItemFilter narrows List. Zero values match everything.
type ItemFilter struct {
	CategoryID *uint
	Status     models.ItemStatus
	Search     string
}

type Store struct {
	db     *gorm.DB
	images ImageRemover
}

func NewStore(db *gorm.DB, images ImageRemover) *Store {
	return &Store{db: db, images: images}
}

func (s *Store) Create(ctx context.Context, in ItemInput) (*models.Item, error) {
	if err := s.validate(ctx, in); err != nil {
		return nil, err
	}

	item := models.Item{Status: models.StatusAvailable}
	apply(&item, in)
	if item.Quantity == 0 && in.Status == nil {
		item.Status = models.StatusSoldOut
	}

	if err := s.db.WithContext(ctx).Omit("Category").Create(&item).Error; err != nil {
		return nil, translateWriteErr(err)
	}
	return s.Get(ctx, item.ID)
}

// Update replaces the item's editable fields. Stock and status columns are
// written only when the input carries a quantity or a status; otherwise the
// values left by sales stand.
func (s *Store) Update(ctx context.Context, id uint, in ItemInput) (*models.Item, error) {
	if err := s.validate(ctx, in); err != nil {
		return nil, err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var item models.Item
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&item, id).Error; err != nil {
			return notFound(err)
		}

		apply(&item, in)
		if in.Status == nil && in.Quantity != nil {
			item.Status = statusForQuantity(item.Quantity)
		}

		return tx.Model(&item).Select(updateColumns(in)).Updates(&item).Error
	})
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, err
		}
		return nil, translateWriteErr(err)
	}
	return s.Get(ctx, id)
}

func updateColumns(in ItemInput) []string {
	cols := []string{"Name", "Description", "CategoryID", "OriginalPrice", "SellingPrice", "CostPrice",
		"DiscountPercentage", "SKU", "Images", "UpdatedAt"}
	if in.Quantity != nil {
		cols = append(cols, "Quantity")
	}
	if in.Quantity != nil || in.Status != nil {
		cols = append(cols, "Status")
	}
	return cols
}

func (s *Store) Get(ctx context.Context, id uint) (*models.Item, error) {
	var item models.Item
	if err := s.db.WithContext(ctx).Preload("Category").First(&item, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &item, nil
}

// List returns matching items, newest first.
func (s *Store) List(ctx context.Context, f ItemFilter) ([]models.Item, error) {
	q := s.db.WithContext(ctx).Preload("Category")
	if f.CategoryID != nil {
		q = q.Where("category_id = ?", *f.CategoryID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if search := strings.TrimSpace(f.Search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		q = q.Where("(LOWER(name) LIKE ? OR LOWER(description) LIKE ?)", pattern, pattern)
	}

	items := []models.Item{}
	if err := q.Order("created_at DESC").Order("id DESC").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	return items, nil
}

// Delete removes the item, orphaning (not deleting) its ledger rows, then
// releases its images.
func (s *Store) Delete(ctx context.Context, id uint) error {
	var item models.Item
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&item, id).Error; err != nil {
			return notFound(err)
		}
		if err := tx.Model(&models.SaleRecord{}).Where("item_id = ?", id).Update("item_id", nil).Error; err != nil {
			return fmt.Errorf("detach sales: %w", err)
		}
		if err := tx.Delete(&models.Item{}, id).Error; err != nil {
			return fmt.Errorf("delete item: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if s.images != nil {
		for _, ref := range item.Images {
			if err := s.images.Remove(ref); err != nil {
				log.Printf("catalog: item %d deleted but image %s was not removed: %v", id, ref, err)
			}
		}
	}
	return nil
}

func (s *Store) validate(ctx context.Context, in ItemInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return apperr.Invalid("name", "is required")
	}
	if !in.OriginalPrice.IsPositive() {
		return apperr.Invalid("original_price", "must be greater than 0")
	}
	if in.CostPrice.IsNegative() {
		return apperr.Invalid("cost_price", "must not be negative")
	}
	if !pricing.ValidDiscount(in.DiscountPercentage) {
		return apperr.Invalid("discount_percentage", "must be between 0 and 100")
	}
	if in.SellingPrice != nil && in.SellingPrice.IsNegative() {
		return apperr.Invalid("selling_price", "must not be negative")
	}
	if in.Quantity != nil && *in.Quantity < 0 {
		return apperr.Invalid("quantity", "must not be negative")
	}
	if in.Status != nil && !in.Status.Valid() {
		return apperr.Invalid("status", "unknown status %q", *in.Status)
	}
	if in.CategoryID != nil {
		var n int64
		if err := s.db.WithContext(ctx).Model(&models.Category{}).Where("id = ?", *in.CategoryID).Count(&n).Error; err != nil {
			return fmt.Errorf("check category: %w", err)
		}
		if n == 0 {
			return apperr.Invalid("category_id", "category %d does not exist", *in.CategoryID)
		}
	}
	return nil
}

func apply(item *models.Item, in ItemInput) {
	explicit := in.OriginalPrice
	if in.SellingPrice != nil {
		explicit = *in.SellingPrice
	}

	item.Name = strings.TrimSpace(in.Name)
	item.Description = in.Description
	item.CategoryID = in.CategoryID
	item.OriginalPrice = in.OriginalPrice
	item.DiscountPercentage = in.DiscountPercentage
	item.SellingPrice = pricing.DeriveSellingPrice(in.OriginalPrice, in.DiscountPercentage, explicit)
	item.CostPrice = in.CostPrice
	if in.Quantity != nil {
		item.Quantity = *in.Quantity
	}
	item.SKU = nil
	if sku := strings.TrimSpace(in.SKU); sku != "" {
		item.SKU = &sku
	}
	if in.Status != nil {
		item.Status = *in.Status
	}
	item.Images = in.Images
	if item.Images == nil {
		item.Images = []string{}
	}
}

func statusForQuantity(q int) models.ItemStatus {
	if q <= 0 {
		return models.StatusSoldOut
	}
	return models.StatusAvailable
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.ErrNotFound
	}
	return err
}

func translateWriteErr(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(strings.ToLower(err.Error()), "unique") ||
		strings.Contains(strings.ToLower(err.Error()), "duplicate") {
		return apperr.Invalid("sku", "already in use")
	}
	return fmt.Errorf("save item: %w", err)
}
