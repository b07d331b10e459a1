// Package sales records sales against catalog stock and exposes the
// resulting append-only ledger.
package sales

import (
	"context"
	"errors"
	"time"

	"spark-ledger/internal/apperr"
	"spark-ledger/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Customer is the optional buyer info stored on the ledger row.
type Customer struct {
	Name  string
	Phone string
	Notes string
}

// SaleRequest asks to sell Quantity units of ItemID. Quantity is checked by
// RecordSale, not by the caller.
type SaleRequest struct {
	ItemID   uint
	Quantity int
	Customer Customer
}

// Engine turns a sale request into one ledger row plus the matching stock
// change, committed together or not at all.
type Engine struct {
	db  *gorm.DB
	now func() time.Time
}

func NewEngine(db *gorm.DB, now func() time.Time) *Engine {
	if now == nil {
		now = time.Now
	}
	return &Engine{db: db, now: now}
}

// RecordSale sells req.Quantity units of the item. It fails with
// apperr.ErrNotFound, apperr.ErrInvalidQuantity, apperr.ErrInsufficientStock
// or apperr.ErrTransactionFailed, and leaves no partial effect on failure.
func (e *Engine) RecordSale(ctx context.Context, req SaleRequest) (*models.SaleRecord, error) {
	var record models.SaleRecord

	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var item models.Item
		// Row lock on mysql/postgres; the guarded decrement below covers
		// dialects without FOR UPDATE.
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&item, req.ItemID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.ErrNotFound
		}
		if err != nil {
			return err
		}

		if req.Quantity <= 0 {
			return apperr.ErrInvalidQuantity
		}
		if item.Quantity < req.Quantity {
			return apperr.ErrInsufficientStock
		}

		record = newRecord(item, req, e.now().UTC())
		if err := tx.Omit(clause.Associations).Create(&record).Error; err != nil {
			return err
		}

		res := tx.Model(&models.Item{}).
			Where("id = ? AND quantity >= ?", item.ID, req.Quantity).
			UpdateColumns(map[string]interface{}{
				"quantity":      gorm.Expr("quantity - ?", req.Quantity),
				"sold_quantity": gorm.Expr("sold_quantity + ?", req.Quantity),
				"updated_at":    record.SoldAt,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.ErrInsufficientStock
		}

		// Any status, hidden included, becomes sold_out once stock runs out.
		return tx.Model(&models.Item{}).
			Where("id = ? AND quantity <= 0", item.ID).
			UpdateColumn("status", models.StatusSoldOut).Error
	})
	if err != nil {
		return nil, apperr.TxFailed(err)
	}
	return &record, nil
}

func newRecord(item models.Item, req SaleRequest, at time.Time) models.SaleRecord {
	qty := decimal.NewFromInt(int64(req.Quantity))
	totalPrice := item.SellingPrice.Mul(qty)
	totalCost := item.CostPrice.Mul(qty)

	itemID := item.ID
	return models.SaleRecord{
		ItemID:        &itemID,
		ProductName:   item.Name,
		Quantity:      req.Quantity,
		UnitPrice:     item.SellingPrice,
		TotalPrice:    totalPrice,
		UnitCost:      item.CostPrice,
		TotalCost:     totalCost,
		Profit:        totalPrice.Sub(totalCost),
		CustomerName:  req.Customer.Name,
		CustomerPhone: req.Customer.Phone,
		Notes:         req.Customer.Notes,
		SoldAt:        at,
	}
}
