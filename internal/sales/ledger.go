package sales

import (
	"context"
	"fmt"
	"time"

	"spark-ledger/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// LedgerField names a summable money column of the ledger.
type LedgerField string

const (
	FieldTotalPrice LedgerField = "total_price"
	FieldTotalCost  LedgerField = "total_cost"
	FieldProfit     LedgerField = "profit"
)

// LedgerFilter bounds a ledger query by sale time; both ends are inclusive
// and optional.
type LedgerFilter struct {
	From *time.Time
	To   *time.Time
}

// Ledger is the read side of the sale records. Rows are only ever written
// by Engine.RecordSale.
type Ledger struct {
	db *gorm.DB
}

func NewLedger(db *gorm.DB) *Ledger {
	return &Ledger{db: db}
}

// List returns the matching records, newest first.
func (l *Ledger) List(ctx context.Context, f LedgerFilter) ([]models.SaleRecord, error) {
	records := []models.SaleRecord{}
	err := f.apply(l.db.WithContext(ctx)).
		Order("sold_at DESC").Order("id DESC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	return records, nil
}

// Recent returns the n newest records.
func (l *Ledger) Recent(ctx context.Context, n int) ([]models.SaleRecord, error) {
	records := []models.SaleRecord{}
	err := l.db.WithContext(ctx).
		Order("sold_at DESC").Order("id DESC").
		Limit(n).Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("recent sales: %w", err)
	}
	return records, nil
}

// Sum adds up field over the matching records. An empty ledger sums to 0.
func (l *Ledger) Sum(ctx context.Context, field LedgerField, f LedgerFilter) (decimal.Decimal, error) {
	switch field {
	case FieldTotalPrice, FieldTotalCost, FieldProfit:
	default:
		return decimal.Zero, fmt.Errorf("sum: unknown ledger field %q", field)
	}

	var out struct {
		Total decimal.Decimal
	}
	err := f.apply(l.db.WithContext(ctx).Model(&models.SaleRecord{})).
		Select(fmt.Sprintf("COALESCE(SUM(%s), 0) AS total", field)).
		Scan(&out).Error
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum %s: %w", field, err)
	}
	return out.Total, nil
}

// Count returns the number of matching records.
func (l *Ledger) Count(ctx context.Context, f LedgerFilter) (int64, error) {
	var n int64
	if err := f.apply(l.db.WithContext(ctx).Model(&models.SaleRecord{})).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count sales: %w", err)
	}
	return n, nil
}

func (f LedgerFilter) apply(q *gorm.DB) *gorm.DB {
	if f.From != nil {
		q = q.Where("sold_at >= ?", f.From.UTC())
	}
	if f.To != nil {
		q = q.Where("sold_at <= ?", f.To.UTC())
	}
	return q
}
