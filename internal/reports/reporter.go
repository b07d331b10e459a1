// Package reports derives dashboard figures from the catalog and the sales
// ledger. Nothing here writes; every call recomputes from the tables.
package reports

import (
	"context"
	"fmt"
	"sort"
	"time"

	"spark-ledger/internal/models"
	"spark-ledger/internal/sales"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	LowStockThreshold = 5
	RecentSalesLimit  = 5
)

// Stats is the admin dashboard snapshot.
type Stats struct {
	TotalProducts int64               `json:"total_products"`
	TotalStock    int64               `json:"total_stock"`
	TotalSold     int64               `json:"total_sold"`
	TotalRevenue  decimal.Decimal     `json:"total_revenue"`
	TotalProfit   decimal.Decimal     `json:"total_profit"`
	TotalCost     decimal.Decimal     `json:"total_cost"`
	TodayRevenue  decimal.Decimal     `json:"today_revenue"`
	TodayProfit   decimal.Decimal     `json:"today_profit"`
	LowStockCount int64               `json:"low_stock_count"`
	RecentSales   []models.SaleRecord `json:"recent_sales"`
}

// SalesSummary holds the revenue of a date range
type SalesSummary struct {
	From         time.Time       `json:"from"`
	To           time.Time       `json:"to"`
	TotalRevenue decimal.Decimal `json:"total_revenue"`
	TotalProfit  decimal.Decimal `json:"total_profit"`
	TotalCount   int64           `json:"total_count"`
}

// ValuationItem is one row of the stock valuation table
type ValuationItem struct {
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	CostPrice decimal.Decimal `json:"cost_price"`
	TotalCost decimal.Decimal `json:"total_cost"`
}

// CategoryGroup is one table of the valuation report (e.g. "Rings")
type CategoryGroup struct {
	CategoryName string          `json:"category_name"`
	Items        []ValuationItem `json:"items"`
	Subtotal     decimal.Decimal `json:"subtotal"`
}

type Valuation struct {
	Categories []CategoryGroup `json:"categories"`
	GrandTotal decimal.Decimal `json:"grand_total"`
}

type Reporter struct {
	db     *gorm.DB
	ledger *sales.Ledger
	now    func() time.Time
	loc    *time.Location
}

// NewReporter builds a reporter. "Today" is the calendar day of now() in
// loc.
func NewReporter(db *gorm.DB, ledger *sales.Ledger, now func() time.Time, loc *time.Location) *Reporter {
	if now == nil {
		now = time.Now
	}
	if loc == nil {
		loc = time.Local
	}
	return &Reporter{db: db, ledger: ledger, now: now, loc: loc}
}

func (r *Reporter) Stats(ctx context.Context) (*Stats, error) {
	var stats Stats

	var catalog struct {
		Products int64
		Stock    int64
		Sold     int64
		LowStock int64
	}
	err := r.db.WithContext(ctx).Model(&models.Item{}).
		Select(`COUNT(*) AS products,
			COALESCE(SUM(quantity), 0) AS stock,
			COALESCE(SUM(sold_quantity), 0) AS sold,
			COALESCE(SUM(CASE WHEN quantity > 0 AND quantity <= ? THEN 1 ELSE 0 END), 0) AS low_stock`, LowStockThreshold).
		Scan(&catalog).Error
	if err != nil {
		return nil, fmt.Errorf("catalog totals: %w", err)
	}
	stats.TotalProducts = catalog.Products
	stats.TotalStock = catalog.Stock
	stats.TotalSold = catalog.Sold
	stats.LowStockCount = catalog.LowStock

	all := sales.LedgerFilter{}
	if stats.TotalRevenue, err = r.ledger.Sum(ctx, sales.FieldTotalPrice, all); err != nil {
		return nil, err
	}
	if stats.TotalProfit, err = r.ledger.Sum(ctx, sales.FieldProfit, all); err != nil {
		return nil, err
	}
	if stats.TotalCost, err = r.ledger.Sum(ctx, sales.FieldTotalCost, all); err != nil {
		return nil, err
	}

	today := r.today()
	if stats.TodayRevenue, err = r.ledger.Sum(ctx, sales.FieldTotalPrice, today); err != nil {
		return nil, err
	}
	if stats.TodayProfit, err = r.ledger.Sum(ctx, sales.FieldProfit, today); err != nil {
		return nil, err
	}

	if stats.RecentSales, err = r.ledger.Recent(ctx, RecentSalesLimit); err != nil {
		return nil, err
	}
	return &stats, nil
}

// SalesSummary totals the ledger between from and to, inclusive.
func (r *Reporter) SalesSummary(ctx context.Context, from, to time.Time) (*SalesSummary, error) {
	f := sales.LedgerFilter{From: &from, To: &to}
	out := SalesSummary{From: from, To: to}

	var err error
	if out.TotalRevenue, err = r.ledger.Sum(ctx, sales.FieldTotalPrice, f); err != nil {
		return nil, err
	}
	if out.TotalProfit, err = r.ledger.Sum(ctx, sales.FieldProfit, f); err != nil {
		return nil, err
	}
	if out.TotalCount, err = r.ledger.Count(ctx, f); err != nil {
		return nil, err
	}
	return &out, nil
}

// Valuation prices the stock on hand at cost, grouped by category.
func (r *Reporter) Valuation(ctx context.Context) (*Valuation, error) {
	var items []models.Item
	if err := r.db.WithContext(ctx).Preload("Category").Order("name").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("fetch inventory: %w", err)
	}

	grouped := make(map[string]*CategoryGroup)
	out := Valuation{Categories: []CategoryGroup{}}

	for _, it := range items {
		catName := "Uncategorized"
		if it.Category != nil {
			catName = it.Category.Name
		}
		group, ok := grouped[catName]
		if !ok {
			group = &CategoryGroup{CategoryName: catName, Items: []ValuationItem{}}
			grouped[catName] = group
		}

		itemTotal := it.CostPrice.Mul(decimal.NewFromInt(int64(it.Quantity)))
		group.Items = append(group.Items, ValuationItem{
			Name:      it.Name,
			Quantity:  it.Quantity,
			CostPrice: it.CostPrice,
			TotalCost: itemTotal,
		})
		group.Subtotal = group.Subtotal.Add(itemTotal)
		out.GrandTotal = out.GrandTotal.Add(itemTotal)
	}

	for _, group := range grouped {
		out.Categories = append(out.Categories, *group)
	}
	sort.Slice(out.Categories, func(i, j int) bool {
		return out.Categories[i].CategoryName < out.Categories[j].CategoryName
	})
	return &out, nil
}

func (r *Reporter) today() sales.LedgerFilter {
	now := r.now().In(r.loc)
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, r.loc)
	end := start.AddDate(0, 0, 1).Add(-time.Nanosecond)
	return sales.LedgerFilter{From: &start, To: &end}
}
