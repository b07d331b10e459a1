package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"spark-ledger/internal/catalog"
	"spark-ledger/internal/models"
	"spark-ledger/internal/reports"

	"github.com/google/generative-ai-go/genai"
	"github.com/shopspring/decimal"
)

// Tool names the model may call. All of them only read.
const (
	ToolCheckInventory = "check_inventory"
	ToolSalesReport    = "get_sales_report"
	ToolDashboardStats = "get_dashboard_stats"
)

type Inventory interface {
	List(ctx context.Context, f catalog.ItemFilter) ([]models.Item, error)
}

type Reports interface {
	Stats(ctx context.Context) (*reports.Stats, error)
	SalesSummary(ctx context.Context, from, to time.Time) (*reports.SalesSummary, error)
}

// Tools executes the function calls of the assistant against live data.
type Tools struct {
	inventory Inventory
	reports   Reports
	loc       *time.Location
}

func NewTools(inventory Inventory, reports Reports, loc *time.Location) *Tools {
	if loc == nil {
		loc = time.Local
	}
	return &Tools{inventory: inventory, reports: reports, loc: loc}
}

func declarations() []*genai.FunctionDeclaration {
	return []*genai.FunctionDeclaration{
		{
			Name:        ToolCheckInventory,
			Description: "Get the inventory list. Use this to find ANY product details like ID, Name, Price, Cost, Stock or Status.",
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"search": {Type: genai.TypeString, Description: "Optional text to match against product names"},
				},
			},
		},
		{
			Name:        ToolSalesReport,
			Description: "Get total sales revenue, profit and number of sales for a date range.",
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"start_date": {Type: genai.TypeString, Description: "Start date (YYYY-MM-DD)"},
					"end_date":   {Type: genai.TypeString, Description: "End date (YYYY-MM-DD), inclusive"},
				},
				Required: []string{"start_date", "end_date"},
			},
		},
		{
			Name:        ToolDashboardStats,
			Description: "Get store totals: product count, stock, units sold, revenue, profit, today's revenue and low stock count.",
		},
	}
}

// inventoryRow is the trimmed item shape handed to the model.
type inventoryRow struct {
	ID           uint   `json:"id"`
	Name         string `json:"name"`
	Category     string `json:"category,omitempty"`
	Status       string `json:"status"`
	Stock        int    `json:"stock"`
	SellingPrice string `json:"selling_price"`
	CostPrice    string `json:"cost_price"`
	SKU          string `json:"sku,omitempty"`
}

// Call runs one tool. The result is always a flat map of strings and
// numbers so it can travel in a FunctionResponse.
func (t *Tools) Call(ctx context.Context, name string, args map[string]any) (map[string]any, error) {
	switch name {
	case ToolCheckInventory:
		return t.checkInventory(ctx, args)
	case ToolSalesReport:
		return t.salesReport(ctx, args)
	case ToolDashboardStats:
		return t.dashboardStats(ctx)
	}
	return nil, fmt.Errorf("unknown tool %q", name)
}

func (t *Tools) checkInventory(ctx context.Context, args map[string]any) (map[string]any, error) {
	search, _ := args["search"].(string)
	items, err := t.inventory.List(ctx, catalog.ItemFilter{Search: search})
	if err != nil {
		return nil, err
	}

	rows := make([]inventoryRow, 0, len(items))
	for _, it := range items {
		row := inventoryRow{
			ID:           it.ID,
			Name:         it.Name,
			Status:       string(it.Status),
			Stock:        it.Quantity,
			SellingPrice: it.SellingPrice.StringFixed(2),
			CostPrice:    it.CostPrice.StringFixed(2),
		}
		if it.Category != nil {
			row.Category = it.Category.Name
		}
		if it.SKU != nil {
			row.SKU = *it.SKU
		}
		rows = append(rows, row)
	}

	raw, err := json.Marshal(rows)
	if err != nil {
		return nil, err
	}
	return map[string]any{"inventory": string(raw), "count": len(rows)}, nil
}

func (t *Tools) salesReport(ctx context.Context, args map[string]any) (map[string]any, error) {
	startStr, _ := args["start_date"].(string)
	endStr, _ := args["end_date"].(string)

	start, err1 := time.ParseInLocation("2006-01-02", strings.TrimSpace(startStr), t.loc)
	end, err2 := time.ParseInLocation("2006-01-02", strings.TrimSpace(endStr), t.loc)
	if err1 != nil || err2 != nil {
		return nil, fmt.Errorf("dates must be in YYYY-MM-DD format")
	}
	end = end.AddDate(0, 0, 1).Add(-time.Nanosecond)

	report, err := t.reports.SalesSummary(ctx, start, end)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"revenue":     money(report.TotalRevenue),
		"profit":      money(report.TotalProfit),
		"sales_count": report.TotalCount,
	}, nil
}

func (t *Tools) dashboardStats(ctx context.Context) (map[string]any, error) {
	s, err := t.reports.Stats(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"total_products":  s.TotalProducts,
		"total_stock":     s.TotalStock,
		"total_sold":      s.TotalSold,
		"total_revenue":   money(s.TotalRevenue),
		"total_profit":    money(s.TotalProfit),
		"today_revenue":   money(s.TodayRevenue),
		"today_profit":    money(s.TodayProfit),
		"low_stock_count": s.LowStockCount,
	}, nil
}

func money(d decimal.Decimal) string { return d.StringFixed(2) }
