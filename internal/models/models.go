package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ItemStatus is the storefront visibility/availability of an item.
type ItemStatus string

const (
	StatusAvailable ItemStatus = "available"
	StatusSoldOut   ItemStatus = "sold_out"
	StatusHidden    ItemStatus = "hidden"
)

// Valid reports whether s is one of the known statuses.
func (s ItemStatus) Valid() bool {
	switch s {
	case StatusAvailable, StatusSoldOut, StatusHidden:
		return true
	}
	return false
}

// User - an admin console account
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Email        string    `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Name         string    `gorm:"size:255" json:"name"`
	PasswordHash string    `gorm:"not null" json:"-"` // Never return this in JSON
	Role         string    `gorm:"size:20;not null;default:admin" json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// Category - a label items may point at. Deleting one never deletes items.
type Category struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:255;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// Item - the catalog entry and its stock
type Item struct {
	ID                 uint            `gorm:"primaryKey" json:"id"`
	Name               string          `gorm:"size:255;not null" json:"name"`
	Description        string          `gorm:"type:text" json:"description"`
	CategoryID         *uint           `gorm:"index" json:"category_id"`
	Category           *Category       `gorm:"constraint:OnDelete:SET NULL;" json:"category,omitempty"`
	OriginalPrice      decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"original_price"`
	SellingPrice       decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"selling_price"`
	CostPrice          decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"cost_price"`
	DiscountPercentage decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0" json:"discount_percentage"`
	Quantity           int             `gorm:"not null;default:0" json:"quantity"`
	SoldQuantity       int             `gorm:"not null;default:0" json:"sold_quantity"`
	SKU                *string         `gorm:"column:sku;uniqueIndex;size:100" json:"sku"`
	Status             ItemStatus      `gorm:"size:20;not null;default:available;index" json:"status"`
	Images             []string        `gorm:"serializer:json;type:text" json:"images"`
	CreatedAt          time.Time       `gorm:"index" json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// SaleRecord - one immutable ledger row. Financial fields are a snapshot
// of the item at the moment of sale.
type SaleRecord struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	ItemID        *uint           `gorm:"index" json:"item_id"`
	Item          *Item           `gorm:"constraint:OnDelete:SET NULL;" json:"-"`
	ProductName   string          `gorm:"size:255" json:"product_name"`
	Quantity      int             `gorm:"not null" json:"quantity"`
	UnitPrice     decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"unit_price"`
	TotalPrice    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_price"`
	UnitCost      decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"unit_cost"`
	TotalCost     decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"total_cost"`
	Profit        decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"profit"`
	CustomerName  string          `gorm:"size:255" json:"customer_name"`
	CustomerPhone string          `gorm:"size:50" json:"customer_phone"`
	Notes         string          `gorm:"type:text" json:"notes"`
	SoldAt        time.Time       `gorm:"index;not null" json:"sold_at"`
}

// Setting - business display info (name, phone numbers, address)
type Setting struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	Key       string    `gorm:"column:key;uniqueIndex;size:255;not null" json:"key"`
	Value     string    `gorm:"type:text" json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}
