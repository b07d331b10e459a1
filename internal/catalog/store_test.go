package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"spark-ledger/internal/apperr"
	"spark-ledger/internal/database/dbtest"
	"spark-ledger/internal/models"
	"spark-ledger/internal/sales"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type recordingRemover struct {
	removed []string
	fail    bool
}

func (r *recordingRemover) Remove(ref string) error {
	r.removed = append(r.removed, ref)
	if r.fail {
		return errors.New("disk gone")
	}
	return nil
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func intp(v int) *int { return &v }

func decp(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func statusp(s models.ItemStatus) *models.ItemStatus { return &s }

func ring(name string) ItemInput {
	return ItemInput{
		Name:          name,
		Description:   "sterling silver",
		OriginalPrice: dec("1000"),
		SellingPrice:  decp("900"),
		CostPrice:     dec("400"),
		Quantity:      intp(5),
	}
}

func TestCreate_AppliesDiscount(t *testing.T) {
	s := NewStore(dbtest.New(t), nil)
	in := ring("Ring")
	in.DiscountPercentage = dec("20")

	item, err := s.Create(context.Background(), in)
	require.NoError(t, err)

	assert.NotZero(t, item.ID)
	assert.True(t, item.SellingPrice.Equal(dec("800")), "selling price %s", item.SellingPrice)
	assert.Equal(t, models.StatusAvailable, item.Status)
	assert.Equal(t, 5, item.Quantity)
	assert.Equal(t, []string{}, item.Images)
}

func TestCreate_ExplicitPriceWithoutDiscount(t *testing.T) {
	s := NewStore(dbtest.New(t), nil)

	item, err := s.Create(context.Background(), ring("Ring"))
	require.NoError(t, err)
	assert.True(t, item.SellingPrice.Equal(dec("900")))

	in := ring("Pendant")
	in.SellingPrice = nil
	item, err = s.Create(context.Background(), in)
	require.NoError(t, err)
	assert.True(t, item.SellingPrice.Equal(dec("1000")), "defaults to the original price")
}

func TestCreate_ZeroQuantityIsSoldOut(t *testing.T) {
	s := NewStore(dbtest.New(t), nil)
	in := ring("Ring")
	in.Quantity = intp(0)

	item, err := s.Create(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, models.StatusSoldOut, item.Status)
}

func TestCreate_Validation(t *testing.T) {
	s := NewStore(dbtest.New(t), nil)
	missingCategory := uint(99)

	tests := []struct {
		name   string
		mutate func(*ItemInput)
		field  string
	}{
		{"blank name", func(in *ItemInput) { in.Name = "  " }, "name"},
		{"zero original price", func(in *ItemInput) { in.OriginalPrice = decimal.Zero }, "original_price"},
		{"negative cost", func(in *ItemInput) { in.CostPrice = dec("-1") }, "cost_price"},
		{"discount over 100", func(in *ItemInput) { in.DiscountPercentage = dec("101") }, "discount_percentage"},
		{"negative quantity", func(in *ItemInput) { in.Quantity = intp(-1) }, "quantity"},
		{"unknown status", func(in *ItemInput) { in.Status = statusp("archived") }, "status"},
		{"missing category", func(in *ItemInput) { in.CategoryID = &missingCategory }, "category_id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := ring("Ring")
			tt.mutate(&in)
			_, err := s.Create(context.Background(), in)

			var verr *apperr.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
			assert.ErrorIs(t, err, apperr.ErrValidation)
		})
	}
}

func TestCreate_DuplicateSKU(t *testing.T) {
	s := NewStore(dbtest.New(t), nil)
	in := ring("Ring")
	in.SKU = "RG-001"

	_, err := s.Create(context.Background(), in)
	require.NoError(t, err)

	_, err = s.Create(context.Background(), in)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	// blank SKUs are stored as NULL and never collide
	in.SKU = ""
	_, err = s.Create(context.Background(), in)
	require.NoError(t, err)
	_, err = s.Create(context.Background(), in)
	require.NoError(t, err)
}

func TestUpdate_StatusResolution(t *testing.T) {
	ctx := context.Background()
	s := NewStore(dbtest.New(t), nil)

	item, err := s.Create(ctx, ring("Ring"))
	require.NoError(t, err)

	t.Run("quantity zero derives sold out", func(t *testing.T) {
		in := ring("Ring")
		in.Quantity = intp(0)
		got, err := s.Update(ctx, item.ID, in)
		require.NoError(t, err)
		assert.Equal(t, models.StatusSoldOut, got.Status)
	})

	t.Run("restock derives available", func(t *testing.T) {
		in := ring("Ring")
		in.Quantity = intp(3)
		got, err := s.Update(ctx, item.ID, in)
		require.NoError(t, err)
		assert.Equal(t, models.StatusAvailable, got.Status)
		assert.Equal(t, 3, got.Quantity)
	})

	t.Run("explicit status wins", func(t *testing.T) {
		in := ring("Ring")
		in.Quantity = intp(8)
		in.Status = statusp(models.StatusHidden)
		got, err := s.Update(ctx, item.ID, in)
		require.NoError(t, err)
		assert.Equal(t, models.StatusHidden, got.Status)
	})

	t.Run("no quantity keeps stock and status", func(t *testing.T) {
		in := ring("Ring renamed")
		in.Quantity = nil
		got, err := s.Update(ctx, item.ID, in)
		require.NoError(t, err)
		assert.Equal(t, models.StatusHidden, got.Status)
		assert.Equal(t, 8, got.Quantity)
		assert.Equal(t, "Ring renamed", got.Name)
	})
}

func TestUpdate_ReappliesPricingAndReplacesFields(t *testing.T) {
	ctx := context.Background()
	s := NewStore(dbtest.New(t), nil)

	in := ring("Ring")
	in.SKU = "RG-1"
	in.Images = []string{"/uploads/a.jpg"}
	item, err := s.Create(ctx, in)
	require.NoError(t, err)

	up := ring("Ring")
	up.DiscountPercentage = dec("25")
	up.Images = []string{"/uploads/a.jpg", "/uploads/b.png"}
	got, err := s.Update(ctx, item.ID, up)
	require.NoError(t, err)

	assert.True(t, got.SellingPrice.Equal(dec("750")))
	assert.Nil(t, got.SKU, "omitted SKU is cleared on full replace")
	assert.Equal(t, []string{"/uploads/a.jpg", "/uploads/b.png"}, got.Images)

	up.DiscountPercentage = decimal.Zero
	up.SellingPrice = decp("990")
	got, err = s.Update(ctx, item.ID, up)
	require.NoError(t, err)
	assert.True(t, got.SellingPrice.Equal(dec("990")))
}

func TestUpdate_WithoutQuantityKeepsSoldStock(t *testing.T) {
	ctx := context.Background()
	db := dbtest.New(t)
	s := NewStore(db, nil)

	in := ring("Ring")
	in.Quantity = intp(1)
	item, err := s.Create(ctx, in)
	require.NoError(t, err)

	_, err = sales.NewEngine(db, nil).RecordSale(ctx, sales.SaleRequest{ItemID: item.ID, Quantity: 1})
	require.NoError(t, err)

	edit := ring("Ring polished")
	edit.Quantity = nil
	got, err := s.Update(ctx, item.ID, edit)
	require.NoError(t, err)

	assert.Equal(t, "Ring polished", got.Name)
	assert.Equal(t, 0, got.Quantity)
	assert.Equal(t, 1, got.SoldQuantity)
	assert.Equal(t, models.StatusSoldOut, got.Status)

	var records int64
	require.NoError(t, db.Model(&models.SaleRecord{}).Count(&records).Error)
	assert.EqualValues(t, 1, records)
}

// A sale that lands between Update's read and its write must survive the
// write.
func TestUpdate_SaleBetweenReadAndWrite(t *testing.T) {
	ctx := context.Background()
	db := dbtest.New(t)
	s := NewStore(db, nil)

	in := ring("Ring")
	in.Quantity = intp(1)
	item, err := s.Create(ctx, in)
	require.NoError(t, err)

	fired := false
	err = db.Callback().Update().Before("gorm:update").Register("test:interleaved_sale", func(tx *gorm.DB) {
		if fired || tx.Statement.Table != "items" {
			return
		}
		fired = true
		_, err := tx.Statement.ConnPool.ExecContext(tx.Statement.Context,
			"UPDATE items SET quantity = 0, sold_quantity = 1, status = ? WHERE id = ?",
			string(models.StatusSoldOut), item.ID)
		if err != nil {
			tx.AddError(err)
		}
	})
	require.NoError(t, err)

	edit := ring("Ring polished")
	edit.Quantity = nil
	got, err := s.Update(ctx, item.ID, edit)
	require.NoError(t, err)
	require.True(t, fired)

	assert.Equal(t, "Ring polished", got.Name)
	assert.Equal(t, 0, got.Quantity, "stock sold during the edit is not restored")
	assert.Equal(t, 1, got.SoldQuantity)
	assert.Equal(t, models.StatusSoldOut, got.Status)
}

func TestUpdate_NotFound(t *testing.T) {
	s := NewStore(dbtest.New(t), nil)
	_, err := s.Update(context.Background(), 42, ring("Ring"))
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestGet_NotFound(t *testing.T) {
	s := NewStore(dbtest.New(t), nil)
	_, err := s.Get(context.Background(), 42)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestList_FiltersAndOrder(t *testing.T) {
	ctx := context.Background()
	s := NewStore(dbtest.New(t), nil)

	rings, err := s.CreateCategory(ctx, CategoryInput{Name: "Rings"})
	require.NoError(t, err)

	mk := func(name, desc string, cat *uint, status *models.ItemStatus) *models.Item {
		in := ring(name)
		in.Description = desc
		in.CategoryID = cat
		in.Status = status
		item, err := s.Create(ctx, in)
		require.NoError(t, err)
		return item
	}

	gold := mk("Gold Band", "classic", &rings.ID, nil)
	silver := mk("Silver Band", "Polished GOLD plating", &rings.ID, statusp(models.StatusHidden))
	chain := mk("Chain", "long", nil, nil)

	ids := func(items []models.Item) []uint {
		out := []uint{}
		for _, it := range items {
			out = append(out, it.ID)
		}
		return out
	}

	all, err := s.List(ctx, ItemFilter{})
	require.NoError(t, err)
	assert.Equal(t, []uint{chain.ID, silver.ID, gold.ID}, ids(all), "newest first")

	byCat, err := s.List(ctx, ItemFilter{CategoryID: &rings.ID})
	require.NoError(t, err)
	assert.Equal(t, []uint{silver.ID, gold.ID}, ids(byCat))
	require.NotNil(t, byCat[0].Category)
	assert.Equal(t, "Rings", byCat[0].Category.Name)

	bySearch, err := s.List(ctx, ItemFilter{Search: "gold"})
	require.NoError(t, err)
	assert.Equal(t, []uint{silver.ID, gold.ID}, ids(bySearch), "matches name or description, any case")

	combined, err := s.List(ctx, ItemFilter{Search: "gold", Status: models.StatusAvailable, CategoryID: &rings.ID})
	require.NoError(t, err)
	assert.Equal(t, []uint{gold.ID}, ids(combined))

	none, err := s.List(ctx, ItemFilter{Search: "platinum"})
	require.NoError(t, err)
	assert.Empty(t, none)
	assert.NotNil(t, none)
}

func TestDelete_KeepsLedgerAndReleasesImages(t *testing.T) {
	ctx := context.Background()
	db := dbtest.New(t)
	images := &recordingRemover{fail: true}
	s := NewStore(db, images)

	in := ring("Ring")
	in.Images = []string{"/uploads/a.jpg", "/uploads/b.jpg"}
	item, err := s.Create(ctx, in)
	require.NoError(t, err)

	sale := models.SaleRecord{
		ItemID:      &item.ID,
		ProductName: item.Name,
		Quantity:    1,
		UnitPrice:   item.SellingPrice,
		TotalPrice:  item.SellingPrice,
		SoldAt:      time.Now().UTC(),
	}
	require.NoError(t, db.Create(&sale).Error)

	require.NoError(t, s.Delete(ctx, item.ID), "image cleanup failures are not surfaced")
	assert.Equal(t, []string{"/uploads/a.jpg", "/uploads/b.jpg"}, images.removed)

	_, err = s.Get(ctx, item.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	var kept models.SaleRecord
	require.NoError(t, db.First(&kept, sale.ID).Error)
	assert.Nil(t, kept.ItemID)
	assert.Equal(t, "Ring", kept.ProductName)

	assert.ErrorIs(t, s.Delete(ctx, item.ID), apperr.ErrNotFound)
}
