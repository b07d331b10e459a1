package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"math"
	"net/http"
	"strings"
	"time"

	"spark-ledger/internal/apperr"
	"spark-ledger/internal/cache"
	"spark-ledger/internal/sales"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// IdempotencyHeader lets a client resubmit a sale without recording it twice.
const IdempotencyHeader = "Idempotency-Key"

type SaleHandler struct {
	engine *sales.Engine
	ledger *sales.Ledger
	guard  cache.IdempotencyGuard // nil disables the header
	loc    *time.Location
}

func NewSaleHandler(engine *sales.Engine, ledger *sales.Ledger, guard cache.IdempotencyGuard, loc *time.Location) *SaleHandler {
	if loc == nil {
		loc = time.Local
	}
	return &SaleHandler{engine: engine, ledger: ledger, guard: guard, loc: loc}
}

// SaleRequest defines what the admin console sends us
type SaleRequest struct {
	ProductID     json.Number `json:"product_id"`
	Quantity      json.Number `json:"quantity"`
	CustomerName  string      `json:"customer_name"`
	CustomerPhone string      `json:"customer_phone"`
	Notes         string      `json:"notes"`
}

// --- POST: /api/sales ---
func (h *SaleHandler) Record(c *gin.Context) {
	var req SaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "code": CodeValidation})
		return
	}

	itemID, err := req.ProductID.Int64()
	if err != nil || itemID <= 0 {
		respondError(c, apperr.Invalid("product_id", "must be a positive integer"))
		return
	}
	qty := parseQuantity(req.Quantity)

	ctx := c.Request.Context()
	key := strings.TrimSpace(c.GetHeader(IdempotencyHeader))
	if key != "" && h.guard != nil {
		ok, err := h.guard.Claim(ctx, key)
		if err != nil {
			respondError(c, err)
			return
		}
		if !ok {
			respondError(c, apperr.ErrDuplicateRequest)
			return
		}
	}

	record, err := h.engine.RecordSale(ctx, sales.SaleRequest{
		ItemID:   uint(itemID),
		Quantity: qty,
		Customer: sales.Customer{
			Name:  strings.TrimSpace(req.CustomerName),
			Phone: strings.TrimSpace(req.CustomerPhone),
			Notes: req.Notes,
		},
	})
	if err != nil {
		if key != "" && h.guard != nil {
			// The request context may already be gone; the key must still be freed.
			if rerr := h.guard.Release(context.WithoutCancel(ctx), key); rerr != nil {
				log.Printf("handlers: release idempotency key %q: %v", key, rerr)
			}
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, record)
}

// --- GET: /api/sales?from=&to= ---
// Bounds accept RFC3339 or YYYY-MM-DD; a bare "to" date covers that whole
// day in the store's timezone.
func (h *SaleHandler) List(c *gin.Context) {
	var f sales.LedgerFilter
	var err error
	if f.From, err = parseBound(c.Query("from"), h.loc, false); err != nil {
		respondError(c, apperr.Invalid("from", "%v", err))
		return
	}
	if f.To, err = parseBound(c.Query("to"), h.loc, true); err != nil {
		respondError(c, apperr.Invalid("to", "%v", err))
		return
	}

	records, err := h.ledger.List(c.Request.Context(), f)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, records)
}

const dateLayout = "2006-01-02"

func parseBound(raw string, loc *time.Location, endOfDay bool) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	day, err := time.ParseInLocation(dateLayout, raw, loc)
	if err != nil {
		return nil, errBadDate
	}
	if endOfDay {
		day = day.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	return &day, nil
}

var errBadDate = errors.New("expected RFC3339 or YYYY-MM-DD")

// parseQuantity accepts any JSON number with an integral value, so 2 and 2.0
// both mean two units. Fractional or missing quantities become 0, letting
// the engine still report an unknown item before the bad quantity. Values
// beyond any stock level are clamped rather than wrapped.
func parseQuantity(n json.Number) int {
	d, err := decimal.NewFromString(n.String())
	if err != nil || !d.IsInteger() {
		return 0
	}
	switch {
	case d.GreaterThan(decimal.NewFromInt(math.MaxInt)):
		return math.MaxInt
	case d.LessThan(decimal.NewFromInt(-1)):
		return -1
	}
	return int(d.IntPart())
}
