package handlers

import (
	"net/http"
	"time"

	"spark-ledger/internal/apperr"
	"spark-ledger/internal/reports"

	"github.com/gin-gonic/gin"
)

type ReportHandler struct {
	reporter *reports.Reporter
	loc      *time.Location
}

func NewReportHandler(reporter *reports.Reporter, loc *time.Location) *ReportHandler {
	if loc == nil {
		loc = time.Local
	}
	return &ReportHandler{reporter: reporter, loc: loc}
}

// --- GET: /api/stats ---
func (h *ReportHandler) Stats(c *gin.Context) {
	stats, err := h.reporter.Stats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// --- GET: /api/reports/sales?from=&to= ---
// Both bounds are required here, unlike the ledger list.
func (h *ReportHandler) SalesSummary(c *gin.Context) {
	from, err := parseBound(c.Query("from"), h.loc, false)
	if err != nil || from == nil {
		respondError(c, apperr.Invalid("from", "expected RFC3339 or YYYY-MM-DD"))
		return
	}
	to, err := parseBound(c.Query("to"), h.loc, true)
	if err != nil || to == nil {
		respondError(c, apperr.Invalid("to", "expected RFC3339 or YYYY-MM-DD"))
		return
	}

	summary, err := h.reporter.SalesSummary(c.Request.Context(), *from, *to)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// --- GET: /api/reports/valuation ---
// Total monetary value of the physical inventory at cost
func (h *ReportHandler) Valuation(c *gin.Context) {
	v, err := h.reporter.Valuation(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}
