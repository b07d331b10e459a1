package handlers

import (
	"net/http"

	"spark-ledger/internal/settings"

	"github.com/gin-gonic/gin"
)

type SettingsHandler struct {
	store *settings.Store
}

func NewSettingsHandler(store *settings.Store) *SettingsHandler {
	return &SettingsHandler{store: store}
}

func (h *SettingsHandler) Get(c *gin.Context) {
	values, err := h.store.All(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, values)
}

// Put upserts every key of a flat JSON object of strings.
func (h *SettingsHandler) Put(c *gin.Context) {
	var values map[string]string
	if err := c.ShouldBindJSON(&values); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Settings must be a JSON object of strings", "code": CodeValidation})
		return
	}
	if err := h.store.Put(c.Request.Context(), values); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Settings updated"})
}
