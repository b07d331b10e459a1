package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Assistant answers a free-form question about the store.
type Assistant interface {
	Ask(ctx context.Context, message string) (string, error)
}

type AIHandler struct {
	assistant Assistant
}

// NewAIHandler accepts a nil assistant; /api/ask then reports it as
// unavailable.
func NewAIHandler(assistant Assistant) *AIHandler {
	return &AIHandler{assistant: assistant}
}

type AskRequest struct {
	Message string `json:"message" binding:"required"`
}

func (h *AIHandler) Ask(c *gin.Context) {
	if h.assistant == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Assistant is not configured (GEMINI_API_KEY)", "code": CodeUnavailable})
		return
	}

	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Message is required", "code": CodeValidation})
		return
	}

	reply, err := h.assistant.Ask(c.Request.Context(), req.Message)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reply": reply})
}
