package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"spark-ledger/internal/apperr"
	"spark-ledger/internal/uploads"

	"github.com/gin-gonic/gin"
)

// Error codes returned in the "code" field of error bodies
const (
	CodeNotFound          = "NOT_FOUND"
	CodeInvalidQuantity   = "INVALID_QUANTITY"
	CodeInsufficientStock = "INSUFFICIENT_STOCK"
	CodeValidation        = "VALIDATION_ERROR"
	CodeTransactionFailed = "TRANSACTION_FAILED"
	CodeDuplicateRequest  = "DUPLICATE_REQUEST"
	CodeUnauthorized      = "UNAUTHORIZED"
	CodeUnavailable       = "UNAVAILABLE"
	CodeInternal          = "INTERNAL"
)

// respondError maps an error from the domain packages onto an HTTP status
// and a {"error","code"} body.
func respondError(c *gin.Context, err error) {
	status, code, msg := classify(err)
	if status >= http.StatusInternalServerError {
		log.Printf("handlers: %s %s: %v", c.Request.Method, c.FullPath(), err)
	}
	c.JSON(status, gin.H{"error": msg, "code": code})
}

func classify(err error) (int, string, string) {
	var verr *apperr.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, CodeValidation, verr.Error()
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound, CodeNotFound, "Not found"
	case errors.Is(err, apperr.ErrInvalidQuantity):
		return http.StatusBadRequest, CodeInvalidQuantity, apperr.ErrInvalidQuantity.Error()
	case errors.Is(err, apperr.ErrInsufficientStock):
		return http.StatusConflict, CodeInsufficientStock, "Insufficient stock"
	case errors.Is(err, apperr.ErrDuplicateRequest):
		return http.StatusConflict, CodeDuplicateRequest, "This request was already submitted"
	case errors.Is(err, apperr.ErrTransactionFailed):
		return http.StatusServiceUnavailable, CodeTransactionFailed, "The sale could not be committed, please retry"
	case errors.Is(err, uploads.ErrNotImage), errors.Is(err, uploads.ErrTooLarge):
		return http.StatusBadRequest, CodeValidation, err.Error()
	}
	return http.StatusInternalServerError, CodeInternal, "Server error"
}

// parseID reads a positive numeric path parameter.
func parseID(c *gin.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, apperr.Invalid(name, "must be a positive integer")
	}
	return uint(id), nil
}
