package server

import (
	"errors"
	"net/http"

	invoicedomain "github.com/autovisite/reportsvc/internal/invoice/domain"
	reportdomain "github.com/autovisite/reportsvc/internal/report/domain"
	"github.com/autovisite/reportsvc/internal/storage"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

var ErrInvalidRequest = errors.New("invalid_request")

// ErrorHandlingMiddleware renders the last handler error once, after the
// chain finishes. Handlers queue errors via AbortWithError.
func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, body := mapError(lastErr.Err)
		c.AbortWithStatusJSON(status, body)
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func mapError(err error) (int, errorResponse) {
	switch {
	case isValidationError(err):
		return http.StatusBadRequest, errorResponse{
			Error:   "invalid_request",
			Details: err.Error(),
		}
	case errors.Is(err, invoicedomain.ErrAlreadyPaid):
		return http.StatusBadRequest, errorResponse{
			Error:   "already_paid",
			Details: "invoice is already paid",
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorResponse{
			Error: "not_found",
		}
	default:
		return http.StatusInternalServerError, errorResponse{
			Error: "internal_error",
		}
	}
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, reportdomain.ErrInvalidRequest),
		errors.Is(err, invoicedomain.ErrInvalidRequest),
		errors.Is(err, invoicedomain.ErrInvalidStatus):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, reportdomain.ErrNotFound),
		errors.Is(err, reportdomain.ErrFileNotFound),
		errors.Is(err, invoicedomain.ErrNotFound),
		errors.Is(err, invoicedomain.ErrFileNotFound),
		errors.Is(err, storage.ErrFileNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

// classifyErrorForLog feeds the request logger's error_type/error_code fields.
func classifyErrorForLog(err error) (string, string) {
	switch {
	case isValidationError(err):
		return "validation", "invalid_request"
	case errors.Is(err, invoicedomain.ErrAlreadyPaid):
		return "validation", "already_paid"
	case isNotFoundError(err):
		return "not_found", "not_found"
	default:
		return "internal", "internal_error"
	}
}
