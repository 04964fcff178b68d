package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"taxrecon/internal/domain"
	"taxrecon/internal/logger"
)

// APIResponse is the standard envelope for all API responses.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
}

// APIError holds error details in the response.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// RespondOK sends a 200 success response.
func RespondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: data})
}

// RespondError sends an error response with the given status code.
func RespondError(c *gin.Context, status int, code, msg string) {
	c.JSON(status, APIResponse{
		Success: false,
		Error:   &APIError{Code: code, Message: msg},
	})
}

// MapDomainError translates domain errors to HTTP status codes and error codes.
func MapDomainError(err error) (status int, code, msg string) {
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized"
	case errors.Is(err, domain.ErrMissingInput):
		return http.StatusBadRequest, "MISSING_FILE", "tax_file and ledger_file are required"
	case errors.Is(err, domain.ErrUnsupportedFileType):
		return http.StatusBadRequest, "UNSUPPORTED_FILE_TYPE", "unsupported file type; allowed: xlsx, xlsm"
	case errors.Is(err, domain.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "file exceeds maximum allowed size"
	case errors.Is(err, domain.ErrUnknownReport):
		return http.StatusBadRequest, "UNKNOWN_REPORT", "unknown or unavailable report"
	case errors.Is(err, domain.ErrLedgerUnreadable):
		return http.StatusUnprocessableEntity, "LEDGER_UNREADABLE", causeMessage(err, domain.ErrLedgerUnreadable)
	case errors.Is(err, domain.ErrTaxSourceUnreadable):
		return http.StatusUnprocessableEntity, "TAX_SOURCE_UNREADABLE", causeMessage(err, domain.ErrTaxSourceUnreadable)
	case errors.Is(err, domain.ErrArchiveFailed):
		return http.StatusBadGateway, "ARCHIVE_FAILED", "report archive upload failed"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR", "an internal error occurred"
	}
}

// causeMessage returns the sentinel text and whatever cause follows it,
// dropping the "component.Operation:" prefixes wrapped around it.
func causeMessage(err, sentinel error) string {
	msg := err.Error()
	if i := strings.Index(msg, sentinel.Error()); i >= 0 {
		return msg[i:]
	}
	return sentinel.Error()
}

// HandleError maps a domain error and sends the appropriate error response.
func HandleError(c *gin.Context, err error) {
	status, code, msg := MapDomainError(err)
	if status >= 500 {
		log := logger.FromContext(c.Request.Context())
		log.Error().Err(err).Str("code", code).Msg("internal error")
	}
	RespondError(c, status, code, msg)
}
