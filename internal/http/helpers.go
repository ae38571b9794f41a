package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Etherea7/bible-study-scribby-sub000/internal/llm"
	"github.com/Etherea7/bible-study-scribby-sub000/internal/passage"
	"github.com/Etherea7/bible-study-scribby-sub000/internal/studies"
)

// --- Response Types ---

// ErrorResponse is the standard error response format for all API errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`    // machine-readable error code
	Hint    string `json:"hint,omitempty"`    // what the user can do about it
	Details any    `json:"details,omitempty"` // additional context (validation errors, etc.)
}

// SuccessResponse is a standard success response with optional data.
type SuccessResponse struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// Error codes
const (
	CodeBadRequest      = "BAD_REQUEST"
	CodeValidation      = "VALIDATION_FAILED"
	CodeNotFound        = "NOT_FOUND"
	CodeRateLimited     = "RATE_LIMITED"
	CodePaymentRequired = "PAYMENT_REQUIRED"
	CodeUnauthorized    = "UPSTREAM_UNAUTHORIZED"
	CodeNotConfigured   = "NOT_CONFIGURED"
	CodeUpstream        = "UPSTREAM_ERROR"
	CodeUnsupported     = "UNSUPPORTED_VERSION"
	CodeInternal        = "INTERNAL"
)

// --- Error Response Helpers ---

// respondBadRequest sends a 400 Bad Request response.
func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: message, Code: CodeBadRequest})
}

// respondNotFound sends a 404 Not Found response.
func respondNotFound(c *gin.Context, resource string) {
	c.JSON(http.StatusNotFound, ErrorResponse{Error: resource + " not found", Code: CodeNotFound})
}

// respondInternalError logs the error and sends a 500 response without
// exposing the cause.
func respondInternalError(c *gin.Context, log *zap.Logger, err error, context string) {
	log.Error("internal error", zap.String("context", context), zap.Error(err))
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error", Code: CodeInternal})
}

// respondError sends an error response with the given status code.
func respondError(c *gin.Context, status int, resp ErrorResponse) {
	c.JSON(status, resp)
}

// respondValidation reports every problem in an invalid study.
func respondValidation(c *gin.Context, err error) {
	resp := ErrorResponse{Error: err.Error(), Code: CodeValidation}
	var ve *studies.ValidationError
	if errors.As(err, &ve) {
		resp.Error = "study failed validation"
		resp.Details = ve.Problems
	}
	c.JSON(http.StatusBadRequest, resp)
}

// respondUpstream maps LLM and passage failures onto status codes with a hint
// the user can act on.
func respondUpstream(c *gin.Context, log *zap.Logger, err error) {
	resp := ErrorResponse{Error: err.Error(), Code: CodeUpstream, Hint: llm.Hint(err)}
	status := http.StatusBadGateway

	switch {
	case errors.Is(err, studies.ErrInvalidRequest):
		status, resp.Code = http.StatusBadRequest, CodeBadRequest
	case errors.Is(err, llm.ErrRateLimited), errors.Is(err, passage.ErrRateLimited):
		status, resp.Code = http.StatusTooManyRequests, CodeRateLimited
		if resp.Hint == "" {
			resp.Hint = "Wait a minute and retry."
		}
	case errors.Is(err, llm.ErrPaymentRequired):
		status, resp.Code = http.StatusPaymentRequired, CodePaymentRequired
	case errors.Is(err, llm.ErrUnauthorized), errors.Is(err, passage.ErrInvalidKey):
		resp.Code = CodeUnauthorized
	case errors.Is(err, llm.ErrUnknownProvider):
		status, resp.Code = http.StatusBadRequest, CodeBadRequest
	case errors.Is(err, llm.ErrNotConfigured), errors.Is(err, llm.ErrNoProviders), errors.Is(err, passage.ErrNotConfigured):
		status, resp.Code = http.StatusServiceUnavailable, CodeNotConfigured
	case errors.Is(err, passage.ErrNotFound):
		status, resp.Code = http.StatusNotFound, CodeNotFound
	}

	if status >= http.StatusInternalServerError {
		log.Warn("upstream request failed", zap.Int("status", status), zap.Error(err))
	}
	c.JSON(status, resp)
}

// --- Success Response Helpers ---

// respondSuccess sends a 200 OK response with a message.
func respondSuccess(c *gin.Context, message string) {
	c.JSON(http.StatusOK, SuccessResponse{Message: message})
}

// respondCreated sends a 201 Created response with data.
func respondCreated(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, data)
}

// respondAccepted sends a 202 Accepted response (for async operations).
func respondAccepted(c *gin.Context, message string, data any) {
	c.JSON(http.StatusAccepted, SuccessResponse{Message: message, Data: data})
}

// --- Parameter Parsing ---

// parseLimitQuery reads an optional non-negative limit query parameter.
func parseLimitQuery(c *gin.Context, fallback int) (int, bool) {
	raw := c.Query("limit")
	if raw == "" {
		return fallback, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		respondBadRequest(c, "invalid limit")
		return 0, false
	}
	return limit, true
}

// isNotFound reports whether a store error means the row does not exist.
func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
