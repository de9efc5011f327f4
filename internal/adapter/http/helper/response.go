package helper

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"todoapi/internal/adapter/http/validation"
	"todoapi/internal/core/model/response"
)

// SendSuccess wraps data in the {"data": ...} envelope.
func SendSuccess(c *gin.Context, statusCode int, data any) {
	c.JSON(statusCode, response.SuccessResponse{Data: data})
}

func SendNoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// SendError writes {"error": {"code", "errors", "details"}}. details is optional.
func SendError(c *gin.Context, statusCode int, code string, errs []response.ValidationError, details ...any) {
	body := response.ErrorResponse{
		Error: response.ResponseError{Code: code, Errors: errs},
	}

	if len(details) > 0 {
		body.Error.Details = details[0]
	}

	c.JSON(statusCode, body)
}

func sendFieldError(c *gin.Context, statusCode int, code, field, message string, details ...any) {
	SendError(c, statusCode, code, []response.ValidationError{{Field: field, Message: message}}, details...)
}

func SendValidationError(c *gin.Context, err error) {
	SendError(c, http.StatusBadRequest, "VALIDATION_ERROR", validation.FormatValidationErrors(err))
}

func SendBadRequestError(c *gin.Context, field string, message string) {
	sendFieldError(c, http.StatusBadRequest, "BAD_REQUEST", field, message)
}

func SendNotFoundError(c *gin.Context, message string) {
	sendFieldError(c, http.StatusNotFound, "NOT_FOUND", "resource", message)
}

func SendTooManyRequestsError(c *gin.Context, message string, retryAfter int) {
	sendFieldError(c, http.StatusTooManyRequests, "RATE_LIMITED", "rate_limit", message, gin.H{"retry_after": retryAfter})
}

func SendInternalError(c *gin.Context, message string, details ...any) {
	sendFieldError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "server", message, details...)
}

// SendServiceUnavailableError reports a storage failure the client may retry.
func SendServiceUnavailableError(c *gin.Context, message string) {
	sendFieldError(c, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "storage", message)
}
