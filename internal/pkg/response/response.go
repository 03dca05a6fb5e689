package response

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"railbook/internal/domain"
)

func Success(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, gin.H{
		"success": true,
		"data":    data,
	})
}

func Error(c *gin.Context, statusCode int, code string, message string) {
	c.JSON(statusCode, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

// CustomError writes an error envelope and aborts the handler chain.
func CustomError(c *gin.Context, statusCode int, code string, message string) {
	Error(c, statusCode, code, message)
	c.Abort()
}

func ErrorWithDetails(c *gin.Context, statusCode int, code string, message string, details any) {
	c.JSON(statusCode, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
			"details": details,
		},
	})
}

type errorKind struct {
	target error
	status int
	code   string
}

// Order matters: more specific kinds first.
var errorKinds = []errorKind{
	{domain.ErrValidation, http.StatusBadRequest, "VALIDATION_ERROR"},
	{domain.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
	{domain.ErrNoAvailability, http.StatusConflict, "NO_AVAILABILITY"},
	{domain.ErrAlreadyCancelled, http.StatusConflict, "ALREADY_CANCELLED"},
	{domain.ErrConcurrencyConflict, http.StatusConflict, "CONCURRENCY_CONFLICT"},
	{domain.ErrConflict, http.StatusConflict, "CONFLICT"},
	{domain.ErrPaymentTimeout, http.StatusGatewayTimeout, "PAYMENT_TIMEOUT"},
	{domain.ErrPaymentRequired, http.StatusPaymentRequired, "PAYMENT_REQUIRED"},
	{domain.ErrUnauthorized, http.StatusUnauthorized, "UNAUTHORIZED"},
	{domain.ErrForbidden, http.StatusForbidden, "FORBIDDEN"},
	{domain.ErrTooManyRequests, http.StatusTooManyRequests, "TOO_MANY_REQUESTS"},
}

// Status returns the HTTP status and stable code for err.
func Status(err error) (int, string) {
	for _, k := range errorKinds {
		if errors.Is(err, k.target) {
			return k.status, k.code
		}
	}
	return http.StatusInternalServerError, "INTERNAL_ERROR"
}

// FromError maps a domain error to the envelope. Unknown errors are logged and
// reported without internals.
func FromError(c *gin.Context, err error) {
	status, code := Status(err)
	if status == http.StatusInternalServerError {
		log.Printf("level=error msg=\"unhandled error\" method=%s path=%s user_id=%d err=%v",
			c.Request.Method, c.Request.URL.Path, c.GetInt64("user_id"), err)
		_ = c.Error(err)
		Error(c, status, code, "Internal server error")
		return
	}
	Error(c, status, code, err.Error())
}
