// api/middleware/error_handler.go
package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10" // Import validator for binding errors

	"eventgate/internal/ingest"
	"eventgate/internal/logger"
)

var (
	customLog = logger.NewLogger()
)

// ErrorHandler creates a Gin middleware for centralized error handling.
// Handlers attach errors with c.Error; this maps the last one to an HTTP
// status and a JSON body.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err

		customLog.Printf("[ErrorHandler] Detected error: %v | Type: %T", err, err)

		var statusCode int
		var userMessage string

		switch {
		case errors.Is(err, ingest.ErrUnknownApp),
			errors.Is(err, ingest.ErrUnknownTable):
			statusCode = http.StatusNotFound
			userMessage = err.Error()
		case errors.Is(err, ingest.ErrInvalidSecret),
			errors.Is(err, ingest.ErrTableNotPermitted):
			statusCode = http.StatusForbidden
			userMessage = err.Error()
		case errors.Is(err, ingest.ErrMissingTableSelector):
			statusCode = http.StatusBadRequest
			userMessage = err.Error()
		default:
			if validationErrs, ok := err.(validator.ValidationErrors); ok {
				statusCode = http.StatusBadRequest
				userMessage = "Validation failed. Please check your input."
				for _, fe := range validationErrs {
					customLog.Printf("Validation Error: Field %s failed on %s", fe.Field(), fe.Tag())
				}
				break
			}
			statusCode = http.StatusInternalServerError
			userMessage = "An unexpected internal server error occurred."
			customLog.Warnf("Unhandled error type: %T, Error: %v", err, err)
		}

		if !c.Writer.Written() {
			c.AbortWithStatusJSON(statusCode, gin.H{"error": userMessage})
		} else {
			customLog.Warnln("[ErrorHandler] Warning: Response already written before handling error.")
		}
	}
}
