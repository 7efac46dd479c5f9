package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/salesdesk/backend/internal/interfaces/http/dto"
)

// BodySizeLimit rejects requests whose declared Content-Length exceeds
// maxBytes and caps the body reader so chunked requests cannot bypass
// the limit. A non-positive maxBytes disables the check.
func BodySizeLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxBytes <= 0 {
			c.Next()
			return
		}

		if c.Request.ContentLength > maxBytes {
			envelope := dto.NewErrorResponse(http.StatusRequestEntityTooLarge,
				fmt.Sprintf("Request body must not exceed %d bytes", maxBytes))
			c.AbortWithStatusJSON(envelope.StatusCode, envelope)
			return
		}

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
