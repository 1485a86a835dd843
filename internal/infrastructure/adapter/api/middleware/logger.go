package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/amirhossein-jamali/client-portal/internal/domain/entity"
	coreport "github.com/amirhossein-jamali/client-portal/internal/domain/port/core"
)

// RequestIDHeader carries the request id in and out of the API
const RequestIDHeader = "X-Request-ID"

// Probe routes hit every few seconds; they are only logged at debug level
var quietRoutes = map[string]bool{"/healthz": true, "/readyz": true}

// RequestID makes sure every request has an id and exposes it to the use cases
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(RequestIDHeader, requestID)
		c.Request = c.Request.WithContext(coreport.WithRequestID(c.Request.Context(), requestID))
		c.Next()
	}
}

// Logger writes one access line per request once the handler returns. For the
// notification stream that is when the client goes away, so the line also says
// how long the stream stayed open.
func Logger(logger coreport.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		route := c.FullPath()
		fields := map[string]any{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"route":      route,
			"status":     status,
			"latency_ms": time.Since(start).Milliseconds(),
			"ip":         c.ClientIP(),
			"request_id": coreport.RequestIDFromContext(c.Request.Context()),
			"bytes":      c.Writer.Size(),
		}
		if identity, ok := c.Get(identityKey); ok {
			if id, ok := identity.(entity.Identity); ok {
				fields["caller_id"] = id.ID
			}
		}
		if len(c.Errors) > 0 {
			fields["errors"] = c.Errors.Errors()
		}

		message := "Request processed"
		if strings.HasPrefix(c.Writer.Header().Get("Content-Type"), "text/event-stream") {
			message = "Stream closed"
		}

		switch {
		case status >= http.StatusInternalServerError:
			logger.Error(message, fields)
		case quietRoutes[route]:
			logger.Debug(message, fields)
		case status >= http.StatusBadRequest:
			logger.Warn(message, fields)
		default:
			logger.Info(message, fields)
		}
	}
}
