package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	domainerr "github.com/amirhossein-jamali/client-portal/internal/domain/error"
	coreport "github.com/amirhossein-jamali/client-portal/internal/domain/port/core"
	"github.com/amirhossein-jamali/client-portal/internal/infrastructure/adapter/api/dto"
)

// ErrorHandler recovers from panics and turns errors that handlers attached with
// c.Error into the API error body when nothing has been written yet
func ErrorHandler(logger coreport.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			recovered := recover()
			if recovered == nil {
				return
			}

			logger.Error("Panic recovered in API request", map[string]any{
				"error":      fmt.Sprint(recovered),
				"path":       c.Request.URL.Path,
				"method":     c.Request.Method,
				"client_ip":  c.ClientIP(),
				"request_id": coreport.RequestIDFromContext(c.Request.Context()),
				"stack":      string(debug.Stack()),
			})

			// A stream that already sent headers can only be cut off
			if c.Writer.Written() {
				c.Abort()
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, dto.ErrorResponse{
				Code:    domainerr.ErrorCode(domainerr.ErrInternalServer),
				Message: "Internal server error",
			})
		}()

		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		err := c.Errors.Last().Err
		status := domainerr.HTTPStatus(err)
		message := err.Error()
		if status >= http.StatusInternalServerError {
			logger.Error("Request failed", map[string]any{
				"error":      err.Error(),
				"path":       c.Request.URL.Path,
				"request_id": coreport.RequestIDFromContext(c.Request.Context()),
			})
			message = "Internal server error"
		}
		c.JSON(status, dto.ErrorResponse{
			Code:    domainerr.ErrorCode(err),
			Message: message,
			Details: domainerr.DetailsOf(err),
		})
	}
}
