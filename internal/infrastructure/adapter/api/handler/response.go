package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	domainerr "github.com/amirhossein-jamali/client-portal/internal/domain/error"
	coreport "github.com/amirhossein-jamali/client-portal/internal/domain/port/core"
	"github.com/amirhossein-jamali/client-portal/internal/infrastructure/adapter/api/dto"
)

// writeError answers with the status and code the domain error maps to.
// Server-side failures never leak their message to the caller.
func writeError(c *gin.Context, logger coreport.Logger, err error) {
	status := domainerr.HTTPStatus(err)
	_ = c.Error(err)

	fields := map[string]any{
		"error":      err.Error(),
		"path":       c.FullPath(),
		"status":     status,
		"request_id": coreport.RequestIDFromContext(c.Request.Context()),
	}

	message := err.Error()
	switch {
	case status == http.StatusBadGateway:
		message = "Payment gateway unavailable"
		logger.Error("Gateway request failed", fields)
	case status >= http.StatusInternalServerError:
		message = "Internal server error"
		logger.Error("Request failed", fields)
	default:
		logger.Debug("Request rejected", fields)
	}

	c.JSON(status, dto.ErrorResponse{
		Code:    domainerr.ErrorCode(err),
		Message: message,
		Details: domainerr.DetailsOf(err),
	})
}

// writeBindError answers a request whose body could not be decoded
func writeBindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, dto.ErrorResponse{
		Code:    domainerr.ErrorCode(domainerr.ErrInvalidRequest),
		Message: "Invalid request format: " + err.Error(),
	})
}
