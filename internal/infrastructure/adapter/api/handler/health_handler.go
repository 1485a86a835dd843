package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/amirhossein-jamali/client-portal/internal/infrastructure/adapter/database"
)

// DatabaseProbe reports database reachability and pool pressure
type DatabaseProbe interface {
	Ping(ctx context.Context) error
	PoolStats() (database.PoolSnapshot, error)
}

// HealthHandler answers liveness and readiness probes
type HealthHandler struct {
	db DatabaseProbe
}

// NewHealthHandler creates a new health handler instance
func NewHealthHandler(db DatabaseProbe) *HealthHandler {
	return &HealthHandler{db: db}
}

// Live handles GET /healthz
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready handles GET /readyz. A saturated pool that is queueing callers is
// reported as degraded but stays ready.
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "database": err.Error()})
		return
	}

	body := gin.H{"status": "ok", "database": "ok"}
	if pool, err := h.db.PoolStats(); err == nil {
		body["pool"] = pool
		if pool.Saturation() >= 1 && pool.NewWaits > 0 {
			body["status"] = "degraded"
		}
	}
	c.JSON(http.StatusOK, body)
}
