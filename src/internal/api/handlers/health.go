package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/casapps/cascontacts/src/internal/cache"
	"github.com/casapps/cascontacts/src/internal/database"
)

// HealthHandler reports liveness
type HealthHandler struct {
	db      *gorm.DB
	cache   *cache.Manager
	version string
	started time.Time
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db *gorm.DB, cacheManager *cache.Manager, version string) *HealthHandler {
	return &HealthHandler{
		db:      db,
		cache:   cacheManager,
		version: version,
		started: time.Now(),
	}
}

// Health handles GET /health
func (h *HealthHandler) Health(c echo.Context) error {
	status := http.StatusOK
	dbStatus := "ok"
	if err := database.Ping(h.db); err != nil {
		status = http.StatusServiceUnavailable
		dbStatus = "unavailable"
	}

	overall := "healthy"
	if status != http.StatusOK {
		overall = "unhealthy"
	}

	return c.JSON(status, map[string]interface{}{
		"status":   overall,
		"version":  h.version,
		"uptime":   time.Since(h.started).Round(time.Second).String(),
		"database": dbStatus,
		"cache":    h.cache.Backend(),
	})
}
