package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// HealthHandler reports liveness and readiness. Readiness checks both
// stores: the destination we write to and the read-only source we
// replicate from.
type HealthHandler struct {
	Destination *gorm.DB
	Source      *gorm.DB
}

func (h *HealthHandler) Register(r *gin.Engine) {
	r.GET("/healthz", h.health)
	r.GET("/readyz", h.ready)
}

// @Summary Health check
// @Tags health
// @Success 200 {object} map[string]string
// @Router /healthz [get]
func (h *HealthHandler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// @Summary Readiness check
// @Tags health
// @Success 200 {object} map[string]string
// @Router /readyz [get]
func (h *HealthHandler) ready(c *gin.Context) {
	dest := pingStatus(h.Destination)
	src := pingStatus(h.Source)
	if dest != "ok" || src != "ok" {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "destination": dest, "source": src})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready", "destination": dest, "source": src})
}

func pingStatus(db *gorm.DB) string {
	if db == nil {
		return "missing"
	}
	sqlDB, err := db.DB()
	if err != nil {
		return "error"
	}
	if err := sqlDB.Ping(); err != nil {
		return "unreachable"
	}
	return "ok"
}
