package controller

import (
	"context"
	"net/http"
	"time"

	"github.com/inkpost/blog/config"

	"github.com/gin-gonic/gin"
	"go.uber.org/atomic"
)

// Pinger is a dependency the health check probes.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthController answers liveness and readiness probes.
type HealthController struct {
	ready  *atomic.Bool
	checks map[string]Pinger
}

func NewHealthController(g *gin.RouterGroup, ready *atomic.Bool, checks map[string]Pinger) *HealthController {
	a := &HealthController{ready: ready, checks: checks}
	g.GET("/healthz", a.healthz)
	return a
}

func (a *HealthController) healthz(c *gin.Context) {
	status := http.StatusOK
	result := gin.H{"version": config.GetVersion()}
	if !a.ready.Load() {
		status = http.StatusServiceUnavailable
		result["ready"] = false
	} else {
		result["ready"] = true
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	for name, check := range a.checks {
		if err := check.Ping(ctx); err != nil {
			status = http.StatusServiceUnavailable
			result[name] = err.Error()
		} else {
			result[name] = "ok"
		}
	}
	c.JSON(status, result)
}
