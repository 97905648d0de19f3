package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/turtacn/authgate/pkg/logger"
)

// Pinger is a dependency the readiness check probes.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler provides health check endpoints.
type HealthHandler struct {
	deps    map[string]Pinger
	timeout time.Duration
	log     logger.Logger
}

// NewHealthHandler creates a new HealthHandler. deps maps a check name
// ("database", "redis") to the dependency it probes; nil entries are skipped.
func NewHealthHandler(deps map[string]Pinger, log logger.Logger) *HealthHandler {
	checked := make(map[string]Pinger, len(deps))
	for name, p := range deps {
		if p != nil {
			checked[name] = p
		}
	}
	return &HealthHandler{deps: checked, timeout: 2 * time.Second, log: log.WithComponent("HealthHandler")}
}

// LivenessCheck reports that the process is serving.
func (h *HealthHandler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "alive", "timestamp": time.Now().UTC()})
}

// ReadinessCheck probes every dependency concurrently.
func (h *HealthHandler) ReadinessCheck(c *gin.Context) {
	status := "healthy"
	checks := h.performChecks(c.Request.Context())

	httpStatus := http.StatusOK
	for _, checkStatus := range checks {
		if checkStatus != "ok" {
			status = "unhealthy"
			httpStatus = http.StatusServiceUnavailable
			break
		}
	}

	c.JSON(httpStatus, gin.H{
		"status":    status,
		"timestamp": time.Now().UTC(),
		"checks":    checks,
	})
}

func (h *HealthHandler) performChecks(ctx context.Context) map[string]string {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	var (
		mu     sync.Mutex
		checks = make(map[string]string, len(h.deps))
		g      errgroup.Group
	)
	for name, dep := range h.deps {
		name, dep := name, dep
		g.Go(func() error {
			status := "ok"
			if err := dep.Ping(ctx); err != nil {
				h.log.Warn(ctx, "Health check failed", logger.Fields{"dependency": name, "error": err.Error()})
				status = "error: " + err.Error()
			}
			mu.Lock()
			checks[name] = status
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return checks
}
