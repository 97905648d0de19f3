package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/turtacn/authgate/internal/domain/service"
	"github.com/turtacn/authgate/pkg/errors"
	"github.com/turtacn/authgate/pkg/logger"
)

// RateLimitMiddleware limits requests per client IP within scope. A nil
// limiter disables it. Limiter failures fail open: the account service still
// applies its own per-username budget on login.
func RateLimitMiddleware(limiter service.RateLimiter, scope string, metrics service.Metrics, log logger.Logger) gin.HandlerFunc {
	if metrics == nil {
		metrics = service.NoopMetrics{}
	}
	return func(c *gin.Context) {
		if limiter == nil {
			c.Next()
			return
		}

		key := "ip:" + scope + ":" + c.ClientIP()
		allowed, err := limiter.Allow(c.Request.Context(), key)
		if err != nil {
			log.Error(c.Request.Context(), "rate limiter failed", err, logger.Fields{"scope": scope})
			c.Next()
			return
		}

		if !allowed {
			metrics.RecordRateLimitHit(scope)
			log.Warn(c.Request.Context(), "rate limit exceeded", logger.Fields{"scope": scope, "client_ip": c.ClientIP()})
			abortWithError(c, errors.ErrRateLimitExceeded)
			return
		}

		c.Next()
	}
}
