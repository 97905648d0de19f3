package service

import (
	"time"

	"github.com/turtacn/authgate/internal/domain/models"
)

// Metrics defines the interface for collecting auth metrics.
// This abstraction keeps domain code independent of Prometheus.
// Metrics 定义了收集认证指标的接口。
type Metrics interface {
	// RecordTokenIssue records a token issuance attempt.
	RecordTokenIssue(success bool, duration time.Duration)

	// RecordTokenVerify records the verdict of a verification.
	RecordTokenVerify(verdict models.Verdict)

	// RecordTokenRevoke records a revocation attempt.
	RecordTokenRevoke(success bool)

	// RecordAuthorization records an enforcer decision by denial reason ("allowed" on success).
	RecordAuthorization(decision models.Decision)

	// RecordRateLimitHit records a refused attempt.
	RecordRateLimitHit(scope string)
}

// NoopMetrics discards everything.
type NoopMetrics struct{}

func (NoopMetrics) RecordTokenIssue(bool, time.Duration) {}
func (NoopMetrics) RecordTokenVerify(models.Verdict) {}
func (NoopMetrics) RecordTokenRevoke(bool) {}
func (NoopMetrics) RecordAuthorization(models.Decision) {}
func (NoopMetrics) RecordRateLimitHit(string) {}
