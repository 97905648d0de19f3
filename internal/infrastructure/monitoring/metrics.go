package monitoring

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/turtacn/authgate/internal/domain/models"
	"github.com/turtacn/authgate/internal/domain/service"
)

// Metrics manages the Prometheus metrics.
type Metrics struct {
	TokenIssueRequests    *prometheus.CounterVec
	TokenIssueLatency     prometheus.Histogram
	TokenVerifications    *prometheus.CounterVec
	TokenRevocations      *prometheus.CounterVec
	AuthorizationDecision *prometheus.CounterVec
	RateLimitHits         *prometheus.CounterVec
	HTTPRequests          *prometheus.CounterVec
	HTTPRequestDuration   *prometheus.HistogramVec
	HTTPActiveRequests    prometheus.Gauge
}

var _ service.Metrics = (*Metrics)(nil)

// NewMetrics creates the metrics and registers them with reg.
// Passing nil registers with the default Prometheus registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		TokenIssueRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "authgate_token_issue_requests_total",
				Help: "Total number of token issue requests.",
			},
			[]string{"result"},
		),
		TokenIssueLatency: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "authgate_token_issue_latency_seconds",
				Help:    "Latency of token issue requests.",
				Buckets: prometheus.DefBuckets,
			},
		),
		TokenVerifications: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "authgate_token_verifications_total",
				Help: "Token verifications by verdict.",
			},
			[]string{"verdict"},
		),
		TokenRevocations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "authgate_token_revocations_total",
				Help: "Total number of token revocations.",
			},
			[]string{"result"},
		),
		AuthorizationDecision: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "authgate_authorization_decisions_total",
				Help: "Enforcer decisions by outcome.",
			},
			[]string{"outcome"},
		),
		RateLimitHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "authgate_rate_limit_hits_total",
				Help: "Total number of rate limit hits.",
			},
			[]string{"scope"},
		),
		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "authgate_http_requests_total",
				Help: "HTTP requests served by the gateway.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "authgate_http_request_duration_seconds",
				Help:    "HTTP request latency.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		HTTPActiveRequests: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "authgate_http_active_requests",
				Help: "In-flight HTTP requests.",
			},
		),
	}
}

// RecordTokenIssue records metrics for a token issue event.
func (m *Metrics) RecordTokenIssue(success bool, duration time.Duration) {
	m.TokenIssueRequests.WithLabelValues(result(success)).Inc()
	m.TokenIssueLatency.Observe(duration.Seconds())
}

// RecordTokenVerify records the verdict of a verification.
func (m *Metrics) RecordTokenVerify(verdict models.Verdict) {
	m.TokenVerifications.WithLabelValues(verdict.String()).Inc()
}

// RecordTokenRevoke records metrics for a token revocation event.
func (m *Metrics) RecordTokenRevoke(success bool) {
	m.TokenRevocations.WithLabelValues(result(success)).Inc()
}

// RecordAuthorization records an enforcer decision.
func (m *Metrics) RecordAuthorization(decision models.Decision) {
	outcome := "allowed"
	if !decision.Allowed {
		outcome = string(decision.Reason)
	}
	m.AuthorizationDecision.WithLabelValues(outcome).Inc()
}

// RecordRateLimitHit records a rate limit hit.
func (m *Metrics) RecordRateLimitHit(scope string) {
	m.RateLimitHits.WithLabelValues(scope).Inc()
}

func (m *Metrics) ActiveRequestsInc() { m.HTTPActiveRequests.Inc() }
func (m *Metrics) ActiveRequestsDec() { m.HTTPActiveRequests.Dec() }

// ObserveRequest records one finished HTTP request.
func (m *Metrics) ObserveRequest(method, path string, status int, duration time.Duration) {
	m.HTTPRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

func result(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}
