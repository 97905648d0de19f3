package monitoring

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/turtacn/authgate/internal/domain/models"
)

func TestMetrics_Record(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.RecordTokenIssue(true, 5*time.Millisecond)
	m.RecordTokenVerify(models.VerdictRevoked)
	m.RecordTokenVerify(models.VerdictRevoked)
	m.RecordTokenRevoke(false)
	m.RecordAuthorization(models.Deny(models.ReasonForbiddenRole, models.VerdictValid))
	m.RecordAuthorization(models.Allow(1, "admin"))
	m.ObserveRequest("GET", "/api/v1/users/:user_id", 200, time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.TokenIssueRequests.WithLabelValues("success")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.TokenVerifications.WithLabelValues("revoked")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TokenRevocations.WithLabelValues("failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AuthorizationDecision.WithLabelValues("forbidden_role")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AuthorizationDecision.WithLabelValues("allowed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "/api/v1/users/:user_id", "200")))
}
