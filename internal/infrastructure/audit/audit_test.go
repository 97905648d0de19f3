package audit

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/authgate/internal/config"
	"github.com/turtacn/authgate/internal/domain/models"
	"github.com/turtacn/authgate/internal/infrastructure/persistence/postgres"
	"github.com/turtacn/authgate/pkg/constants"
	"github.com/turtacn/authgate/pkg/errors"
	"github.com/turtacn/authgate/pkg/logger"
)

type fakeWriter struct {
	messages []kafka.Message
	err      error
	closed   bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestKafkaProducer_LogEvent(t *testing.T) {
	w := &fakeWriter{}
	p := newKafkaProducer(w, "audit-signing-key", logger.NewNoopLogger())

	event := models.NewAuditEvent(constants.AuditEventTokenRevoked, "success", "").
		WithPrincipal(7).
		WithToken("eyJhbGciOiJIUzI1NiJ9.payload.signature")
	require.NoError(t, p.LogEvent(context.Background(), event))
	require.Len(t, w.messages, 1)

	msg := w.messages[0]
	assert.Equal(t, "7", string(msg.Key))

	var decoded models.AuditEvent
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, event.EventID, decoded.EventID)
	assert.Equal(t, models.TokenFingerprint("eyJhbGciOiJIUzI1NiJ9.payload.signature"), decoded.TokenHint)
	assert.NotContains(t, string(msg.Value), "eyJhbGciOi")
	assert.NotContains(t, string(msg.Value), "payload")

	require.Len(t, msg.Headers, 1)
	assert.Equal(t, SignatureHeader, msg.Headers[0].Key)
	assert.True(t, Verify(msg.Value, string(msg.Headers[0].Value), "audit-signing-key"))
	assert.False(t, Verify(msg.Value, string(msg.Headers[0].Value), "other-key"))

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestKafkaProducer_UnsignedWithoutPrincipal(t *testing.T) {
	w := &fakeWriter{}
	p := newKafkaProducer(w, "", logger.NewNoopLogger())

	event := models.NewAuditEvent(constants.AuditEventAuthorizationDenied, "failure", "missing_token")
	require.NoError(t, p.LogEvent(context.Background(), event))
	require.Len(t, w.messages, 1)
	assert.Equal(t, event.EventID.String(), string(w.messages[0].Key))
	assert.Empty(t, w.messages[0].Headers)
}

func TestKafkaProducer_WriteFailure(t *testing.T) {
	w := &fakeWriter{err: errors.New("broker down")}
	p := newKafkaProducer(w, "", logger.NewNoopLogger())

	err := p.LogEvent(context.Background(), models.NewAuditEvent(constants.AuditEventTokenIssued, "success", ""))
	assert.EqualError(t, err, "broker down")
}

func TestNewKafkaProducer(t *testing.T) {
	p := NewKafkaProducer(config.KafkaConfig{Brokers: []string{"localhost:9092"}, AuditTopic: "authgate.audit"}, logger.NewNoopLogger())
	w, ok := p.writer.(*kafka.Writer)
	require.True(t, ok)
	assert.Equal(t, "authgate.audit", w.Topic)
	assert.NoError(t, p.Close())
}

func TestSignIsDeterministic(t *testing.T) {
	payload := []byte(`{"event_type":"token.issued"}`)
	assert.Equal(t, Sign(payload, "k"), Sign(payload, "k"))
	assert.NotEqual(t, Sign(payload, "k"), Sign(payload, "k2"))
	assert.False(t, Verify(payload, "not base64!", "k"))
}

func TestGormAuditService_LogEvent(t *testing.T) {
	conn, err := postgres.NewDBConnection(context.Background(), config.DatabaseConfig{
		Driver:      "sqlite",
		SQLitePath:  filepath.Join(t.TempDir(), "audit.db"),
		AutoMigrate: true,
	}, logger.NewNoopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	svc := NewGormAuditService(conn.DB())
	event := models.NewAuditEvent(constants.AuditEventAuthenticationFailed, "failure", "invalid_credentials").
		WithContextInfo("10.0.0.1", "")
	require.NoError(t, svc.LogEvent(context.Background(), event))

	var stored models.AuditEvent
	require.NoError(t, conn.DB().First(&stored, "event_id = ?", event.EventID.String()).Error)
	assert.Equal(t, constants.AuditEventAuthenticationFailed, stored.EventType)
	assert.Equal(t, "10.0.0.1", stored.IPAddress)
	assert.Nil(t, stored.PrincipalID)
}
