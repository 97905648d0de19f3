package service_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/turtacn/authgate/internal/domain/models"
)

type mockUserDirectory struct {
	mock.Mock
}

func (m *mockUserDirectory) FindByID(ctx context.Context, id models.PrincipalID) (*models.User, error) {
	args := m.Called(ctx, id)
	if u := args.Get(0); u != nil {
		return u.(*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockCodec struct {
	mock.Mock
}

func (m *mockCodec) Issue(ctx context.Context, id models.PrincipalID) (string, error) {
	args := m.Called(ctx, id)
	return args.String(0), args.Error(1)
}

func (m *mockCodec) Parse(ctx context.Context, token string) (*models.TokenClaims, models.Verdict) {
	args := m.Called(ctx, token)
	if c := args.Get(0); c != nil {
		return c.(*models.TokenClaims), args.Get(1).(models.Verdict)
	}
	return nil, args.Get(1).(models.Verdict)
}

type mockRevocationStore struct {
	mock.Mock
}

func (m *mockRevocationStore) MarkRevoked(ctx context.Context, token string) error {
	return m.Called(ctx, token).Error(0)
}

func (m *mockRevocationStore) IsRevoked(ctx context.Context, token string) (bool, error) {
	args := m.Called(ctx, token)
	return args.Bool(0), args.Error(1)
}

type recordingAudit struct {
	events []*models.AuditEvent
}

func (r *recordingAudit) LogEvent(_ context.Context, event *models.AuditEvent) error {
	r.events = append(r.events, event)
	return nil
}
