package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/authgate/internal/domain/models"
	"github.com/turtacn/authgate/internal/domain/service"
	"github.com/turtacn/authgate/pkg/errors"
	"github.com/turtacn/authgate/pkg/logger"
)

func TestHashDigests(t *testing.T) {
	assert.Equal(t, "5f4dcc3b5aa765d61d8327deb882cf99", service.HashMD5("password"))
	assert.Equal(t, "5e884898da28047151d0e56f8dc6292773603d0d6aabbdd62a11ef721d1542d8", service.HashSHA256("password"))
	assert.Equal(t, "d41d8cd98f00b204e9800998ecf8427e", service.HashMD5(""))
}

func TestCredentialVerifier_Authenticate(t *testing.T) {
	const secret = "hunter2"

	tests := []struct {
		name      string
		legacyMD5 bool
		record    *models.Credential
		secret    string
		wantFound bool
		wantErr   error
	}{
		{
			name:      "both digests match",
			legacyMD5: true,
			record:    &models.Credential{UserID: 7, MD5Digest: service.HashMD5(secret), SHA256Digest: service.HashSHA256(secret)},
			secret:    secret,
			wantFound: true,
		},
		{
			name:      "only sha256 matches",
			legacyMD5: true,
			record:    &models.Credential{UserID: 7, MD5Digest: "stale", SHA256Digest: service.HashSHA256(secret)},
			secret:    secret,
			wantFound: true,
		},
		{
			name:      "only md5 matches with legacy enabled",
			legacyMD5: true,
			record:    &models.Credential{UserID: 7, MD5Digest: service.HashMD5(secret), SHA256Digest: "stale"},
			secret:    secret,
			wantFound: true,
		},
		{
			name:      "only md5 matches with legacy disabled",
			legacyMD5: false,
			record:    &models.Credential{UserID: 7, MD5Digest: service.HashMD5(secret), SHA256Digest: "stale"},
			secret:    secret,
			wantErr:   errors.ErrInvalidCredentials,
		},
		{
			name:      "neither matches",
			legacyMD5: true,
			record:    &models.Credential{UserID: 7, MD5Digest: service.HashMD5(secret), SHA256Digest: service.HashSHA256(secret)},
			secret:    "wrong",
			wantErr:   errors.ErrInvalidCredentials,
		},
		{
			name:      "empty stored digests never match",
			legacyMD5: true,
			record:    &models.Credential{UserID: 7},
			secret:    "",
			wantErr:   errors.ErrInvalidCredentials,
		},
		{
			name:      "nil record",
			legacyMD5: true,
			record:    nil,
			secret:    secret,
			wantErr:   errors.ErrPrincipalNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := service.NewCredentialVerifier(tt.legacyMD5, logger.NewNoopLogger())
			res, err := v.Authenticate(context.Background(), tt.record, tt.secret)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.False(t, res.Found)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantFound, res.Found)
			assert.Equal(t, tt.record.UserID, res.PrincipalID)
		})
	}
}

func TestNewCredential(t *testing.T) {
	cred := service.NewCredential("s3cret")
	assert.Len(t, cred.MD5Digest, 32)
	assert.Len(t, cred.SHA256Digest, 64)

	res, err := service.NewCredentialVerifier(false, logger.NewNoopLogger()).Authenticate(context.Background(), cred, "s3cret")
	require.NoError(t, err)
	assert.True(t, res.Found)
}
