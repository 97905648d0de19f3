package service

import (
	"context"
	"crypto/md5"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"

	"github.com/turtacn/authgate/internal/domain/models"
	"github.com/turtacn/authgate/pkg/errors"
	"github.com/turtacn/authgate/pkg/logger"
)

// HashMD5 returns the lowercase hex MD5 digest of secret.
func HashMD5(secret string) string {
	sum := md5.Sum([]byte(secret))
	return hex.EncodeToString(sum[:])
}

// HashSHA256 returns the lowercase hex SHA-256 digest of secret.
func HashSHA256(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}

// NewCredential computes both stored digests for a new password.
func NewCredential(secret string) *models.Credential {
	return &models.Credential{
		MD5Digest:    HashMD5(secret),
		SHA256Digest: HashSHA256(secret),
	}
}

// CredentialVerifier checks a presented secret against stored digests.
// CredentialVerifier 将提交的密码与存储的摘要进行比对。
type CredentialVerifier struct {
	legacyMD5 bool
	logger    logger.Logger
}

// NewCredentialVerifier creates a verifier. With legacyMD5 a matching MD5
// digest authenticates on its own; otherwise only SHA-256 is consulted.
func NewCredentialVerifier(legacyMD5 bool, log logger.Logger) *CredentialVerifier {
	return &CredentialVerifier{
		legacyMD5: legacyMD5,
		logger:    log.WithComponent("CredentialVerifier"),
	}
}

// Authenticate resolves the record's principal if secret matches either digest.
// A nil record is denied with ErrPrincipalNotFound, a mismatch with ErrInvalidCredentials.
func (v *CredentialVerifier) Authenticate(ctx context.Context, record *models.Credential, secret string) (models.Resolution, error) {
	if record == nil {
		return models.Resolution{}, errors.ErrPrincipalNotFound
	}

	// both comparisons always run
	shaOK := digestEqual(record.SHA256Digest, HashSHA256(secret))
	md5OK := digestEqual(record.MD5Digest, HashMD5(secret))

	if shaOK || (v.legacyMD5 && md5OK) {
		if !shaOK {
			v.logger.Debug(ctx, "authenticated with legacy md5 digest", logger.Fields{"user_id": record.UserID})
		}
		return models.Resolved(record.UserID), nil
	}
	return models.Resolution{}, errors.ErrInvalidCredentials
}

func digestEqual(stored, computed string) bool {
	if stored == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(computed)) == 1
}
