// Package service provides application-level services that orchestrate domain services and repositories
package service

import (
	"context"
	"time"

	"github.com/turtacn/authgate/internal/application/dto"
	"github.com/turtacn/authgate/internal/domain/models"
	"github.com/turtacn/authgate/internal/domain/repository"
	domainService "github.com/turtacn/authgate/internal/domain/service"
	"github.com/turtacn/authgate/pkg/constants"
	"github.com/turtacn/authgate/pkg/errors"
	"github.com/turtacn/authgate/pkg/logger"
	"github.com/turtacn/authgate/pkg/utils"
)

// AccountAppService defines the user-facing account operations
type AccountAppService interface {
	// Register creates a user with role "user" and both password digests
	Register(ctx context.Context, req *dto.CreateUserRequest) (*dto.UserResponse, error)

	// Login checks credentials and issues a token for the principal
	Login(ctx context.Context, req *dto.LoginRequest, clientIP string) (*dto.LoginResponse, error)

	// Logout revokes the presented token
	Logout(ctx context.Context, token string) error

	// GetUser returns a non-deleted user
	GetUser(ctx context.Context, id models.PrincipalID) (*dto.UserResponse, error)

	// UpdateUser changes a user's fields; only admins may change the role
	UpdateUser(ctx context.Context, actorRole constants.Role, id models.PrincipalID, req *dto.UpdateUserRequest) (*dto.UserResponse, error)

	// DeleteUser soft-deletes a user
	DeleteUser(ctx context.Context, id models.PrincipalID) error
}

// resettable is implemented by limiters that can clear a key after a successful login.
type resettable interface {
	Reset(ctx context.Context, key string) error
}

// accountAppServiceImpl is the concrete implementation of AccountAppService
type accountAppServiceImpl struct {
	users     repository.UserRepository
	authority domainService.TokenAuthority
	verifier  *domainService.CredentialVerifier
	limiter   domainService.RateLimiter
	audit     domainService.AuditService
	metrics   domainService.Metrics
	tokenTTL  time.Duration
	logger    logger.Logger
}

// AccountDeps groups the collaborators of the account service. Limiter and
// Audit are optional.
type AccountDeps struct {
	Users     repository.UserRepository
	Authority domainService.TokenAuthority
	Verifier  *domainService.CredentialVerifier
	Limiter   domainService.RateLimiter
	Audit     domainService.AuditService
	Metrics   domainService.Metrics
	TokenTTL  time.Duration
}

// NewAccountAppService creates a new instance of AccountAppService
func NewAccountAppService(deps AccountDeps, log logger.Logger) AccountAppService {
	if deps.Metrics == nil {
		deps.Metrics = domainService.NoopMetrics{}
	}
	if deps.TokenTTL <= 0 {
		deps.TokenTTL = constants.DefaultTokenTTL
	}
	return &accountAppServiceImpl{
		users:     deps.Users,
		authority: deps.Authority,
		verifier:  deps.Verifier,
		limiter:   deps.Limiter,
		audit:     deps.Audit,
		metrics:   deps.Metrics,
		tokenTTL:  deps.TokenTTL,
		logger:    log.WithComponent("AccountAppService"),
	}
}

func (s *accountAppServiceImpl) Register(ctx context.Context, req *dto.CreateUserRequest) (*dto.UserResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}

	user := &models.User{Username: req.Username, Email: req.Email, Role: constants.RoleUser}
	if err := s.users.Create(ctx, user, domainService.NewCredential(req.Password)); err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "User registered", logger.Fields{"user_id": user.ID, "username": user.Username})
	return dto.NewUserResponse(user), nil
}

// Login never reveals whether the username exists: an unknown user and a
// wrong password both yield ErrInvalidCredentials.
func (s *accountAppServiceImpl) Login(ctx context.Context, req *dto.LoginRequest, clientIP string) (*dto.LoginResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}

	limitKey := "login:" + req.Username
	if s.limiter != nil {
		allowed, err := s.limiter.Allow(ctx, limitKey)
		if err != nil {
			return nil, err
		}
		if !allowed {
			s.metrics.RecordRateLimitHit("login")
			s.logger.Warn(ctx, "Login rate limit exceeded", logger.Fields{"username": req.Username, "client_ip": clientIP})
			return nil, errors.ErrRateLimitExceeded
		}
	}

	user, err := s.users.FindByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			s.loginFailed(ctx, nil, clientIP)
			return nil, errors.ErrInvalidCredentials
		}
		return nil, err
	}

	if _, err := s.verifier.Authenticate(ctx, user.Credential, req.Password); err != nil {
		if errors.Is(err, errors.ErrInvalidCredentials) || errors.Is(err, errors.ErrPrincipalNotFound) {
			s.loginFailed(ctx, &user.ID, clientIP)
			return nil, errors.ErrInvalidCredentials
		}
		return nil, err
	}

	token, err := s.authority.IssueToken(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	if r, ok := s.limiter.(resettable); ok {
		if err := r.Reset(ctx, limitKey); err != nil {
			s.logger.Warn(ctx, "Failed to reset login rate limit", logger.Fields{"error": err.Error()})
		}
	}

	s.logger.Info(ctx, "User logged in", logger.Fields{"user_id": user.ID, "client_ip": clientIP})
	return &dto.LoginResponse{
		Token:     token,
		UserID:    int64(user.ID),
		ExpiresAt: time.Now().Add(s.tokenTTL).UTC(),
	}, nil
}

func (s *accountAppServiceImpl) Logout(ctx context.Context, token string) error {
	if token == "" {
		return errors.ErrTokenMissing
	}
	return s.authority.RevokeToken(ctx, token)
}

func (s *accountAppServiceImpl) GetUser(ctx context.Context, id models.PrincipalID) (*dto.UserResponse, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return dto.NewUserResponse(user), nil
}

func (s *accountAppServiceImpl) UpdateUser(ctx context.Context, actorRole constants.Role, id models.PrincipalID, req *dto.UpdateUserRequest) (*dto.UserResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}
	if req.Role != nil && actorRole != constants.RoleAdmin {
		return nil, errors.ErrForbidden.WithMessage("only admins may change roles")
	}

	update := repository.UserUpdate{Username: req.Username, Email: req.Email, Role: req.Role}
	if err := s.users.Update(ctx, id, update); err != nil {
		return nil, err
	}
	if req.Role != nil {
		s.logger.Info(ctx, "User role changed", logger.Fields{"user_id": id, "role": *req.Role})
	}
	return s.GetUser(ctx, id)
}

func (s *accountAppServiceImpl) DeleteUser(ctx context.Context, id models.PrincipalID) error {
	if err := s.users.SoftDelete(ctx, id); err != nil {
		return err
	}
	s.logger.Info(ctx, "User deleted", logger.Fields{"user_id": id})
	return nil
}

func (s *accountAppServiceImpl) loginFailed(ctx context.Context, id *models.PrincipalID, clientIP string) {
	if s.audit == nil {
		return
	}
	event := models.NewAuditEvent(constants.AuditEventAuthenticationFailed, "failure", string(errors.CodeInvalidCredentials)).
		WithContextInfo(clientIP, "")
	if id != nil {
		event.WithPrincipal(*id)
	}
	if err := s.audit.LogEvent(ctx, event); err != nil {
		s.logger.Warn(ctx, "Failed to publish audit event", logger.Fields{"error": err.Error()})
	}
}
