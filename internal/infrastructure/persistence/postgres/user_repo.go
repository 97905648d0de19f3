package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/turtacn/authgate/internal/domain/models"
	"github.com/turtacn/authgate/internal/domain/repository"
	"github.com/turtacn/authgate/internal/domain/service"
	"github.com/turtacn/authgate/pkg/errors"
	"github.com/turtacn/authgate/pkg/logger"
)

// UserRepoImpl implements UserRepository over gorm. It also serves as the
// enforcer's UserDirectory and the credential lookup for login.
type UserRepoImpl struct {
	db     *gorm.DB
	logger logger.Logger
}

var (
	_ repository.UserRepository    = (*UserRepoImpl)(nil)
	_ service.UserDirectory        = (*UserRepoImpl)(nil)
	_ service.CredentialRepository = (*UserRepoImpl)(nil)
)

// NewUserRepository creates a new user repository instance.
func NewUserRepository(db *gorm.DB, log logger.Logger) *UserRepoImpl {
	return &UserRepoImpl{
		db:     db,
		logger: log.WithComponent("UserRepository"),
	}
}

// Create saves the user and its credential in one transaction.
func (r *UserRepoImpl) Create(ctx context.Context, user *models.User, credential *models.Credential) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Credential").Create(user).Error; err != nil {
			return err
		}
		credential.UserID = user.ID
		return tx.Create(credential).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return errors.ErrConflict.WithMessage("username %q already exists", user.Username)
		}
		r.logger.Error(ctx, "Failed to create user", err, logger.Fields{"username": user.Username})
		return errors.ErrInternal.WithCause(err)
	}

	r.logger.Info(ctx, "User created successfully", logger.Fields{"user_id": user.ID})
	return nil
}

// FindByID returns the user unless it is unknown or soft-deleted.
func (r *UserRepoImpl) FindByID(ctx context.Context, id models.PrincipalID) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Where("id = ? AND deleted = ?", id, false).
		First(&user).Error
	if err != nil {
		return nil, r.mapError(ctx, err, "find user by id")
	}
	return &user, nil
}

// FindByUsername returns the user with its credential preloaded.
func (r *UserRepoImpl) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Preload("Credential").
		Where("username = ? AND deleted = ?", username, false).
		First(&user).Error
	if err != nil {
		return nil, r.mapError(ctx, err, "find user by username")
	}
	return &user, nil
}

// Update applies the non-nil fields of update.
func (r *UserRepoImpl) Update(ctx context.Context, id models.PrincipalID, update repository.UserUpdate) error {
	fields := map[string]interface{}{}
	if update.Username != nil {
		fields["username"] = *update.Username
	}
	if update.Email != nil {
		fields["email"] = *update.Email
	}
	if update.Role != nil {
		fields["role"] = *update.Role
	}
	if len(fields) == 0 {
		_, err := r.FindByID(ctx, id)
		return err
	}

	result := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ? AND deleted = ?", id, false).
		Updates(fields)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return errors.ErrConflict.WithMessage("username already exists")
		}
		return r.mapError(ctx, result.Error, "update user")
	}
	if result.RowsAffected == 0 {
		return errors.ErrNotFound.WithMessage("user %d not found", id)
	}
	return nil
}

// SoftDelete marks the user deleted; its tokens stop authorizing on the next request.
func (r *UserRepoImpl) SoftDelete(ctx context.Context, id models.PrincipalID) error {
	result := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ? AND deleted = ?", id, false).
		Update("deleted", true)
	if result.Error != nil {
		return r.mapError(ctx, result.Error, "delete user")
	}
	if result.RowsAffected == 0 {
		return errors.ErrNotFound.WithMessage("user %d not found", id)
	}
	r.logger.Info(ctx, "User soft-deleted", logger.Fields{"user_id": id})
	return nil
}

func (r *UserRepoImpl) mapError(ctx context.Context, err error, op string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errors.ErrNotFound
	}
	r.logger.Error(ctx, "Database operation failed", err, logger.Fields{"operation": op})
	return errors.ErrInternal.WithCause(err)
}
