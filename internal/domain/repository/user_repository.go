// Package repository 定义领域仓储接口
// 仓储接口遵循 DDD 原则，定义领域对象的持久化契约
package repository

import (
	"context"

	"github.com/turtacn/authgate/internal/domain/models"
	"github.com/turtacn/authgate/pkg/constants"
)

// UserUpdate lists the mutable fields of a user; nil fields are left untouched.
type UserUpdate struct {
	Username *string
	Email    *string
	Role     *constants.Role
}

// UserRepository 定义用户仓储接口
// 实现类：internal/infrastructure/persistence/postgres/user_repo.go
type UserRepository interface {
	// Create 在同一事务中保存用户及其密码摘要
	Create(ctx context.Context, user *models.User, credential *models.Credential) error

	// FindByID 返回未删除的用户，不存在时返回 errors.ErrNotFound
	FindByID(ctx context.Context, id models.PrincipalID) (*models.User, error)

	// FindByUsername 返回用户并预加载其 Credential
	FindByUsername(ctx context.Context, username string) (*models.User, error)

	// Update 修改用户字段
	Update(ctx context.Context, id models.PrincipalID, update UserUpdate) error

	// SoftDelete 将用户标记为已删除
	SoftDelete(ctx context.Context, id models.PrincipalID) error
}
