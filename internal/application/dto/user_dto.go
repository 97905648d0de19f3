// Package dto provides data transfer objects for the application layer.
package dto

import (
	"time"

	"github.com/turtacn/authgate/internal/domain/models"
	"github.com/turtacn/authgate/pkg/constants"
)

// CreateUserRequest 用户注册请求 DTO
type CreateUserRequest struct {
	Username string `json:"username" binding:"required" validate:"required,min=1,max=64"`
	Password string `json:"password" binding:"required" validate:"required,min=1"`
	Email    string `json:"email" binding:"required" validate:"required,email"`
}

// UpdateUserRequest 用户更新请求 DTO. Only admins may change Role.
type UpdateUserRequest struct {
	Username *string         `json:"username" validate:"omitempty,min=1,max=64"`
	Email    *string         `json:"email" validate:"omitempty,email"`
	Role     *constants.Role `json:"role" validate:"omitempty,oneof=user admin"`
}

// LoginRequest 登录请求 DTO
type LoginRequest struct {
	Username string `json:"username" binding:"required" validate:"required"`
	Password string `json:"password" binding:"required" validate:"required"`
}

// LoginResponse 登录响应 DTO
type LoginResponse struct {
	Token     string    `json:"token"`
	UserID    int64     `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// UserResponse 用户信息响应 DTO. Digests are never returned.
type UserResponse struct {
	ID        int64          `json:"id"`
	Username  string         `json:"username"`
	Email     string         `json:"email"`
	Role      constants.Role `json:"role"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// NewUserResponse converts a user model.
func NewUserResponse(u *models.User) *UserResponse {
	return &UserResponse{
		ID:        int64(u.ID),
		Username:  u.Username,
		Email:     u.Email,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}
