package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/authgate/internal/application/dto"
	"github.com/turtacn/authgate/internal/application/service"
	"github.com/turtacn/authgate/internal/domain/models"
	"github.com/turtacn/authgate/internal/interfaces/http/middleware"
	"github.com/turtacn/authgate/pkg/constants"
	"github.com/turtacn/authgate/pkg/logger"
)

// UserHandler serves /users. Authorization runs in middleware before the
// protected handlers; login and logout handle their own token.
type UserHandler struct {
	accounts service.AccountAppService
	log      logger.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(accounts service.AccountAppService, log logger.Logger) *UserHandler {
	return &UserHandler{accounts: accounts, log: log.WithComponent("UserHandler")}
}

// CreateUser registers a user with role "user".
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req dto.CreateUserRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, h.log, err)
		return
	}
	user, err := h.accounts.Register(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondOK(c, http.StatusCreated, user)
}

// GetUser returns one user. The route is protected by RequireOwner.
func (h *UserHandler) GetUser(c *gin.Context) {
	id, err := pathID(c, "user_id")
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	user, err := h.accounts.GetUser(c.Request.Context(), models.PrincipalID(id))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondOK(c, http.StatusOK, user)
}

// UpdateUser changes a user. Role changes require the caller to be admin.
func (h *UserHandler) UpdateUser(c *gin.Context) {
	id, err := pathID(c, "user_id")
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	var req dto.UpdateUserRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, h.log, err)
		return
	}
	_, role, _ := middleware.PrincipalFrom(c)
	user, err := h.accounts.UpdateUser(c.Request.Context(), role, models.PrincipalID(id), &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondOK(c, http.StatusOK, user)
}

// DeleteUser soft-deletes a user.
func (h *UserHandler) DeleteUser(c *gin.Context) {
	id, err := pathID(c, "user_id")
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	if err := h.accounts.DeleteUser(c.Request.Context(), models.PrincipalID(id)); err != nil {
		respondError(c, h.log, err)
		return
	}
	noContent(c)
}

// Login exchanges a username and password for a token.
func (h *UserHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, h.log, err)
		return
	}
	resp, err := h.accounts.Login(c.Request.Context(), &req, c.ClientIP())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Header(constants.TokenHeader, resp.Token)
	respondOK(c, http.StatusOK, resp)
}

// Logout revokes the presented token.
func (h *UserHandler) Logout(c *gin.Context) {
	if err := h.accounts.Logout(c.Request.Context(), middleware.RequestToken(c)); err != nil {
		respondError(c, h.log, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"revoked": true})
}
