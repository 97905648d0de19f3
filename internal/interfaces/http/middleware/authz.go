package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/authgate/internal/domain/models"
	"github.com/turtacn/authgate/internal/domain/service"
	"github.com/turtacn/authgate/pkg/constants"
	"github.com/turtacn/authgate/pkg/errors"
	"github.com/turtacn/authgate/pkg/logger"
	"github.com/turtacn/authgate/pkg/utils"
)

// Authz turns enforcer decisions into gin middleware. Every protected route
// goes through the enforcer, so the token, the principal record and the role
// are re-checked on each request.
// Authz 将授权执行器的决策接入 gin 中间件。
type Authz struct {
	enforcer *service.Enforcer
	logger   logger.Logger
}

// NewAuthz creates an Authz.
func NewAuthz(enforcer *service.Enforcer, log logger.Logger) *Authz {
	return &Authz{enforcer: enforcer, logger: log.WithComponent("AuthzMiddleware")}
}

// Require admits principals holding one of roles. No roles admits any
// authenticated principal.
func (a *Authz) Require(roles ...constants.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !a.Authorize(c, models.AccessRequest{AllowedRoles: roles}) {
			return
		}
		c.Next()
	}
}

// RequireOwner admits principals holding one of roles whose id equals the
// path parameter param. Holders of a bypass role skip the owner check.
func (a *Authz) RequireOwner(param string, bypass []constants.Role, roles ...constants.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		owner, err := strconv.ParseInt(c.Param(param), 10, 64)
		if err != nil {
			a.Reject(c, models.AccessRequest{AllowedRoles: roles}, errors.ErrInvalidRequest.WithMessage("invalid %s", param))
			return
		}
		req := models.AccessRequest{
			AllowedRoles: roles,
			Owner:        &models.OwnerRule{OwnerID: models.PrincipalID(owner), BypassRoles: bypass},
		}
		if !a.Authorize(c, req) {
			return
		}
		c.Next()
	}
}

// Authorize evaluates req against the token presented on c. Handlers call it
// directly when the owner is only known after binding the body. On denial the
// response is written, the chain aborted and false returned.
func (a *Authz) Authorize(c *gin.Context, req models.AccessRequest) bool {
	req.Token = RequestToken(c)
	d := a.enforcer.Authorize(c.Request.Context(), req)
	if !d.Allowed {
		abortWithError(c, d.Err())
		return false
	}
	c.Set(string(constants.ContextKeyPrincipalID), d.PrincipalID)
	c.Set(string(constants.ContextKeyRole), d.Role)
	return true
}

// Reject answers a request that failed validation. The token is checked
// against req first, so an unauthenticated caller sees the token denial
// rather than err.
func (a *Authz) Reject(c *gin.Context, req models.AccessRequest, err error) {
	if a.Authorize(c, req) {
		abortWithError(c, err)
	}
}

// RequestToken returns the bearer token carried by the request, if any.
func RequestToken(c *gin.Context) string {
	return utils.ExtractToken(c.GetHeader(constants.TokenHeader), c.GetHeader(constants.AuthorizationHeader))
}

// PrincipalFrom returns the principal stored by Authorize.
func PrincipalFrom(c *gin.Context) (models.PrincipalID, constants.Role, bool) {
	v, ok := c.Get(string(constants.ContextKeyPrincipalID))
	if !ok {
		return 0, "", false
	}
	id, ok := v.(models.PrincipalID)
	if !ok {
		return 0, "", false
	}
	role, _ := c.Get(string(constants.ContextKeyRole))
	r, _ := role.(constants.Role)
	return id, r, true
}

func abortWithError(c *gin.Context, err error) {
	status, body := errors.ToResponse(err)
	c.AbortWithStatusJSON(status, body)
}
