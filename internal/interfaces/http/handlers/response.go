package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/authgate/internal/application/dto"
	"github.com/turtacn/authgate/internal/infrastructure/monitoring"
	"github.com/turtacn/authgate/pkg/errors"
	"github.com/turtacn/authgate/pkg/logger"
)

// respondOK writes a successful APIResponse.
func respondOK(c *gin.Context, status int, data interface{}) {
	c.JSON(status, dto.SuccessResponse(data, monitoring.TraceIDFromContext(c.Request.Context())))
}

// respondError writes the uniform error body. Server-side failures are
// logged and attached to the gin context for the tracing middleware.
func respondError(c *gin.Context, log logger.Logger, err error) {
	if errors.ShouldLogError(err) {
		log.Error(c.Request.Context(), "Request failed", err, logger.Fields{"path": c.FullPath()})
		_ = c.Error(err)
	}
	status, body := errors.ToResponse(err)
	c.AbortWithStatusJSON(status, body)
}

// bindJSON decodes the body into req, mapping decode failures to ErrInvalidRequest.
func bindJSON(c *gin.Context, req interface{}) error {
	if err := c.ShouldBindJSON(req); err != nil {
		return errors.ErrInvalidRequest.WithMessage("invalid request body").WithCause(err)
	}
	return nil
}

func pathID(c *gin.Context, param string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(param), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.ErrInvalidRequest.WithMessage("invalid %s", param).WithMetadata("field", param)
	}
	return id, nil
}

func noContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
