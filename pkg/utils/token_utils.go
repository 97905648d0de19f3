// Package utils holds small helpers shared by the transports.
package utils

import (
	"strings"

	"github.com/turtacn/authgate/pkg/constants"
)

// ExtractToken returns the bearer token from the "token" header value, falling
// back to an "Authorization: Bearer <token>" value. Empty when neither is usable.
func ExtractToken(tokenHeader, authorization string) string {
	if t := strings.TrimSpace(tokenHeader); t != "" {
		return t
	}
	scheme, token, found := strings.Cut(strings.TrimSpace(authorization), " ")
	if !found || !strings.EqualFold(scheme, constants.BearerScheme) {
		return ""
	}
	return strings.TrimSpace(token)
}
