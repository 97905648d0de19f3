package grpc

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/turtacn/authgate/internal/domain/models"
	"github.com/turtacn/authgate/internal/domain/service"
	"github.com/turtacn/authgate/pkg/errors"
	"github.com/turtacn/authgate/pkg/logger"
)

// Client is a TokenAuthority backed by a remote Authorization service.
// Client 通过 gRPC 调用远程令牌权威。
type Client struct {
	conn    grpc.ClientConnInterface
	timeout time.Duration
	log     logger.Logger
}

var _ service.TokenAuthority = (*Client)(nil)

// Dial connects to the Authorization service at addr.
func Dial(addr string, timeout time.Duration, log logger.Logger, opts ...grpc.DialOption) (*Client, *grpc.ClientConn, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, nil, err
	}
	return NewClient(conn, timeout, log), conn, nil
}

// NewClient wraps an existing connection. A zero timeout means callers' deadlines apply.
func NewClient(conn grpc.ClientConnInterface, timeout time.Duration, log logger.Logger) *Client {
	return &Client{conn: conn, timeout: timeout, log: log.WithComponent("AuthorityClient")}
}

// IssueToken asks the remote authority for a token.
func (c *Client) IssueToken(ctx context.Context, id models.PrincipalID) (string, error) {
	out := new(wrapperspb.StringValue)
	if err := c.invoke(ctx, "IssueToken", wrapperspb.Int64(int64(id)), out); err != nil {
		return "", err
	}
	return out.GetValue(), nil
}

// VerifyToken returns the remote verdict. As with the in-process authority the
// error is non-nil only when no verdict could be obtained.
func (c *Client) VerifyToken(ctx context.Context, token string) (models.Verdict, error) {
	var header metadata.MD
	out := new(wrapperspb.BoolValue)
	if err := c.invoke(ctx, "VerifyToken", wrapperspb.String(token), out, grpc.Header(&header)); err != nil {
		return models.VerdictUnavailable, err
	}
	if vals := header.Get(VerdictHeader); len(vals) > 0 {
		return models.Verdict(vals[0]), nil
	}
	if out.GetValue() {
		return models.VerdictValid, nil
	}
	return models.VerdictMalformed, nil
}

// ResolvePrincipal resolves the token remotely. Token denials come back as
// status errors and are turned into an unresolved result.
func (c *Client) ResolvePrincipal(ctx context.Context, token string) (models.Resolution, error) {
	out := new(wrapperspb.Int64Value)
	err := c.invoke(ctx, "GetPrincipalFromToken", wrapperspb.String(token), out)
	if err == nil {
		return models.Resolved(models.PrincipalID(out.GetValue())), nil
	}

	verdict := models.VerdictFromError(err)
	if verdict == models.VerdictUnavailable || !isTokenError(err) {
		return models.Unresolved(models.VerdictUnavailable), err
	}
	return models.Unresolved(verdict), nil
}

// RevokeToken revokes the token remotely.
func (c *Client) RevokeToken(ctx context.Context, token string) error {
	return c.invoke(ctx, "RevokeToken", wrapperspb.String(token), new(wrapperspb.BoolValue))
}

func (c *Client) invoke(ctx context.Context, method string, in, out interface{}, opts ...grpc.CallOption) error {
	if c.timeout > 0 {
		if _, ok := ctx.Deadline(); !ok {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, c.timeout)
			defer cancel()
		}
	}
	if err := c.conn.Invoke(ctx, fullMethod(method), in, out, opts...); err != nil {
		converted := FromStatus(err)
		if errors.ShouldLogError(converted) {
			c.log.Error(ctx, "Authority call failed", converted, logger.Fields{"method": method})
		}
		return converted
	}
	return nil
}

func isTokenError(err error) bool {
	return errors.Is(err, errors.ErrTokenMalformed) ||
		errors.Is(err, errors.ErrTokenExpired) ||
		errors.Is(err, errors.ErrTokenRevoked)
}
