// Package grpc exposes the token authority over gRPC and provides a client
// implementing the same TokenAuthority interface for remote callers.
package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/turtacn/authgate/internal/domain/models"
	"github.com/turtacn/authgate/internal/domain/service"
	"github.com/turtacn/authgate/pkg/constants"
	"github.com/turtacn/authgate/pkg/logger"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "authgate.auth.v1.Authorization"

// VerdictHeader is the response header carrying the token verdict.
const VerdictHeader = "x-token-verdict"

// AuthorizationServer is the server API for the Authorization service.
// Messages are protobuf well-known wrapper types, so no generated code is needed.
type AuthorizationServer interface {
	IssueToken(context.Context, *wrapperspb.Int64Value) (*wrapperspb.StringValue, error)
	VerifyToken(context.Context, *wrapperspb.StringValue) (*wrapperspb.BoolValue, error)
	RevokeToken(context.Context, *wrapperspb.StringValue) (*wrapperspb.BoolValue, error)
	GetPrincipalFromToken(context.Context, *wrapperspb.StringValue) (*wrapperspb.Int64Value, error)
}

// AuthGRPCService implements AuthorizationServer on top of a TokenAuthority.
type AuthGRPCService struct {
	authority service.TokenAuthority
	log       logger.Logger
}

var _ AuthorizationServer = (*AuthGRPCService)(nil)

// NewAuthGRPCService creates the service implementation.
func NewAuthGRPCService(authority service.TokenAuthority, log logger.Logger) *AuthGRPCService {
	return &AuthGRPCService{authority: authority, log: log.WithComponent("AuthGRPCService")}
}

// NewAuthGRPCServer creates a gRPC server with the Authorization service
// registered behind the recovery, logging and error conversion interceptors.
func NewAuthGRPCServer(authority service.TokenAuthority, log logger.Logger, opts ...grpc.ServerOption) *grpc.Server {
	opts = append([]grpc.ServerOption{NewInterceptorChain(log).ChainUnaryInterceptors()}, opts...)
	server := grpc.NewServer(opts...)
	RegisterAuthorizationServer(server, NewAuthGRPCService(authority, log))
	return server
}

// IssueToken handles the gRPC request to issue a token.
func (s *AuthGRPCService) IssueToken(ctx context.Context, req *wrapperspb.Int64Value) (*wrapperspb.StringValue, error) {
	token, err := s.authority.IssueToken(ctx, models.PrincipalID(req.GetValue()))
	if err != nil {
		return nil, err
	}
	return wrapperspb.String(token), nil
}

// VerifyToken reports whether the token is valid. The verdict itself is sent
// in the VerdictHeader response header.
func (s *AuthGRPCService) VerifyToken(ctx context.Context, req *wrapperspb.StringValue) (*wrapperspb.BoolValue, error) {
	verdict, err := s.authority.VerifyToken(ctx, tokenFrom(ctx, req))
	s.setVerdict(ctx, verdict)
	if err != nil {
		return nil, err
	}
	return wrapperspb.Bool(verdict.IsValid()), nil
}

// RevokeToken handles the gRPC request to revoke a token.
func (s *AuthGRPCService) RevokeToken(ctx context.Context, req *wrapperspb.StringValue) (*wrapperspb.BoolValue, error) {
	if err := s.authority.RevokeToken(ctx, tokenFrom(ctx, req)); err != nil {
		return nil, err
	}
	return wrapperspb.Bool(true), nil
}

// GetPrincipalFromToken resolves the token's principal. Any non-valid verdict
// is returned as a status error naming the verdict.
func (s *AuthGRPCService) GetPrincipalFromToken(ctx context.Context, req *wrapperspb.StringValue) (*wrapperspb.Int64Value, error) {
	res, err := s.authority.ResolvePrincipal(ctx, tokenFrom(ctx, req))
	s.setVerdict(ctx, res.Verdict)
	if err != nil {
		return nil, err
	}
	if !res.Found {
		return nil, res.Verdict.Err()
	}
	return wrapperspb.Int64(int64(res.PrincipalID)), nil
}

func (s *AuthGRPCService) setVerdict(ctx context.Context, v models.Verdict) {
	if err := grpc.SetHeader(ctx, metadata.Pairs(VerdictHeader, v.String())); err != nil {
		s.log.Debug(ctx, "Failed to set verdict header", logger.Fields{"error": err.Error()})
	}
}

// tokenFrom prefers the request body and falls back to the "token" metadata key.
func tokenFrom(ctx context.Context, req *wrapperspb.StringValue) string {
	if v := req.GetValue(); v != "" {
		return v
	}
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	if vals := md.Get(constants.TokenHeader); len(vals) > 0 {
		return vals[0]
	}
	return ""
}

// ================================================================================
// Service descriptor
// ================================================================================

// RegisterAuthorizationServer registers srv with s.
func RegisterAuthorizationServer(s grpc.ServiceRegistrar, srv AuthorizationServer) {
	s.RegisterService(&AuthorizationServiceDesc, srv)
}

// AuthorizationServiceDesc is the grpc.ServiceDesc for the Authorization service.
var AuthorizationServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AuthorizationServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "IssueToken", Handler: issueTokenHandler},
		{MethodName: "VerifyToken", Handler: verifyTokenHandler},
		{MethodName: "RevokeToken", Handler: revokeTokenHandler},
		{MethodName: "GetPrincipalFromToken", Handler: getPrincipalHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "authgate/auth/v1/authorization.proto",
}

func fullMethod(name string) string { return "/" + ServiceName + "/" + name }

func issueTokenHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.Int64Value)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AuthorizationServer).IssueToken(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod("IssueToken")}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(AuthorizationServer).IssueToken(ctx, req.(*wrapperspb.Int64Value))
	}
	return interceptor(ctx, in, info, handler)
}

func verifyTokenHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AuthorizationServer).VerifyToken(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod("VerifyToken")}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(AuthorizationServer).VerifyToken(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func revokeTokenHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AuthorizationServer).RevokeToken(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod("RevokeToken")}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(AuthorizationServer).RevokeToken(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func getPrincipalHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AuthorizationServer).GetPrincipalFromToken(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod("GetPrincipalFromToken")}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(AuthorizationServer).GetPrincipalFromToken(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}
