package grpc

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/grpc"
	grpcCodes "google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/turtacn/authgate/pkg/errors"
	"github.com/turtacn/authgate/pkg/logger"
)

// InterceptorChain 拦截器链
type InterceptorChain struct {
	log logger.Logger
}

// NewInterceptorChain 创建拦截器链
func NewInterceptorChain(log logger.Logger) *InterceptorChain {
	return &InterceptorChain{log: log.WithComponent("GRPCInterceptor")}
}

// UnaryRecoveryInterceptor 恢复拦截器(捕获 panic)
func (ic *InterceptorChain) UnaryRecoveryInterceptor() grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (resp interface{}, err error) {
		defer func() {
			if r := recover(); r != nil {
				ic.log.Error(ctx, "gRPC handler panic recovered", fmt.Errorf("%v", r),
					logger.Fields{"method": info.FullMethod},
				)
				err = status.Error(grpcCodes.Internal, "internal server error")
			}
		}()

		return handler(ctx, req)
	}
}

// UnaryLoggingInterceptor 日志拦截器
func (ic *InterceptorChain) UnaryLoggingInterceptor() grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		startTime := time.Now()

		var clientIP string
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if ips := md.Get("x-forwarded-for"); len(ips) > 0 {
				clientIP = ips[0]
			}
		}

		resp, err := handler(ctx, req)

		fields := logger.Fields{
			"method":      info.FullMethod,
			"client_ip":   clientIP,
			"duration_ms": time.Since(startTime).Milliseconds(),
			"status":      status.Code(err).String(),
		}
		if err != nil && errors.ShouldLogError(err) {
			ic.log.Error(ctx, "gRPC request failed", err, fields)
		} else {
			ic.log.Info(ctx, "gRPC request completed", fields)
		}

		return resp, err
	}
}

// UnaryErrorInterceptor 错误转换拦截器(将领域错误转换为 gRPC 状态码)
func (ic *InterceptorChain) UnaryErrorInterceptor() grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		resp, err := handler(ctx, req)
		if err == nil {
			return resp, nil
		}
		return resp, ToStatus(err)
	}
}

// ChainUnaryInterceptors 链式调用所有拦截器
func (ic *InterceptorChain) ChainUnaryInterceptors() grpc.ServerOption {
	return grpc.ChainUnaryInterceptor(
		ic.UnaryRecoveryInterceptor(), // 1. 恢复 panic
		ic.UnaryLoggingInterceptor(),  // 2. 日志
		ic.UnaryErrorInterceptor(),    // 3. 错误转换
	)
}

// ================================================================================
// Status conversion
// ================================================================================

// ToStatus converts a domain error into a gRPC status error. The message is
// "<code>: <detail>" so the client can restore the original AuthError.
func ToStatus(err error) error {
	if _, ok := status.FromError(err); ok {
		return err
	}
	ae := errors.FromError(err)
	detail := ae.Error()
	if ae.Code() == errors.CodeInternal {
		detail = ae.Description()
	}
	return status.Errorf(ae.GRPCCode(), "%s: %s", ae.Code(), detail)
}

// FromStatus converts a gRPC status error back into an AuthError. Transport
// failures that never reached the server map to ErrStoreUnavailable.
func FromStatus(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return errors.ErrStoreUnavailable.WithCause(err)
	}

	if code, detail, found := strings.Cut(st.Message(), ": "); found {
		if ae, ok := errors.FromCode(errors.Code(code)); ok {
			return ae.WithMessage("%s", detail)
		}
	}

	switch st.Code() {
	case grpcCodes.Unavailable, grpcCodes.DeadlineExceeded, grpcCodes.Canceled:
		return errors.ErrStoreUnavailable.WithCause(err)
	case grpcCodes.Unauthenticated:
		return errors.ErrTokenMalformed.WithCause(err)
	case grpcCodes.InvalidArgument:
		return errors.ErrInvalidRequest.WithCause(err)
	default:
		return errors.ErrInternal.WithCause(err)
	}
}
