// Command auth-server runs the token authority behind its gRPC surface.
package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/turtacn/authgate/internal/bootstrap"
	grpcapi "github.com/turtacn/authgate/internal/interfaces/grpc"
	"github.com/turtacn/authgate/pkg/constants"
	"github.com/turtacn/authgate/pkg/logger"
)

func main() {
	configPath := pflag.String("config", "", "path to the YAML configuration file")
	pflag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "auth-server: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	rt, err := bootstrap.NewRuntime(configPath, constants.ServiceNameAuth)
	if err != nil {
		return err
	}
	log := rt.Logger

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), rt.Config.Server.ShutdownTimeout)
		defer cancel()
		if err := rt.Close(closeCtx); err != nil {
			log.Error(closeCtx, "Failed to release resources", err)
		}
	}()

	rc, err := rt.Redis(ctx)
	if err != nil {
		return err
	}
	// The authority keeps no database; audit events go to Kafka when enabled.
	authority, err := rt.Authority(ctx, rc, rt.AuditSink(nil))
	if err != nil {
		return err
	}

	addr := rt.Config.Server.GRPCAddr()
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	server := grpcapi.NewAuthGRPCServer(authority, log)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info(gctx, "gRPC server listening", logger.Fields{"address": addr})
		return server.Serve(lis)
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info(context.Background(), "Shutting down gRPC server...")
		stopped := make(chan struct{})
		go func() {
			server.GracefulStop()
			close(stopped)
		}()
		select {
		case <-stopped:
		case <-time.After(rt.Config.Server.ShutdownTimeout):
			server.Stop()
		}
		return nil
	})
	return g.Wait()
}
