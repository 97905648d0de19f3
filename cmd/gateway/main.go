// Command gateway runs the HTTP API. It reaches the token authority over
// gRPC when gateway.auth_addr is set and embeds it otherwise.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	appservice "github.com/turtacn/authgate/internal/application/service"
	"github.com/turtacn/authgate/internal/bootstrap"
	"github.com/turtacn/authgate/internal/domain/service"
	"github.com/turtacn/authgate/internal/infrastructure/persistence/postgres"
	grpcapi "github.com/turtacn/authgate/internal/interfaces/grpc"
	"github.com/turtacn/authgate/internal/interfaces/http/handlers"
	"github.com/turtacn/authgate/internal/interfaces/http/middleware"
	"github.com/turtacn/authgate/internal/interfaces/http/router"
	"github.com/turtacn/authgate/pkg/constants"
	"github.com/turtacn/authgate/pkg/logger"
)

func main() {
	configPath := pflag.String("config", "", "path to the YAML configuration file")
	pflag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "gateway: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	rt, err := bootstrap.NewRuntime(configPath, constants.ServiceNameGateway)
	if err != nil {
		return err
	}
	cfg := rt.Config
	log := rt.Logger

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := rt.Close(closeCtx); err != nil {
			log.Error(closeCtx, "Failed to release resources", err)
		}
	}()

	db, err := rt.Database(ctx)
	if err != nil {
		return err
	}
	rc, err := rt.Redis(ctx)
	if err != nil {
		return err
	}
	sink := rt.AuditSink(db)

	var authority service.TokenAuthority
	if cfg.Gateway.AuthAddr != "" {
		client, conn, err := grpcapi.Dial(cfg.Gateway.AuthAddr, cfg.Gateway.AuthTimeout, log)
		if err != nil {
			return fmt.Errorf("failed to dial token authority: %w", err)
		}
		rt.OnClose(func(context.Context) error { return conn.Close() })
		authority = client
		log.Info(ctx, "Using remote token authority", logger.Fields{"address": cfg.Gateway.AuthAddr})
	} else {
		embedded, err := rt.Authority(ctx, rc, sink)
		if err != nil {
			return err
		}
		authority = embedded
		log.Info(ctx, "Using embedded token authority")
	}

	limiter, err := rt.LoginLimiter(rc)
	if err != nil {
		return err
	}

	users := postgres.NewUserRepository(db.DB(), log)
	enforcer := service.NewEnforcer(authority, users, sink, rt.Metrics, log)
	authz := middleware.NewAuthz(enforcer, log)

	accounts := appservice.NewAccountAppService(appservice.AccountDeps{
		Users:     users,
		Authority: authority,
		Verifier:  service.NewCredentialVerifier(cfg.Credentials.LegacyMD5, log),
		Limiter:   limiter,
		Audit:     sink,
		Metrics:   rt.Metrics,
		TokenTTL:  cfg.JWT.TokenTTL,
	}, log)
	catalog := appservice.NewCatalogAppService(postgres.NewProductRepository(db.DB(), log), log)

	r := router.NewRouter(cfg.Server, router.Deps{
		Health:   handlers.NewHealthHandler(map[string]handlers.Pinger{"database": db, "redis": rc}, log),
		Users:    handlers.NewUserHandler(accounts, log),
		Products: handlers.NewProductHandler(catalog, authz, log),
		Authz:    authz,
		Limiter:  limiter,
		Metrics:  rt.Metrics,
		Tracer:   rt.Tracing.Tracer(),
		Gatherer: rt.Registry,
	}, log)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(r.Start)
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return r.Stop(shutdownCtx)
	})
	return g.Wait()
}
