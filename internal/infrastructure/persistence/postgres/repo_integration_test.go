//go:build integration

package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/turtacn/authgate/internal/config"
	"github.com/turtacn/authgate/internal/domain/repository"
	"github.com/turtacn/authgate/pkg/constants"
	"github.com/turtacn/authgate/pkg/errors"
	"github.com/turtacn/authgate/pkg/logger"
)

func TestUserRepository_Postgres(t *testing.T) {
	if os.Getenv("SKIP_DOCKER_TESTS") == "true" {
		t.Skip("Skipping Docker-dependent tests")
	}

	ctx := context.Background()
	pgContainer, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("authgate"),
		tcpostgres.WithUsername("authgate"),
		tcpostgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Minute),
		),
	)
	require.NoError(t, err)
	defer func() {
		require.NoError(t, pgContainer.Terminate(ctx))
	}()

	host, err := pgContainer.Host(ctx)
	require.NoError(t, err)
	port, err := pgContainer.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	conn, err := NewDBConnection(ctx, config.DatabaseConfig{
		Driver:      "postgres",
		Host:        host,
		Port:        port.Int(),
		User:        "authgate",
		Password:    "password",
		Database:    "authgate",
		SSLMode:     "disable",
		AutoMigrate: true,
	}, logger.NewNoopLogger())
	require.NoError(t, err)
	defer conn.Close()

	repo := NewUserRepository(conn.DB(), logger.NewNoopLogger())
	alice := createUser(t, repo, "alice", constants.RoleUser)
	createUser(t, repo, "bob", constants.RoleUser)

	admin := constants.RoleAdmin
	require.NoError(t, repo.Update(ctx, alice.ID, repository.UserUpdate{Role: &admin}))
	found, err := repo.FindByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.RoleAdmin, found.Role)

	dup := "bob"
	assert.ErrorIs(t, repo.Update(ctx, alice.ID, repository.UserUpdate{Username: &dup}), errors.ErrConflict)

	require.NoError(t, repo.SoftDelete(ctx, alice.ID))
	_, err = repo.FindByID(ctx, alice.ID)
	assert.ErrorIs(t, err, errors.ErrNotFound)

	require.NoError(t, conn.Ping(ctx))
}
