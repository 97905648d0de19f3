package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/authgate/internal/config"
	"github.com/turtacn/authgate/pkg/logger"
)

func TestRedisConnection_Lifecycle(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	rc := NewRedisConnection(config.RedisConfig{Addresses: []string{mr.Addr()}}, logger.NewNoopLogger())
	assert.Nil(t, rc.Client())
	assert.Error(t, rc.Ping(context.Background()))

	require.NoError(t, rc.Connect(context.Background()))
	require.NotNil(t, rc.Client())
	assert.NoError(t, rc.Ping(context.Background()))

	health, err := rc.HealthCheck(context.Background())
	require.NoError(t, err)
	assert.Equal(t, true, health["connected"])

	require.NoError(t, rc.Close())
	assert.Nil(t, rc.Client())
}

func TestRedisConnection_ConnectFailures(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.RedisConfig
	}{
		{"unreachable", config.RedisConfig{Addresses: []string{"127.0.0.1:1"}}},
		{"unknown mode", config.RedisConfig{Mode: "ring", Addresses: []string{"127.0.0.1:1"}}},
		{"sentinel without master", config.RedisConfig{Mode: "sentinel", Addresses: []string{"127.0.0.1:1"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rc := NewRedisConnection(tt.cfg, logger.NewNoopLogger())
			assert.Error(t, rc.Connect(context.Background()))
			assert.Nil(t, rc.Client())
		})
	}
}
