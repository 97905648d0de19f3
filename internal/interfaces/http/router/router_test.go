package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	appservice "github.com/turtacn/authgate/internal/application/service"
	"github.com/turtacn/authgate/internal/config"
	"github.com/turtacn/authgate/internal/domain/models"
	"github.com/turtacn/authgate/internal/domain/repository"
	"github.com/turtacn/authgate/internal/domain/service"
	"github.com/turtacn/authgate/internal/infrastructure/crypto"
	"github.com/turtacn/authgate/internal/infrastructure/monitoring"
	"github.com/turtacn/authgate/internal/infrastructure/persistence/postgres"
	redisconn "github.com/turtacn/authgate/internal/infrastructure/persistence/redis"
	"github.com/turtacn/authgate/internal/infrastructure/redis"
	"github.com/turtacn/authgate/internal/interfaces/http/handlers"
	"github.com/turtacn/authgate/internal/interfaces/http/middleware"
	"github.com/turtacn/authgate/internal/interfaces/http/router"
	"github.com/turtacn/authgate/pkg/constants"
	"github.com/turtacn/authgate/pkg/logger"
)

type gateway struct {
	mr      *miniredis.Miniredis
	users   *postgres.UserRepoImpl
	handler http.Handler
}

func newGateway(t *testing.T) *gateway {
	t.Helper()
	log := logger.NewNoopLogger()
	ctx := context.Background()

	db, err := postgres.NewDBConnection(ctx, config.DatabaseConfig{
		Driver:      "sqlite",
		SQLitePath:  filepath.Join(t.TempDir(), "gateway.db"),
		AutoMigrate: true,
	}, log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	rc := redisconn.NewRedisConnection(config.RedisConfig{Mode: "standalone", Addresses: []string{mr.Addr()}}, log)
	require.NoError(t, rc.Connect(ctx))
	t.Cleanup(func() { _ = rc.Close() })

	reg := prometheus.NewRegistry()
	metrics := monitoring.NewMetrics(reg)

	codec, err := crypto.NewJWTManager([]byte("gateway-test-secret-0123456789"), time.Hour, log)
	require.NoError(t, err)
	authority := service.NewTokenAuthority(codec, redis.NewRevocationStore(rc.Client(), 500*time.Millisecond), log,
		service.WithMetrics(metrics))

	users := postgres.NewUserRepository(db.DB(), log)
	enforcer := service.NewEnforcer(authority, users, nil, metrics, log)
	authz := middleware.NewAuthz(enforcer, log)

	accounts := appservice.NewAccountAppService(appservice.AccountDeps{
		Users:     users,
		Authority: authority,
		Verifier:  service.NewCredentialVerifier(true, log),
		Metrics:   metrics,
		TokenTTL:  time.Hour,
	}, log)
	catalog := appservice.NewCatalogAppService(postgres.NewProductRepository(db.DB(), log), log)

	r := router.NewRouter(config.ServerConfig{Host: "127.0.0.1", HTTPPort: 0}, router.Deps{
		Health:   handlers.NewHealthHandler(map[string]handlers.Pinger{"database": db, "redis": rc}, log),
		Users:    handlers.NewUserHandler(accounts, log),
		Products: handlers.NewProductHandler(catalog, authz, log),
		Authz:    authz,
		Metrics:  metrics,
		Tracer:   otel.Tracer("gateway-test"),
		Gatherer: reg,
	}, log)

	return &gateway{mr: mr, users: users, handler: r.Engine()}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func (g *gateway) do(t *testing.T, method, path, token string, body interface{}) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set(constants.TokenHeader, token)
	}
	w := httptest.NewRecorder()
	g.handler.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w.Code, env
}

// signup registers name and logs in, returning the user id and token.
func (g *gateway) signup(t *testing.T, name string) (int64, string) {
	t.Helper()
	code, env := g.do(t, http.MethodPost, "/api/v1/users/create", "", map[string]string{
		"username": name, "password": name + "-pw", "email": name + "@example.com",
	})
	require.Equal(t, http.StatusCreated, code)
	var user struct {
		ID int64 `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &user))

	code, env = g.do(t, http.MethodPost, "/api/v1/users/login", "", map[string]string{
		"username": name, "password": name + "-pw",
	})
	require.Equal(t, http.StatusOK, code)
	var login struct {
		Token  string `json:"token"`
		UserID int64  `json:"user_id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &login))
	require.Equal(t, user.ID, login.UserID)
	return user.ID, login.Token
}

func (g *gateway) setRole(t *testing.T, id int64, role constants.Role) {
	t.Helper()
	require.NoError(t, g.users.Update(context.Background(), models.PrincipalID(id), repository.UserUpdate{Role: &role}))
}

func TestGateway_RoleIsRecheckedPerRequest(t *testing.T) {
	g := newGateway(t)
	aliceID, aliceToken := g.signup(t, "alice")
	bobID, _ := g.signup(t, "bob")
	target := fmt.Sprintf("/api/v1/users/%d", bobID)

	code, env := g.do(t, http.MethodDelete, target, aliceToken, nil)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "forbidden", env.Error)

	// Same token, role promoted in the directory.
	g.setRole(t, aliceID, constants.RoleAdmin)
	code, _ = g.do(t, http.MethodDelete, target, aliceToken, nil)
	assert.Equal(t, http.StatusNoContent, code)

	// And demoted again.
	g.setRole(t, aliceID, constants.RoleUser)
	code, _ = g.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/users/%d", aliceID), aliceToken, nil)
	assert.Equal(t, http.StatusForbidden, code)
}

func TestGateway_RevokedTokenOnSelfServiceUpdate(t *testing.T) {
	g := newGateway(t)
	id, token := g.signup(t, "carol")
	path := fmt.Sprintf("/api/v1/users/%d", id)

	code, _ := g.do(t, http.MethodPut, path, token, map[string]string{"email": "carol@new.example.com"})
	require.Equal(t, http.StatusOK, code)

	code, _ = g.do(t, http.MethodPost, "/api/v1/users/logout", token, nil)
	require.Equal(t, http.StatusOK, code)

	code, env := g.do(t, http.MethodPut, path, token, map[string]string{"email": "carol@other.example.com"})
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "token_revoked", env.Error)
}

func TestGateway_TokenDenials(t *testing.T) {
	g := newGateway(t)
	id, token := g.signup(t, "dave")
	otherID, _ := g.signup(t, "erin")

	tests := []struct {
		name   string
		path   string
		token  string
		status int
		error  string
	}{
		{"missing token", fmt.Sprintf("/api/v1/users/%d", id), "", http.StatusUnauthorized, "token_missing"},
		{"garbage token", fmt.Sprintf("/api/v1/users/%d", id), "not-a-jwt", http.StatusUnauthorized, "token_malformed"},
		{"foreign user", fmt.Sprintf("/api/v1/users/%d", otherID), token, http.StatusForbidden, "forbidden"},
		{"bad path id", "/api/v1/users/abc", token, http.StatusBadRequest, "invalid_request"},
		{"bad path id without token", "/api/v1/users/abc", "", http.StatusUnauthorized, "token_missing"},
		{"bad path id with garbage token", "/api/v1/users/abc", "not-a-jwt", http.StatusUnauthorized, "token_malformed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, env := g.do(t, http.MethodGet, tt.path, tt.token, nil)
			assert.Equal(t, tt.status, code)
			assert.Equal(t, tt.error, env.Error)
		})
	}

	t.Run("bearer header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/v1/users/%d", id), nil)
		req.Header.Set(constants.AuthorizationHeader, "Bearer "+token)
		w := httptest.NewRecorder()
		g.handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestGateway_StoreUnavailable(t *testing.T) {
	g := newGateway(t)
	id, token := g.signup(t, "frank")
	g.mr.Close()

	code, env := g.do(t, http.MethodGet, fmt.Sprintf("/api/v1/users/%d", id), token, nil)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "store_unavailable", env.Error)

	code, _ = g.do(t, http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, code)
}

func TestGateway_ProductOwnership(t *testing.T) {
	g := newGateway(t)
	id, token := g.signup(t, "grace")
	adminID, adminToken := g.signup(t, "heidi")
	g.setRole(t, adminID, constants.RoleAdmin)

	product := func(owner int64) map[string]interface{} {
		return map[string]interface{}{"name": "lamp", "price": 12.5, "state": "new", "owner_id": owner}
	}

	code, env := g.do(t, http.MethodPost, "/api/v1/products/", token, product(id))
	require.Equal(t, http.StatusCreated, code)
	var created struct {
		ID int64 `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))

	code, env = g.do(t, http.MethodPost, "/api/v1/products/", token, product(adminID))
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "forbidden", env.Error)

	// Admins cannot create on behalf of others either.
	code, _ = g.do(t, http.MethodPost, "/api/v1/products/", adminToken, product(id))
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = g.do(t, http.MethodPost, "/api/v1/products/", "", product(id))
	assert.Equal(t, http.StatusUnauthorized, code)

	// The token is judged before the body.
	code, env = g.do(t, http.MethodPost, "/api/v1/products/", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "token_missing", env.Error)
	code, env = g.do(t, http.MethodPost, "/api/v1/products/", token, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "invalid_request", env.Error)

	path := fmt.Sprintf("/api/v1/products/%d", created.ID)
	code, _ = g.do(t, http.MethodGet, path, "", nil)
	assert.Equal(t, http.StatusOK, code)

	code, _ = g.do(t, http.MethodPut, path, token, product(id))
	assert.Equal(t, http.StatusForbidden, code)
	code, _ = g.do(t, http.MethodPut, path, adminToken, product(id))
	assert.Equal(t, http.StatusOK, code)

	code, _ = g.do(t, http.MethodDelete, path, adminToken, nil)
	assert.Equal(t, http.StatusNoContent, code)
	code, env = g.do(t, http.MethodGet, path, "", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "not_found", env.Error)
}

func TestGateway_RoleChangeRequiresAdmin(t *testing.T) {
	g := newGateway(t)
	id, token := g.signup(t, "ivan")
	path := fmt.Sprintf("/api/v1/users/%d", id)

	code, env := g.do(t, http.MethodPut, path, token, map[string]string{"role": "admin"})
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "forbidden", env.Error)

	adminID, adminToken := g.signup(t, "judy")
	g.setRole(t, adminID, constants.RoleAdmin)
	code, env = g.do(t, http.MethodPut, path, adminToken, map[string]string{"role": "admin"})
	require.Equal(t, http.StatusOK, code)
	var user struct {
		Role string `json:"role"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &user))
	assert.Equal(t, "admin", user.Role)
}

func TestGateway_LoginFailures(t *testing.T) {
	g := newGateway(t)
	g.signup(t, "ken")

	for _, body := range []map[string]string{
		{"username": "ken", "password": "wrong"},
		{"username": "nobody", "password": "whatever"},
	} {
		code, env := g.do(t, http.MethodPost, "/api/v1/users/login", "", body)
		assert.Equal(t, http.StatusUnauthorized, code)
		assert.Equal(t, "invalid_credentials", env.Error)
	}

	code, env := g.do(t, http.MethodPost, "/api/v1/users/login", "", map[string]string{"username": "ken"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "invalid_request", env.Error)

	code, env = g.do(t, http.MethodPost, "/api/v1/users/logout", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "token_missing", env.Error)
}

func TestGateway_OperationalEndpoints(t *testing.T) {
	g := newGateway(t)

	code, _ := g.do(t, http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusOK, code)
	code, _ = g.do(t, http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusOK, code)

	code, env := g.do(t, http.MethodGet, "/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "not_found", env.Error)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	g.handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "authgate_http_requests_total")
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
}
