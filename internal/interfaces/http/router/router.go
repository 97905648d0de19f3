package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/trace"

	"github.com/turtacn/authgate/internal/config"
	"github.com/turtacn/authgate/internal/domain/service"
	"github.com/turtacn/authgate/internal/infrastructure/monitoring"
	"github.com/turtacn/authgate/internal/interfaces/http/handlers"
	"github.com/turtacn/authgate/internal/interfaces/http/middleware"
	"github.com/turtacn/authgate/pkg/constants"
	"github.com/turtacn/authgate/pkg/logger"
)

// Deps groups what the gateway routes need.
type Deps struct {
	Health   *handlers.HealthHandler
	Users    *handlers.UserHandler
	Products *handlers.ProductHandler
	Authz    *middleware.Authz
	// Limiter throttles signup and login per client IP; nil disables it.
	Limiter  service.RateLimiter
	Metrics  *monitoring.Metrics
	Tracer   trace.Tracer
	Gatherer prometheus.Gatherer
}

// Router HTTP 路由器
type Router struct {
	engine *gin.Engine
	config config.ServerConfig
	deps   Deps
	logger logger.Logger
	server *http.Server
}

// NewRouter 创建路由器并注册全部路由
func NewRouter(cfg config.ServerConfig, deps Deps, log logger.Logger) *Router {
	gin.SetMode(gin.ReleaseMode)
	r := &Router{
		engine: gin.New(),
		config: cfg,
		deps:   deps,
		logger: log.WithComponent("Router"),
	}
	r.setupRoutes()
	r.server = &http.Server{
		Addr:           cfg.HTTPAddr(),
		Handler:        r.engine,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		MaxHeaderBytes: 1 << 20, // 1MB
	}
	return r
}

func (r *Router) setupRoutes() {
	// 全局中间件
	r.engine.Use(middleware.RecoveryMiddleware(r.logger), middleware.RequestID())
	if r.deps.Metrics != nil && r.deps.Tracer != nil {
		r.engine.Use(middleware.ObservabilityMiddleware(r.deps.Tracer, r.deps.Metrics))
	}
	r.engine.Use(middleware.LoggingMiddleware(r.logger))

	origins := r.config.CORSAllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.engine.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", constants.AuthorizationHeader, constants.TokenHeader, middleware.RequestIDHeader},
		ExposeHeaders:    []string{middleware.RequestIDHeader, constants.TokenHeader},
		AllowCredentials: len(origins) > 1 || origins[0] != "*",
		MaxAge:           12 * time.Hour,
	}))

	// 健康检查路由（不需要认证）
	r.engine.GET("/health/live", r.deps.Health.LivenessCheck)
	r.engine.GET("/health/ready", r.deps.Health.ReadinessCheck)

	// Prometheus metrics
	gatherer := r.deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	// Pprof 性能分析（仅在非生产环境）
	if r.config.EnablePprof {
		pprof.Register(r.engine)
	}

	var metrics service.Metrics
	if r.deps.Metrics != nil {
		metrics = r.deps.Metrics
	}

	authz := r.deps.Authz
	anyone := []constants.Role{constants.RoleUser, constants.RoleAdmin}
	adminOnly := []constants.Role{constants.RoleAdmin}

	v1 := r.engine.Group("/api/v1")
	{
		users := v1.Group("/users")
		{
			users.POST("/create", middleware.RateLimitMiddleware(r.deps.Limiter, "signup", metrics, r.logger), r.deps.Users.CreateUser)
			users.POST("/login", middleware.RateLimitMiddleware(r.deps.Limiter, "login", metrics, r.logger), r.deps.Users.Login)
			users.POST("/logout", r.deps.Users.Logout)
			users.GET("/:user_id", authz.RequireOwner("user_id", adminOnly, anyone...), r.deps.Users.GetUser)
			users.PUT("/:user_id", authz.RequireOwner("user_id", adminOnly, anyone...), r.deps.Users.UpdateUser)
			users.DELETE("/:user_id", authz.Require(adminOnly...), r.deps.Users.DeleteUser)
		}

		products := v1.Group("/products")
		{
			products.POST("/", r.deps.Products.CreateProduct)
			products.GET("/", r.deps.Products.ListProducts)
			products.GET("/:product_id", r.deps.Products.GetProduct)
			products.PUT("/:product_id", authz.Require(adminOnly...), r.deps.Products.UpdateProduct)
			products.DELETE("/:product_id", authz.Require(adminOnly...), r.deps.Products.DeleteProduct)
		}
	}

	// 404 处理
	r.engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error":             "not_found",
			"error_description": "The requested resource was not found",
		})
	})
}

// Start 启动 HTTP 服务器，阻塞直到 Stop 被调用
func (r *Router) Start() error {
	r.logger.Info(context.Background(), "Starting HTTP server", logger.Fields{"address": r.server.Addr})

	if err := r.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop 停止 HTTP 服务器
func (r *Router) Stop(ctx context.Context) error {
	r.logger.Info(ctx, "Stopping HTTP server...")
	return r.server.Shutdown(ctx)
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
