package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/geocoder89/expensehub/internal/auth"
	"github.com/geocoder89/expensehub/internal/cache"
	"github.com/geocoder89/expensehub/internal/config"
	"github.com/geocoder89/expensehub/internal/http/handlers"
	"github.com/geocoder89/expensehub/internal/http/middlewares"
	"github.com/geocoder89/expensehub/internal/observability"
	"github.com/geocoder89/expensehub/internal/repo/postgres"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// NewRouter wires repositories, handlers and the middleware stack.
func NewRouter(
	log *slog.Logger,
	pool *pgxpool.Pool,
	cfg config.Config,
	prom *observability.Prom,
	registry *prometheus.Registry,
	limiter middlewares.Limiter,
) *gin.Engine {
	if cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}

	handlers.RegisterValidators()

	r := gin.New()
	r.HandleMethodNotAllowed = true

	// middleware
	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger(log))
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(cfg.AllowedOrigins))
	r.Use(middlewares.MaxBodyBytes(cfg.MaxBodyBytes))
	r.Use(middlewares.RequireJSON())
	r.Use(otelgin.Middleware("expensehub"))
	if prom != nil {
		r.Use(prom.GinHandleMiddleware())
	}

	r.NoRoute(func(ctx *gin.Context) {
		handlers.RespondNotFound(ctx, "Route not found")
	})
	r.NoMethod(func(ctx *gin.Context) {
		ctx.JSON(http.StatusMethodNotAllowed, handlers.Response{
			Success: false,
			Message: "Method not allowed",
		})
	})

	// health
	ping := func() error {
		if pool == nil {
			return nil
		}

		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
		defer cancel()

		return pool.Ping(ctx)
	}

	h := handlers.NewHealthHandler(cfg.Env, ping)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)

	if registry != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	}

	// repositories
	usersRepo := postgres.NewUsersRepo(pool, prom)
	expensesRepo := postgres.NewExpensesRepo(pool, prom)
	refreshRepo := postgres.NewRefreshTokensRepo(pool)

	jwtManager := auth.NewManager(cfg.JWTSecret, cfg.AccessTTL(), cfg.RefreshTTL())
	authMw := middlewares.NewAuthMiddleware(jwtManager)

	statsCache := cache.New(cfg.StatsCacheTTL)

	authHandler := handlers.NewAuthHandler(usersRepo, usersRepo, jwtManager, refreshRepo, cfg)
	expensesHandler := handlers.NewExpensesHandler(expensesRepo, statsCache, prom)

	// auth routes, throttled by IP
	authGroup := r.Group("/auth")
	if limiter != nil {
		authGroup.Use(middlewares.RateLimiterMiddleware(limiter, middlewares.KeyByIP))
	}
	authGroup.POST("/register", authHandler.Register)
	authGroup.POST("/login", authHandler.Login)
	authGroup.POST("/refresh", authHandler.Refresh)
	authGroup.POST("/logout", authHandler.Logout)
	authGroup.GET("/profile", authMw.RequireAuth(), authHandler.Profile)

	// expense routes, owner-scoped, throttled per user
	expensesGroup := r.Group("/expenses")
	expensesGroup.Use(authMw.RequireAuth())
	if limiter != nil {
		expensesGroup.Use(middlewares.RateLimiterMiddleware(limiter, middlewares.KeyByUserOrIP))
	}
	expensesGroup.GET("", expensesHandler.List)
	expensesGroup.POST("", expensesHandler.Create)
	expensesGroup.GET("/stats", expensesHandler.Stats)
	expensesGroup.PUT("/:id", expensesHandler.Update)
	expensesGroup.DELETE("/:id", expensesHandler.Delete)

	return r
}
