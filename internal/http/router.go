package http

import (
	"log/slog"
	stdhttp "net/http"

	"github.com/geocoder89/taskhub/internal/config"
	"github.com/geocoder89/taskhub/internal/domain/user"
	"github.com/geocoder89/taskhub/internal/http/handlers"
	"github.com/geocoder89/taskhub/internal/http/middlewares"
	"github.com/geocoder89/taskhub/internal/observability"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

const serviceName = "taskhub-api"

// Deps is everything the router wires into handlers.
type Deps struct {
	Config   config.Config
	Auth     handlers.AuthFlow
	Tasks    handlers.TaskEngine
	Users    handlers.UserAdmin
	Tokens   middlewares.TokenVerifier
	Prom     *observability.Prom
	Gatherer prometheus.Gatherer
	Ping     handlers.PingFunc
	Draining func() bool
}

func NewRouter(log *slog.Logger, deps Deps) *gin.Engine {
	cfg := deps.Config

	if cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.HandleMethodNotAllowed = true

	// middleware
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(serviceName))
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger(log))
	if deps.Prom != nil {
		r.Use(deps.Prom.GinHandleMiddleware())
	}
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(cfg.CORSAllowedOrigins))

	r.NoRoute(func(ctx *gin.Context) {
		handlers.RespondNotFound(ctx, "Route not found")
	})
	r.NoMethod(func(ctx *gin.Context) {
		handlers.RespondError(ctx, stdhttp.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed", nil)
	})

	// health, metrics, docs
	h := handlers.NewHealthHandler(deps.Ping, deps.Draining)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)

	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	r.GET("/docs", handlers.SwaggerUI)
	r.GET("/docs/openapi.yaml", handlers.OpenAPISpec)

	authMW := middlewares.NewAuthMiddleware(deps.Tokens, deps.Prom)
	limiter := middlewares.NewRateLimiter(cfg.AuthRateLimit, cfg.AuthRateWindow)

	api := r.Group("/api")
	api.Use(middlewares.MaxBodyBytes(cfg.MaxBodyBytes))
	api.Use(middlewares.RequireJSON())

	authHandler := handlers.NewAuthHandler(deps.Auth)
	authRoutes := api.Group("/auth")
	{
		authRoutes.POST("/register", limiter.RateLimiterMiddleware(middlewares.KeyByIP), authHandler.Register)
		authRoutes.POST("/login", limiter.RateLimiterMiddleware(middlewares.KeyByIP), authHandler.Login)

		authed := authRoutes.Group("", authMW.RequireAuth())
		authed.POST("/logout", authHandler.Logout)
		authed.GET("/me", authHandler.Me)
		authed.PUT("/profile", authHandler.UpdateProfile)
		authed.PUT("/change-password", limiter.RateLimiterMiddleware(middlewares.KeyByUserOrIP), authHandler.ChangePassword)
	}

	tasksHandler := handlers.NewTasksHandler(deps.Tasks)
	tasks := api.Group("/tasks", authMW.RequireAuth())
	{
		tasks.GET("", tasksHandler.ListTasks)
		tasks.POST("", tasksHandler.CreateTask)
		tasks.GET("/stats", tasksHandler.Stats)
		tasks.GET("/:id", tasksHandler.GetTask)
		tasks.PUT("/:id", tasksHandler.UpdateTask)
		tasks.DELETE("/:id", tasksHandler.DeleteTask)
		tasks.PATCH("/:id/toggle", tasksHandler.ToggleTask)
	}

	usersHandler := handlers.NewUsersHandler(deps.Users)
	users := api.Group("/users", authMW.RequireAuth())
	{
		// self or admin, decided by the service
		users.GET("/:id", usersHandler.GetUser)

		admin := users.Group("", authMW.RequireRole(user.RoleAdmin))
		admin.GET("", usersHandler.ListUsers)
		admin.PUT("/:id/status", usersHandler.SetStatus)
		admin.DELETE("/:id", usersHandler.DeleteUser)
	}

	return r
}
