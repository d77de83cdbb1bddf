package api

import (
	"net/http"
	"strings"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/taskdesk/todo-service/docs"
	"github.com/taskdesk/todo-service/internal/api/handler"
	"github.com/taskdesk/todo-service/internal/api/metrics"
	"github.com/taskdesk/todo-service/internal/api/middleware"
	"github.com/taskdesk/todo-service/internal/core/ports"
	"github.com/taskdesk/todo-service/internal/infrastructure/http/handlers"
	"github.com/taskdesk/todo-service/internal/web"
)

// Dependencies is everything NewRouter needs to build the handlers.
type Dependencies struct {
	AuthService ports.AuthService
	TodoService ports.TodoService
	Store       ports.Pinger
	Redis       ports.Pinger // optional
	Logger      zerolog.Logger
	CORSOrigins []string
}

// NewRouter builds and returns the Echo instance with all routes registered.
// Each call gets its own Prometheus registry.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Logger)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	// Outside the request logger so errors are already rendered when the status is read.
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace:  metrics.Namespace,
		Registerer: reg,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics"
		},
	}))
	e.Use(requestLogger(deps.Logger))
	e.Use(cors(deps.CORSOrigins))
	e.Use(preflight)

	// --- Frontend ---
	static := web.Static()
	e.FileFS("/", "index.html", static)
	e.FileFS("/index.html", "index.html", static)
	e.FileFS("/style.css", "style.css", static)
	e.FileFS("/app.js", "app.js", static)

	// --- Operations ---
	readyDeps := map[string]ports.Pinger{"database": deps.Store}
	if deps.Redis != nil {
		readyDeps["redis"] = deps.Redis
	}
	e.GET("/health", handlers.NewHealthHandler().Liveness)
	e.GET("/health/ready", handlers.NewHealthDependenciesHandler(readyDeps).Readiness)
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: reg}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// --- Public API ---
	authHandler := handler.NewAuthHandler(deps.AuthService, m)
	systemHandler := handler.NewSystemHandler(deps.Store, deps.AuthService, m)

	e.GET("/api/test", systemHandler.TestConnection)
	e.POST("/api/init", systemHandler.InitDefaultUser)
	e.POST("/api/register", authHandler.Register)
	e.POST("/api/login", authHandler.Login)

	// --- Todos (bearer user id required) ---
	todoHandler := handler.NewTodoHandler(deps.TodoService, m)
	todos := e.Group("/api/todos", middleware.BearerUser())
	todos.GET("", todoHandler.List)
	todos.GET("/:id", todoHandler.Get)
	todos.POST("", todoHandler.Create)
	todos.PUT("", todoHandler.Update)
	todos.DELETE("", todoHandler.Delete)

	return e
}

func cors(origins []string) echo.MiddlewareFunc {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: origins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderContentType, echo.HeaderAuthorization, "Idempotency-Key"},
	})
}

// preflight answers every OPTIONS request with 204, whatever the path.
func preflight(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if c.Request().Method == http.MethodOptions {
			return c.NoContent(http.StatusNoContent)
		}
		return next(c)
	}
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		Skipper: func(c echo.Context) bool {
			return strings.HasPrefix(c.Path(), "/health") || c.Path() == "/metrics"
		},
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			event := log.Info()
			if v.Status >= http.StatusInternalServerError {
				event = log.Warn()
			}
			event.
				Str("request_id", v.RequestID).
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Msg("request")
			return nil
		},
	})
}
