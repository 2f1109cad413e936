package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/biblioteca/maestros-api/internal/api/handler"
	"github.com/biblioteca/maestros-api/internal/api/middleware"
	"github.com/biblioteca/maestros-api/internal/core/domain"
	"github.com/biblioteca/maestros-api/internal/core/ports"
)

// Deps are the collaborators the HTTP layer needs.
type Deps struct {
	Ledger    ports.LedgerService
	Auth      ports.AuthService
	JWTSecret string
	Checks    map[string]handler.HealthCheck
	Log       zerolog.Logger
	// Registerer receives the HTTP metrics. Nil means the default registry.
	Registerer prometheus.Registerer
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)
	e.Validator = handler.NewValidator()

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace:  "maestros",
		Subsystem:  "http",
		Registerer: d.Registerer,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics"
		},
	}))

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(d.Auth)
	maestroHandler := handler.NewMaestroHandler(d.Ledger)
	movementHandler := handler.NewMovementHandler(d.Ledger)
	userHandler := handler.NewUserHandler(d.Ledger)
	healthHandler := handler.NewHealthHandler(d.Checks)

	// --- Public routes ---
	e.POST("/auth/login", authHandler.Login)
	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthHandler.Readiness)
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// --- Authenticated routes ---
	auth := middleware.Auth(d.JWTSecret)
	admin := middleware.RBAC(domain.RoleAdmin)

	e.GET("/maestros", maestroHandler.List, auth)
	e.POST("/maestros", maestroHandler.Create, auth, admin)
	e.GET("/maestros/:id", maestroHandler.Get, auth)
	e.GET("/maestros/:id/balance", maestroHandler.Balance, auth)
	e.GET("/maestros/:id/balance-history", maestroHandler.BalanceHistory, auth)

	e.GET("/movements", movementHandler.List, auth)
	e.POST("/movements", movementHandler.Create, auth)

	e.GET("/users", userHandler.List, auth, admin)
	e.PUT("/users/:id", userHandler.UpdateRole, auth, admin)

	return e
}
