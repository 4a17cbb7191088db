package api

import (
	"github.com/google/uuid"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"
	"github.com/unrolled/secure"

	_ "github.com/jiang666/visitmanagement2-sub000/internal/api/docs"
	"github.com/jiang666/visitmanagement2-sub000/internal/api/handler"
	"github.com/jiang666/visitmanagement2-sub000/internal/api/middleware"
	"github.com/jiang666/visitmanagement2-sub000/internal/core/domain"
	"github.com/jiang666/visitmanagement2-sub000/internal/core/ports"
)

// Services groups everything the HTTP layer calls into.
type Services struct {
	Auth        ports.AuthService
	Customers   ports.CustomerService
	Visits      ports.VisitService
	Schools     ports.SchoolService
	Departments ports.DepartmentService
	Users       ports.UserService
}

// Options tunes the router for the running environment.
type Options struct {
	Logger      zerolog.Logger
	Development bool
	// Readiness backs GET /health/ready; nil leaves the route unregistered.
	Readiness *handler.HealthDependenciesHandler
	// Registerer receives the HTTP request metrics; nil means the default registry.
	Registerer prometheus.Registerer
}

// NewRouter builds and returns the Echo instance with all routes registered.
//
// @title                       Visit Management API
// @version                     1.0
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func NewRouter(svc Services, opts Options) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(opts.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestIDWithConfig(echomiddleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(requestLogger(opts.Logger))
	e.Use(echo.WrapMiddleware(secure.New(secure.Options{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
		ReferrerPolicy:     "strict-origin-when-cross-origin",
		IsDevelopment:      opts.Development,
	}).Handler))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "visit",
		Registerer: opts.Registerer,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics"
		},
	}))

	// --- Dependencies ---
	authHandler := handler.NewAuthHandler(svc.Auth)
	customerHandler := handler.NewCustomerHandler(svc.Customers)
	visitHandler := handler.NewVisitHandler(svc.Visits)
	directoryHandler := handler.NewDirectoryHandler(svc.Schools, svc.Departments)
	userHandler := handler.NewUserHandler(svc.Users)
	authMiddleware := middleware.Auth(svc.Auth)
	managers := middleware.RBAC(domain.RoleAdmin, domain.RoleManager)
	admins := middleware.RBAC(domain.RoleAdmin)

	// --- Auth routes ---
	auth := e.Group("/api/auth")
	auth.POST("/login", authHandler.Login)
	auth.POST("/register", authHandler.Register)
	auth.POST("/refresh", authHandler.Refresh)
	auth.GET("/verify", authHandler.Verify)
	auth.GET("/check-username", authHandler.CheckUsername)
	auth.GET("/check-email", authHandler.CheckEmail)
	auth.GET("/user-info", authHandler.UserInfo, authMiddleware)
	auth.POST("/logout", authHandler.Logout, authMiddleware)
	auth.POST("/change-password", authHandler.ChangePassword, authMiddleware)

	// --- Entity routes (bearer token required) ---
	// Record-level checks live in the services; RBAC here only rejects
	// whole operations a role can never perform.
	protected := e.Group("/api", authMiddleware)

	customers := protected.Group("/customers")
	customers.GET("", customerHandler.List)
	customers.POST("", customerHandler.Create)
	customers.DELETE("/batch", customerHandler.BatchDelete, managers)
	customers.GET("/:id", customerHandler.Get)
	customers.PUT("/:id", customerHandler.Update)
	customers.DELETE("/:id", customerHandler.Delete, managers)
	customers.POST("/:id/transfer", customerHandler.Transfer, admins)
	customers.POST("/:id/merge/:targetId", customerHandler.Merge, managers)

	visits := protected.Group("/visit-records")
	visits.GET("", visitHandler.List)
	visits.POST("", visitHandler.Create)
	visits.DELETE("/batch", visitHandler.BatchDelete, managers)
	visits.GET("/:id", visitHandler.Get)
	visits.PUT("/:id", visitHandler.Update)
	visits.DELETE("/:id", visitHandler.Delete)

	schools := protected.Group("/schools")
	schools.GET("", directoryHandler.ListSchools)
	schools.GET("/:id", directoryHandler.GetSchool)
	schools.POST("", directoryHandler.CreateSchool, admins)
	schools.PUT("/:id", directoryHandler.UpdateSchool, admins)
	schools.DELETE("/:id", directoryHandler.DeleteSchool, admins)

	departments := protected.Group("/departments")
	departments.GET("", directoryHandler.ListDepartments)
	departments.GET("/by-school/:schoolId", directoryHandler.ListDepartments)
	departments.GET("/:id", directoryHandler.GetDepartment)
	departments.POST("", directoryHandler.CreateDepartment, managers)
	departments.PUT("/:id", directoryHandler.UpdateDepartment, managers)
	departments.DELETE("/batch", directoryHandler.BatchDeleteDepartments, managers)
	departments.DELETE("/:id", directoryHandler.DeleteDepartment, managers)

	users := protected.Group("/users")
	users.GET("", userHandler.List)
	users.POST("", userHandler.Create, admins)
	users.GET("/:id", userHandler.Get)
	users.PUT("/:id", userHandler.UpdateProfile)
	users.PATCH("/:id/status", userHandler.SetStatus, admins)
	users.PATCH("/:id/role", userHandler.Assign, admins)
	users.POST("/:id/reset-password", userHandler.ResetPassword, admins)
	users.DELETE("/:id", userHandler.Delete, admins)

	// --- Ops routes (no auth required) ---
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	healthHandler := handler.NewHealthHandler()
	e.GET("/health", healthHandler.Liveness) // liveness  – is the process alive?
	if opts.Readiness != nil {
		e.GET("/health/ready", opts.Readiness.Readiness) // readiness – are dependencies up?
	}

	return e
}

// requestLogger feeds one structured line per request into zerolog.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogRemoteIP:  true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			switch {
			case v.Status >= 500:
				ev = log.Error().Err(v.Error)
			case v.Error != nil:
				ev = log.Warn().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Str("remote_ip", v.RemoteIP).
				Msg("request")
			return nil
		},
	})
}
