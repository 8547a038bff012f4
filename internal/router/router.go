package router

import (
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	"usersvc/internal/handler"
	"usersvc/internal/service"
)

// Register wires routes and middleware.
func Register(
	e *echo.Echo,
	log zerolog.Logger,
	authService service.AuthService,
	authHandler *handler.AuthHandler,
	userHandler *handler.UserHandler,
	healthHandler *handler.HealthHandler,
) {
	e.Use(middleware.RequestID())
	e.Use(requestLogger(log))
	e.Use(middleware.Recover())

	e.Validator = handler.NewValidator()

	e.GET("/", healthHandler.Index)
	e.GET("/health", healthHandler.Health)
	e.GET("/health/live", healthHandler.Live)
	e.GET("/health/ready", healthHandler.Ready)

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// Public routes
	e.POST("/auth/login", authHandler.Login)

	users := e.Group("/users")
	users.GET("", userHandler.ListUsers)
	users.POST("", userHandler.CreateUser)
	users.GET("/validate/user", userHandler.ValidateUser)
	users.GET("/:id", userHandler.GetUser)

	// Secured routes (require a bearer token)
	secured := e.Group("/auth", BearerAuth(authService))
	secured.GET("/me", authHandler.Me)
	secured.GET("/verify", authHandler.Verify)
}

// BearerAuth returns echo-jwt middleware whose parsing is delegated to the
// AuthService, so the signing secret lives in one place. The whole header
// value is handed over; AuthService checks the "Bearer " scheme itself.
func BearerAuth(authService service.AuthService) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		TokenLookup: "header:" + echo.HeaderAuthorization,
		ContextKey:  handler.ClaimsContextKey,
		ParseTokenFunc: func(c echo.Context, authorization string) (interface{}, error) {
			return authService.Authenticate(c.Request().Context(), authorization)
		},
		ErrorHandler: handler.BearerErrorHandler,
	})
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			event := log.Info()
			if v.Error != nil {
				event = log.Warn().Err(v.Error)
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
