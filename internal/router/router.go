package router

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.uber.org/zap"

	"calcapi/internal/auth"
	"calcapi/internal/config"
	apperrors "calcapi/internal/errors"
	"calcapi/internal/handler"
	"calcapi/internal/logging"
	"calcapi/internal/metrics"
)

// Register wires routes and middleware. seedHandler may be nil.
func Register(
	e *echo.Echo,
	cfg *config.Config,
	logger *zap.Logger,
	tokens *auth.TokenIssuer,
	authHandler *handler.AuthHandler,
	userHandler *handler.UserHandler,
	calculationHandler *handler.CalculationHandler,
	seedHandler *handler.SeedHandler,
) {
	e.HTTPErrorHandler = ErrorHandler(e, logger)

	e.Use(middleware.RequestID())
	e.Use(middleware.Recover())
	e.Use(logging.RequestLogger(logger))
	e.Use(metrics.Middleware())
	if cfg.RequestTimeout > 0 {
		e.Use(middleware.ContextTimeout(cfg.RequestTimeout))
	}

	// Add validator
	e.Validator = NewValidator()

	e.GET("/health", handler.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// Public routes
	e.POST("/auth/register", authHandler.Register)
	e.POST("/auth/login", authHandler.Login)
	e.POST("/auth/token", authHandler.Token)
	e.POST("/auth/refresh", authHandler.Refresh)
	if seedHandler != nil {
		e.POST("/seed/users", seedHandler.SeedUsers)
	}

	// Secured routes (require an access token). Attached per route so
	// unknown paths still answer 404.
	requireAuth := JWTMiddleware(tokens)

	e.GET("/users/me", userHandler.Me, requireAuth)

	e.POST("/calculations", calculationHandler.Create, requireAuth)
	e.GET("/calculations", calculationHandler.List, requireAuth)
	e.GET("/calculations/:id", calculationHandler.Get, requireAuth)
	e.DELETE("/calculations/:id", calculationHandler.Delete, requireAuth)
}

// JWTMiddleware accepts only access tokens issued by tokens. The decoded
// auth.AuthData is stored under handler.UserContextKey.
func JWTMiddleware(tokens *auth.TokenIssuer) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		ContextKey:  handler.UserContextKey,
		TokenLookup: "header:" + echo.HeaderAuthorization + ":Bearer ",
		ParseTokenFunc: func(c echo.Context, token string) (interface{}, error) {
			return tokens.DecodeAccess(token)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
			return echo.NewHTTPError(http.StatusUnauthorized, apperrors.ErrorResponse{
				Error: "Could not validate credentials",
				Code:  "INVALID_TOKEN",
			})
		},
	})
}

// ErrorHandler logs server errors before delegating to echo's default
// rendering.
func ErrorHandler(e *echo.Echo, logger *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code := http.StatusInternalServerError
		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
		}

		if code >= http.StatusInternalServerError {
			cause := err
			if he != nil && he.Internal != nil {
				cause = he.Internal
			}
			logger.Error("request failed",
				zap.String("method", c.Request().Method),
				zap.String("path", c.Path()),
				zap.Int("status", code),
				zap.Error(cause),
			)
			if he == nil {
				err = echo.NewHTTPError(code, apperrors.ErrorResponse{
					Error: "internal server error",
					Code:  "INTERNAL_ERROR",
				})
			}
		}

		e.DefaultHTTPErrorHandler(err, c)
	}
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator returns a validator that reports fields by their JSON name.
func NewValidator() *CustomValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"json", "form"} {
			name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return f.Name
	})
	return &CustomValidator{validator: v}
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
