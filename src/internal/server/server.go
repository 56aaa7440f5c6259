package server

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/viper"
	"gorm.io/gorm"

	echoMiddleware "github.com/casapps/cascontacts/src/internal/api/middleware"
	"github.com/casapps/cascontacts/src/internal/auth"
	"github.com/casapps/cascontacts/src/internal/cache"
	apperrors "github.com/casapps/cascontacts/src/internal/errors"
	"github.com/casapps/cascontacts/src/internal/services"
)

// Server represents the main application server
type Server struct {
	echo        *echo.Echo
	config      *viper.Viper
	db          *gorm.DB
	logger      *slog.Logger
	cache       *cache.Manager
	auth        *auth.AuthService
	users       *services.UserService
	tags        *services.TagService
	contacts    *services.ContactService
	rateLimiter *echoMiddleware.RateLimiter
	errors      *apperrors.ErrorHandler
	version     string
}

// New creates a new server instance
func New(e *echo.Echo, cfg *viper.Viper, db *gorm.DB, logger *slog.Logger, version string) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	cacheManager := cache.NewManager(cfg)
	validator := apperrors.NewValidator()

	authService := auth.NewAuthService(
		cfg.GetString("security.secret_key"),
		cfg.GetString("app.name"),
		cfg.GetDuration("security.jwt.access_token_ttl"),
	)

	s := &Server{
		echo:        e,
		config:      cfg,
		db:          db,
		logger:      logger,
		cache:       cacheManager,
		auth:        authService,
		users:       services.NewUserService(db, cfg, auth.NewTOTPService(cfg.GetString("app.name"))),
		tags:        services.NewTagService(db, cacheManager, validator),
		contacts:    services.NewContactService(db, validator),
		rateLimiter: echoMiddleware.NewRateLimiter(),
		errors:      apperrors.NewErrorHandler(cfg, apperrors.NewErrorLogger(logger)),
		version:     version,
	}

	e.HideBanner = true
	e.HTTPErrorHandler = s.errors.HTTPErrorHandler

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// Echo exposes the router, mainly for tests
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// Start starts the server and background housekeeping
func (s *Server) Start(ctx context.Context, address string) error {
	go s.sweepRateLimiter(ctx)

	s.logger.Info("Starting server",
		"address", address,
		"version", s.version,
		"cache", s.cache.Backend(),
	)
	return s.echo.Start(address)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	defer func() {
		if err := s.cache.Close(); err != nil {
			s.logger.Warn("Failed to close cache", "error", err)
		}
	}()
	return s.echo.Shutdown(ctx)
}

func (s *Server) setupMiddleware() {
	s.echo.Use(middleware.RequestID())

	// Pretty console logging
	s.echo.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "  ${time_rfc3339} | ${status} | ${latency_human} | ${method} ${uri} | ${id}\n",
		Output: s.getConsoleWriter(),
		Skipper: func(c echo.Context) bool {
			return s.config.GetBool("server.quiet")
		},
	}))

	// Apache format to access.log file only
	if writer := s.getAccessLogWriter(); writer != nil {
		s.echo.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
			Format:           `${remote_ip} - - [${time_custom}] "${method} ${uri} ${protocol}" ${status} ${bytes_out}` + "\n",
			CustomTimeFormat: "02/Jan/2006:15:04:05 -0700",
			Output:           writer,
		}))
	}

	s.echo.Use(s.errors.RecoverMiddleware())
	s.echo.Use(middleware.BodyLimit("1M"))

	s.echo.Use(echoMiddleware.CORS(s.config))
	s.echo.Use(echoMiddleware.Security())
}

// sweepRateLimiter drops idle rate limit buckets until ctx ends
func (s *Server) sweepRateLimiter(ctx context.Context) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.rateLimiter.Cleanup()
		}
	}
}

// getConsoleWriter returns stdout for pretty console logging
func (s *Server) getConsoleWriter() io.Writer {
	return os.Stdout
}

// getAccessLogWriter returns the configured access log file, or nil
func (s *Server) getAccessLogWriter() io.Writer {
	accessLogPath := s.config.GetString("server.access_log")
	if accessLogPath == "" {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(accessLogPath), 0755); err != nil {
		s.logger.Warn("Failed to create log directory", "path", accessLogPath, "error", err)
		return nil
	}

	logFile, err := os.OpenFile(accessLogPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		s.logger.Warn("Failed to open access log", "path", accessLogPath, "error", err)
		return nil
	}

	s.logger.Info("Access logging enabled", "path", accessLogPath)
	return logFile
}
