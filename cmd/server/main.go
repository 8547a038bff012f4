package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"usersvc/docs"
	"usersvc/internal/auth"
	"usersvc/internal/cache"
	"usersvc/internal/config"
	"usersvc/internal/db"
	"usersvc/internal/handler"
	"usersvc/internal/logger"
	"usersvc/internal/repository"
	"usersvc/internal/router"
	"usersvc/internal/service"
)

const shutdownTimeout = 10 * time.Second

// @title User Service API
// @version 1.0
// @description User records, password login and JWT verification.
// @host localhost:3003
// @BasePath /
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat}, handler.ServiceName)

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func run(cfg *config.Config, log zerolog.Logger) error {
	secret, err := auth.LoadSecret(cfg.JWTSecret)
	if err != nil {
		return err
	}
	log.Info().Int("length", secret.Len()).Msg("JWT_SECRET loaded")

	backend, closeBackend, err := openBackend(cfg, log)
	if err != nil {
		return err
	}
	defer closeBackend()

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB, logger.Component(log, "cache"))
	defer cacheClient.Close()

	hasher := auth.NewBcryptHasher(auth.WithCost(cfg.BcryptCost))
	if hasher.Cost() != cfg.BcryptCost {
		log.Warn().Int("requested", cfg.BcryptCost).Int("using", hasher.Cost()).Msg("BCRYPT_COST out of range")
	}
	jwtService := auth.NewJWTService(secret, cfg.TokenTTL)
	log.Info().Dur("token_ttl", jwtService.TTL()).Msg("token service ready")

	// Initialize repositories
	userRepo := repository.NewUserRepository(backend, hasher,
		repository.WithLogger(logger.Component(log, "repository")))

	// Initialize services
	authService := service.NewAuthService(userRepo, jwtService, hasher, logger.Component(log, "auth"))
	userService := service.NewUserService(userRepo, cacheClient)

	// Initialize handlers
	httpLog := logger.Component(log, "http")
	authHandler := handler.NewAuthHandler(authService, httpLog)
	userHandler := handler.NewUserHandler(userService, httpLog)
	healthHandler := handler.NewHealthHandler(userRepo, cacheClient, httpLog)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	router.Register(e, httpLog, authService, authHandler, userHandler, healthHandler)

	if cfg.SwaggerHost != "" {
		docs.SwaggerInfo.Host = strings.TrimPrefix(strings.TrimPrefix(cfg.SwaggerHost, "http://"), "https://")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Addr()).Str("store", cfg.StoreDriver).Bool("cache", cacheClient.Enabled()).Msg("user service listening")
		if err := e.Start(cfg.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

func openBackend(cfg *config.Config, log zerolog.Logger) (db.Backend, func(), error) {
	noop := func() {}

	switch cfg.StoreDriver {
	case config.StoreMemory:
		log.Warn().Msg("STORE_DRIVER=memory: users are lost on restart")
		return db.NewMemoryBackend(), noop, nil
	case config.StoreMySQL:
		gormDB, err := db.NewMySQL(cfg.MySQLDSN)
		if err != nil {
			return nil, noop, fmt.Errorf("database init: %w", err)
		}
		backend, err := db.NewMySQLBackend(gormDB)
		if err != nil {
			return nil, noop, fmt.Errorf("auto-migrate: %w", err)
		}
		closeDB := func() {
			if sqlDB, err := gormDB.DB(); err == nil {
				_ = sqlDB.Close()
			}
		}
		return backend, closeDB, nil
	default:
		backend := db.NewFileBackend(cfg.UsersFile)
		log.Info().Str("path", backend.Path()).Msg("using file store")
		return backend, noop, nil
	}
}
