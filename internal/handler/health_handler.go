package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"usersvc/internal/cache"
	"usersvc/internal/repository"
)

// ServiceName identifies this service in health and index responses.
const ServiceName = "user-service"

const readyTimeout = 2 * time.Second

// HealthHandler serves the index and health endpoints.
type HealthHandler struct {
	repo  repository.UserRepository
	cache *cache.Client
	log   zerolog.Logger
}

// NewHealthHandler creates a health handler. cache may be nil.
func NewHealthHandler(repo repository.UserRepository, cache *cache.Client, log zerolog.Logger) *HealthHandler {
	return &HealthHandler{repo: repo, cache: cache, log: log}
}

// Endpoint describes one route in the index listing.
type Endpoint struct {
	Method      string `json:"method"`
	Path        string `json:"path"`
	Description string `json:"description"`
}

// IndexResponse lists the service's endpoints.
type IndexResponse struct {
	Service   string     `json:"service"`
	Endpoints []Endpoint `json:"endpoints"`
}

// HealthResponse is returned by the health endpoints.
type HealthResponse struct {
	Status  string            `json:"status"`
	Service string            `json:"service,omitempty"`
	Checks  map[string]string `json:"checks,omitempty"`
}

var endpoints = []Endpoint{
	{Method: http.MethodGet, Path: "/users", Description: "Get all users"},
	{Method: http.MethodGet, Path: "/users/:id", Description: "Get user by ID"},
	{Method: http.MethodPost, Path: "/users", Description: "Create a new user"},
	{Method: http.MethodGet, Path: "/users/validate/user", Description: "Validate user from X-User-Id header"},
	{Method: http.MethodPost, Path: "/auth/login", Description: "Login with email and password"},
	{Method: http.MethodGet, Path: "/auth/me", Description: "Get current user data (requires auth)"},
	{Method: http.MethodGet, Path: "/auth/verify", Description: "Verify JWT token (requires auth)"},
	{Method: http.MethodGet, Path: "/health", Description: "Health check"},
	{Method: http.MethodGet, Path: "/health/live", Description: "Liveness check"},
	{Method: http.MethodGet, Path: "/health/ready", Description: "Readiness check"},
}

// Index godoc
// @Summary API index
// @Tags health
// @Produce json
// @Success 200 {object} IndexResponse
// @Router / [get]
func (h *HealthHandler) Index(c echo.Context) error {
	return c.JSON(http.StatusOK, IndexResponse{Service: ServiceName, Endpoints: endpoints})
}

// Health godoc
// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /health [get]
func (h *HealthHandler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "healthy", Service: ServiceName})
}

// Live godoc
// @Summary Liveness check
// @Tags health
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /health/live [get]
func (h *HealthHandler) Live(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "live"})
}

// Ready godoc
// @Summary Readiness check
// @Description Ready once the user store can be read. The cache is reported but never blocks readiness.
// @Tags health
// @Produce json
// @Success 200 {object} HealthResponse
// @Failure 503 {object} HealthResponse
// @Router /health/ready [get]
func (h *HealthHandler) Ready(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), readyTimeout)
	defer cancel()

	checks := map[string]string{"store": "ok", "cache": "disabled"}

	if _, err := h.repo.List(ctx); err != nil {
		h.log.Warn().Err(err).Msg("readiness: store unavailable")
		checks["store"] = "unavailable"
		return c.JSON(http.StatusServiceUnavailable, HealthResponse{Status: "not ready", Checks: checks})
	}

	if h.cache.Enabled() {
		checks["cache"] = "ok"
		if err := h.cache.Ping(ctx); err != nil {
			h.log.Warn().Err(err).Msg("readiness: cache unavailable")
			checks["cache"] = "unavailable"
		}
	}

	return c.JSON(http.StatusOK, HealthResponse{Status: "ready", Checks: checks})
}
