package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"usersvc/internal/auth"
	apperrors "usersvc/internal/errors"
	"usersvc/internal/model"
	"usersvc/internal/service"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	authService service.AuthService
	log         zerolog.Logger
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(authService service.AuthService, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{authService: authService, log: log}
}

// LoginRequest represents a user login request.
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse represents a successful login.
type LoginResponse struct {
	Token string            `json:"token"`
	User  *model.PublicUser `json:"user"`
}

// VerifyResponse echoes the identity carried by a verified token.
type VerifyResponse struct {
	UserID string `json:"userId"`
	Email  string `json:"email,omitempty"`
	Role   string `json:"role"`
	Name   string `json:"name,omitempty"`
}

// Login godoc
// @Summary Login with email and password
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login credentials"
// @Success 200 {object} LoginResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody()
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, apperrors.ErrorResponse{
			Error: "Email and password are required",
			Code:  "VALIDATION_FAILED",
		})
	}

	token, user, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return respondError(c, h.log, err)
	}

	return c.JSON(http.StatusOK, LoginResponse{Token: token, User: user})
}

// Me godoc
// @Summary Get current user data
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.PublicUser
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /auth/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	claims, err := claimsFrom(c)
	if err != nil {
		return respondError(c, h.log, err)
	}

	user, err := h.authService.CurrentUser(c.Request().Context(), claims)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, user)
}

// Verify godoc
// @Summary Verify JWT token
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} VerifyResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /auth/verify [get]
func (h *AuthHandler) Verify(c echo.Context) error {
	claims, err := claimsFrom(c)
	if err != nil {
		return respondError(c, h.log, err)
	}

	return c.JSON(http.StatusOK, VerifyResponse{
		UserID: claims.LookupID(),
		Email:  claims.Email,
		Role:   claims.Role,
		Name:   claims.Name,
	})
}

func claimsFrom(c echo.Context) (*auth.Claims, error) {
	claims, ok := c.Get(ClaimsContextKey).(*auth.Claims)
	if !ok || claims == nil {
		return nil, apperrors.ErrMissingToken
	}
	return claims, nil
}

// BearerErrorHandler renders failures of the bearer middleware. Anything that
// is not a verification failure means no usable token was sent.
func BearerErrorHandler(c echo.Context, err error) error {
	if errors.Is(err, apperrors.ErrInvalidToken) {
		return echo.NewHTTPError(http.StatusUnauthorized, apperrors.ErrorResponse{
			Error: "Invalid token",
			Code:  "INVALID_TOKEN",
		})
	}
	return echo.NewHTTPError(http.StatusUnauthorized, apperrors.ErrorResponse{
		Error: "No token provided",
		Code:  "MISSING_TOKEN",
	})
}
