package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	apperrors "usersvc/internal/errors"
	"usersvc/internal/model"
	"usersvc/internal/service"
)

// HeaderUserID carries the user ID checked by ValidateUser.
const HeaderUserID = "X-User-Id"

// UserHandler bundles HTTP handlers.
type UserHandler struct {
	svc service.UserService
	log zerolog.Logger
}

// NewUserHandler creates a handler layer.
func NewUserHandler(svc service.UserService, log zerolog.Logger) *UserHandler {
	return &UserHandler{svc: svc, log: log}
}

// CreateUserRequest is the user creation payload. ID is optional; one is
// generated when omitted.
type CreateUserRequest struct {
	ID       string `json:"id"`
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// ValidateUserResponse confirms a user exists.
type ValidateUserResponse struct {
	Valid bool              `json:"valid"`
	User  *model.PublicUser `json:"user"`
}

// CreateUser godoc
// @Summary Create a new user
// @Tags users
// @Accept json
// @Produce json
// @Param user body CreateUserRequest true "User payload"
// @Success 201 {object} model.PublicUser
// @Failure 400 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /users [post]
func (h *UserHandler) CreateUser(c echo.Context) error {
	var req CreateUserRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody()
	}
	if err := c.Validate(&req); err != nil {
		return respondError(c, h.log, err)
	}

	created, err := h.svc.CreateUser(c.Request().Context(), &model.User{
		ID:       req.ID,
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusCreated, created)
}

// GetUser godoc
// @Summary Get user by ID
// @Tags users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} model.PublicUser
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /users/{id} [get]
func (h *UserHandler) GetUser(c echo.Context) error {
	user, err := h.svc.GetUser(c.Request().Context(), c.Param("id"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, user)
}

// ListUsers godoc
// @Summary Get all users
// @Tags users
// @Produce json
// @Success 200 {array} model.PublicUser
// @Failure 500 {object} errors.ErrorResponse
// @Router /users [get]
func (h *UserHandler) ListUsers(c echo.Context) error {
	users, err := h.svc.ListUsers(c.Request().Context())
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, users)
}

// ValidateUser godoc
// @Summary Validate user from X-User-Id header
// @Tags users
// @Produce json
// @Param X-User-Id header string true "User ID"
// @Success 200 {object} ValidateUserResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /users/validate/user [get]
func (h *UserHandler) ValidateUser(c echo.Context) error {
	id := c.Request().Header.Get(HeaderUserID)
	if id == "" {
		return echo.NewHTTPError(http.StatusBadRequest, apperrors.ErrorResponse{
			Error: "X-User-Id header is required",
			Code:  "MISSING_USER_ID",
		})
	}

	user, err := h.svc.ValidateUser(c.Request().Context(), id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, ValidateUserResponse{Valid: true, User: user})
}
