package handler

import (
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	apperrors "usersvc/internal/errors"
)

// ClaimsContextKey is where the bearer middleware stores *auth.Claims.
const ClaimsContextKey = "claims"

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator returns an echo.Validator that reports fields by their JSON names.
func NewValidator() *CustomValidator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return &CustomValidator{validator: v}
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	if err := cv.validator.Struct(i); err != nil {
		return validationError(err)
	}
	return nil
}

// validationError turns validator output into an ErrValidation naming the
// first offending field, e.g. "validation failed: name required".
func validationError(err error) error {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}
	fe := verrs[0]
	if fe.Tag() == "required" {
		return fmt.Errorf("%w: %s required", apperrors.ErrValidation, fe.Field())
	}
	return fmt.Errorf("%w: %s is invalid", apperrors.ErrValidation, fe.Field())
}

func invalidBody() *echo.HTTPError {
	return echo.NewHTTPError(http.StatusBadRequest, apperrors.ErrorResponse{
		Error: "invalid request body",
		Code:  "INVALID_REQUEST",
	})
}

// respondError maps a domain error to its HTTP form. Server-side failures are
// logged with the cause and answered with a generic message.
func respondError(c echo.Context, log zerolog.Logger, err error) error {
	mapped := apperrors.MapErrorToHTTP(err)
	if mapped.StatusCode >= http.StatusInternalServerError {
		log.Error().
			Err(err).
			Str("method", c.Request().Method).
			Str("path", c.Path()).
			Msg("request failed")
	}
	return echo.NewHTTPError(mapped.StatusCode, mapped.ToErrorResponse()).SetInternal(err)
}
