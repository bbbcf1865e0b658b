package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"calcapi/internal/auth"
	apperrors "calcapi/internal/errors"
)

// UserContextKey is where the JWT middleware stores the decoded auth.AuthData.
const UserContextKey = "user"

// respondError converts a service error to an echo HTTP error carrying the
// standard envelope. Server errors keep the cause for the error handler to log.
func respondError(err error) *echo.HTTPError {
	mapped := apperrors.MapErrorToHTTP(err)
	he := echo.NewHTTPError(mapped.StatusCode, mapped.ToErrorResponse())
	if mapped.StatusCode >= http.StatusInternalServerError {
		he = he.SetInternal(err)
	}
	return he
}

// challenge is respondError that adds a bearer challenge to 401 answers.
func challenge(c echo.Context, err error) error {
	he := respondError(err)
	if he.Code == http.StatusUnauthorized {
		c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
	}
	return he
}

// bindAndValidate decodes the request into req and runs struct validation.
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, apperrors.ErrorResponse{
			Error: "invalid request body",
			Code:  "INVALID_REQUEST",
		})
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, validationResponse(err))
	}
	return nil
}

func validationResponse(err error) apperrors.ErrorResponse {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return apperrors.ErrorResponse{
			Error:  fmt.Sprintf("%s failed on the '%s' rule", fe.Field(), fe.Tag()),
			Code:   "VALIDATION_ERROR",
			Reason: fe.Tag(),
		}
	}
	return apperrors.ErrorResponse{Error: err.Error(), Code: "VALIDATION_ERROR"}
}

// currentUserID returns the authenticated user's id set by the JWT middleware.
func currentUserID(c echo.Context) (uuid.UUID, error) {
	data, ok := c.Get(UserContextKey).(auth.AuthData)
	if !ok || data.UserID == nil {
		return uuid.Nil, apperrors.ErrInvalidToken
	}
	return *data.UserID, nil
}

func parseID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, apperrors.ErrorResponse{
			Error: "invalid id",
			Code:  "INVALID_UUID",
		})
	}
	return id, nil
}
