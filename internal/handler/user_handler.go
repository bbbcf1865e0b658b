package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	apperrors "calcapi/internal/errors"
	"calcapi/internal/service"
)

// UserHandler bundles HTTP handlers.
type UserHandler struct {
	svc service.UserService
}

// NewUserHandler creates a handler layer.
func NewUserHandler(svc service.UserService) *UserHandler {
	return &UserHandler{svc: svc}
}

// Me godoc
// @Summary Current user profile
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.User
// @Failure 401 {object} errors.ErrorResponse
// @Router /users/me [get]
func (h *UserHandler) Me(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return challenge(c, err)
	}

	user, err := h.svc.GetProfile(c.Request().Context(), userID)
	if err != nil {
		// a valid token for a user that no longer exists
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return challenge(c, apperrors.ErrInvalidToken)
		}
		return respondError(err)
	}
	return c.JSON(http.StatusOK, user)
}
