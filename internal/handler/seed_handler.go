package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	apperrors "calcapi/internal/errors"
	"calcapi/internal/service"
)

// SeedHandler handles seed data endpoints. Only mounted in development.
type SeedHandler struct {
	authService service.AuthService
	logger      *zap.Logger
}

// NewSeedHandler creates a new seed handler.
func NewSeedHandler(authService service.AuthService, logger *zap.Logger) *SeedHandler {
	return &SeedHandler{authService: authService, logger: logger}
}

// SeedUsers godoc
// @Summary Bulk-register users
// @Description Runs each registration form through the normal registration flow.
// @Tags seed
// @Accept json
// @Produce json
// @Param request body []RegisterRequest true "Registration forms"
// @Success 200 {object} service.SeedResult
// @Failure 400 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /seed/users [post]
func (h *SeedHandler) SeedUsers(c echo.Context) error {
	var reqs []RegisterRequest
	if err := c.Bind(&reqs); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, apperrors.ErrorResponse{
			Error: "invalid request body",
			Code:  "INVALID_REQUEST",
		})
	}

	forms := make([]service.RegisterInput, 0, len(reqs))
	for i := range reqs {
		if err := c.Validate(&reqs[i]); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, validationResponse(err))
		}
		forms = append(forms, reqs[i].ToInput())
	}

	res, err := service.SeedUsers(c.Request().Context(), h.authService, forms, h.logger)
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusOK, res)
}
