package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"calcapi/internal/model"
	"calcapi/internal/service"
)

// CalculationHandler handles calculation endpoints.
type CalculationHandler struct {
	svc service.CalculationService
}

// NewCalculationHandler creates a new calculation handler.
func NewCalculationHandler(svc service.CalculationService) *CalculationHandler {
	return &CalculationHandler{svc: svc}
}

// CalculationRequest represents a calculation request.
type CalculationRequest struct {
	A        *decimal.Decimal `json:"a" validate:"required" swaggertype:"number"`
	B        *decimal.Decimal `json:"b" validate:"required" swaggertype:"number"`
	CalcType string           `json:"calc_type" validate:"required" example:"Addition"`
}

// Create godoc
// @Summary Perform and store a calculation
// @Tags calculations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CalculationRequest true "Operands and type"
// @Success 201 {object} model.Calculation
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /calculations [post]
func (h *CalculationHandler) Create(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return challenge(c, err)
	}

	var req CalculationRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	calc, err := h.svc.Create(c.Request().Context(), userID, service.CalculationInput{
		A:    *req.A,
		B:    *req.B,
		Type: req.CalcType,
	})
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusCreated, calc)
}

// List godoc
// @Summary List the caller's calculations
// @Tags calculations
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.Calculation
// @Failure 401 {object} errors.ErrorResponse
// @Router /calculations [get]
func (h *CalculationHandler) List(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return challenge(c, err)
	}

	calcs, err := h.svc.List(c.Request().Context(), userID)
	if err != nil {
		return respondError(err)
	}
	if calcs == nil {
		calcs = []model.Calculation{}
	}
	return c.JSON(http.StatusOK, calcs)
}

// Get godoc
// @Summary Get one of the caller's calculations
// @Tags calculations
// @Produce json
// @Security BearerAuth
// @Param id path string true "Calculation ID"
// @Success 200 {object} model.Calculation
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /calculations/{id} [get]
func (h *CalculationHandler) Get(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return challenge(c, err)
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}

	calc, err := h.svc.Get(c.Request().Context(), userID, id)
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusOK, calc)
}

// Delete godoc
// @Summary Delete one of the caller's calculations
// @Tags calculations
// @Security BearerAuth
// @Param id path string true "Calculation ID"
// @Success 204
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /calculations/{id} [delete]
func (h *CalculationHandler) Delete(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return challenge(c, err)
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}

	if err := h.svc.Delete(c.Request().Context(), userID, id); err != nil {
		return respondError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
