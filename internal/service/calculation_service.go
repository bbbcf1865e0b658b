package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	apperrors "calcapi/internal/errors"
	"calcapi/internal/metrics"
	"calcapi/internal/model"
	"calcapi/internal/repository"
)

// CalculationInput is a two-operand calculation request.
type CalculationInput struct {
	A    decimal.Decimal
	B    decimal.Decimal
	Type string
}

// CalculationService handles the user's calculation history.
type CalculationService interface {
	Create(ctx context.Context, userID uuid.UUID, in CalculationInput) (*model.Calculation, error)
	Get(ctx context.Context, userID, id uuid.UUID) (*model.Calculation, error)
	List(ctx context.Context, userID uuid.UUID) ([]model.Calculation, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
}

type calculationService struct {
	repo   repository.CalculationRepository
	logger *zap.Logger
}

// NewCalculationService creates a new calculation service.
func NewCalculationService(repo repository.CalculationRepository, logger *zap.Logger) CalculationService {
	return &calculationService{repo: repo, logger: logger.Named("calculations")}
}

// ParseCalculationType resolves a type name case-insensitively.
func ParseCalculationType(name string) (model.CalculationType, error) {
	for _, t := range []model.CalculationType{
		model.CalculationAddition,
		model.CalculationSubtraction,
		model.CalculationMultiplication,
		model.CalculationDivision,
	} {
		if strings.EqualFold(strings.TrimSpace(name), string(t)) {
			return t, nil
		}
	}
	return "", apperrors.NewValidationError("unsupported calculation type",
		fmt.Sprintf("Unsupported calculation type %q", name))
}

// Compute applies t to a and b.
func Compute(t model.CalculationType, a, b decimal.Decimal) (decimal.Decimal, error) {
	switch t {
	case model.CalculationAddition:
		return a.Add(b), nil
	case model.CalculationSubtraction:
		return a.Sub(b), nil
	case model.CalculationMultiplication:
		return a.Mul(b), nil
	case model.CalculationDivision:
		if b.IsZero() {
			return decimal.Zero, apperrors.NewValidationError("division by zero", "Cannot divide by zero")
		}
		return a.Div(b), nil
	default:
		return decimal.Zero, apperrors.NewValidationError("unsupported calculation type",
			fmt.Sprintf("Unsupported calculation type %q", t))
	}
}

// Create computes and stores a calculation owned by userID.
func (s *calculationService) Create(ctx context.Context, userID uuid.UUID, in CalculationInput) (*model.Calculation, error) {
	calcType, err := ParseCalculationType(in.Type)
	if err != nil {
		return nil, err
	}
	result, err := Compute(calcType, in.A, in.B)
	if err != nil {
		return nil, err
	}

	calc := &model.Calculation{
		UserID: userID,
		Type:   calcType,
		Inputs: []decimal.Decimal{in.A, in.B},
		Result: result,
	}
	if err := s.repo.Create(ctx, calc); err != nil {
		return nil, fmt.Errorf("create calculation: %w", err)
	}

	metrics.Calculations.WithLabelValues(string(calcType)).Inc()
	s.logger.Debug("calculation stored", zap.String("id", calc.ID.String()), zap.String("type", string(calcType)))
	return calc, nil
}

func (s *calculationService) Get(ctx context.Context, userID, id uuid.UUID) (*model.Calculation, error) {
	return s.repo.FindByIDForUser(ctx, id, userID)
}

func (s *calculationService) List(ctx context.Context, userID uuid.UUID) ([]model.Calculation, error) {
	calcs, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list calculations: %w", err)
	}
	return calcs, nil
}

func (s *calculationService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	return s.repo.DeleteForUser(ctx, id, userID)
}
