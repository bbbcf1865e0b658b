package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	apperrors "calcapi/internal/errors"
	"calcapi/internal/model"
)

func TestParseCalculationType(t *testing.T) {
	tests := []struct {
		in      string
		want    model.CalculationType
		wantErr bool
	}{
		{in: "Addition", want: model.CalculationAddition},
		{in: "subtraction", want: model.CalculationSubtraction},
		{in: "MULTIPLICATION", want: model.CalculationMultiplication},
		{in: " division ", want: model.CalculationDivision},
		{in: "modulo", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseCalculationType(tt.in)
			if tt.wantErr {
				var verr *apperrors.ValidationError
				require.ErrorAs(t, err, &verr)
				assert.Equal(t, "unsupported calculation type", verr.Reason)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCompute(t *testing.T) {
	d := decimal.RequireFromString
	tests := []struct {
		name string
		typ  model.CalculationType
		a, b string
		want string
	}{
		{name: "add", typ: model.CalculationAddition, a: "1.5", b: "2.25", want: "3.75"},
		{name: "subtract", typ: model.CalculationSubtraction, a: "1", b: "3", want: "-2"},
		{name: "multiply", typ: model.CalculationMultiplication, a: "0.1", b: "0.2", want: "0.02"},
		{name: "divide", typ: model.CalculationDivision, a: "10", b: "4", want: "2.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Compute(tt.typ, d(tt.a), d(tt.b))
			require.NoError(t, err)
			assert.True(t, d(tt.want).Equal(got), "got %s", got)
		})
	}

	_, err := Compute(model.CalculationDivision, d("1"), decimal.Zero)
	var verr *apperrors.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "division by zero", verr.Reason)
}

func TestCalculationService_Create(t *testing.T) {
	mockRepo := new(MockCalculationRepository)
	svc := NewCalculationService(mockRepo, zap.NewNop())
	userID := uuid.New()

	mockRepo.On("Create", mock.Anything, mock.MatchedBy(func(c *model.Calculation) bool {
		return c.UserID == userID && c.Type == model.CalculationMultiplication && len(c.Inputs) == 2
	})).Return(nil)

	calc, err := svc.Create(context.Background(), userID, CalculationInput{
		A:    decimal.NewFromInt(6),
		B:    decimal.NewFromInt(7),
		Type: "multiplication",
	})
	require.NoError(t, err)
	assert.True(t, calc.Result.Equal(decimal.NewFromInt(42)))
	mockRepo.AssertExpectations(t)
}

func TestCalculationService_Create_RejectsBeforeStore(t *testing.T) {
	mockRepo := new(MockCalculationRepository)
	svc := NewCalculationService(mockRepo, zap.NewNop())

	_, err := svc.Create(context.Background(), uuid.New(), CalculationInput{
		A: decimal.NewFromInt(1), B: decimal.Zero, Type: "Division",
	})
	assert.Error(t, err)

	_, err = svc.Create(context.Background(), uuid.New(), CalculationInput{
		A: decimal.NewFromInt(1), B: decimal.NewFromInt(1), Type: "Power",
	})
	assert.Error(t, err)

	mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCalculationService_ScopedToOwner(t *testing.T) {
	mockRepo := new(MockCalculationRepository)
	svc := NewCalculationService(mockRepo, zap.NewNop())
	owner, other, id := uuid.New(), uuid.New(), uuid.New()

	mockRepo.On("FindByIDForUser", mock.Anything, id, owner).Return(&model.Calculation{ID: id, UserID: owner}, nil)
	mockRepo.On("FindByIDForUser", mock.Anything, id, other).Return(nil, apperrors.ErrCalculationNotFound)
	mockRepo.On("DeleteForUser", mock.Anything, id, other).Return(apperrors.ErrCalculationNotFound)
	mockRepo.On("ListByUser", mock.Anything, owner).Return([]model.Calculation{{ID: id, UserID: owner}}, nil)

	calc, err := svc.Get(context.Background(), owner, id)
	require.NoError(t, err)
	assert.Equal(t, id, calc.ID)

	_, err = svc.Get(context.Background(), other, id)
	assert.ErrorIs(t, err, apperrors.ErrCalculationNotFound)

	assert.ErrorIs(t, svc.Delete(context.Background(), other, id), apperrors.ErrCalculationNotFound)

	list, err := svc.List(context.Background(), owner)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
