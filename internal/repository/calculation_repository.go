package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	apperrors "calcapi/internal/errors"
	"calcapi/internal/model"
)

// CalculationRepository defines calculation persistence operations.
// Every read and delete is scoped to the owning user.
type CalculationRepository interface {
	Create(ctx context.Context, calc *model.Calculation) error
	FindByIDForUser(ctx context.Context, id, userID uuid.UUID) (*model.Calculation, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Calculation, error)
	DeleteForUser(ctx context.Context, id, userID uuid.UUID) error
}

type calculationRepository struct {
	db *gorm.DB
}

// NewCalculationRepository creates a new calculation repository.
func NewCalculationRepository(db *gorm.DB) CalculationRepository {
	return &calculationRepository{db: db}
}

// Create creates a new calculation record.
func (r *calculationRepository) Create(ctx context.Context, calc *model.Calculation) error {
	return r.db.WithContext(ctx).Create(calc).Error
}

// FindByIDForUser finds a calculation by ID owned by userID.
func (r *calculationRepository) FindByIDForUser(ctx context.Context, id, userID uuid.UUID) (*model.Calculation, error) {
	var calc model.Calculation
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&calc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrCalculationNotFound
	}
	if err != nil {
		return nil, err
	}
	return &calc, nil
}

// ListByUser returns the user's calculations, newest first.
func (r *calculationRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Calculation, error) {
	var calcs []model.Calculation
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&calcs).Error; err != nil {
		return nil, err
	}
	return calcs, nil
}

// DeleteForUser soft-deletes a calculation owned by userID.
func (r *calculationRepository) DeleteForUser(ctx context.Context, id, userID uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&model.Calculation{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrCalculationNotFound
	}
	return nil
}
