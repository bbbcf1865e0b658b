package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	apperrors "calcapi/internal/errors"
)

// SeedResult counts the outcome of a bulk registration.
type SeedResult struct {
	Created    int `json:"created"`
	Duplicates int `json:"duplicates"`
	Rejected   int `json:"rejected"`
}

// SeedUsers runs every form through the registration flow. Duplicate and
// rejected forms are counted and skipped; any other error stops the run.
func SeedUsers(ctx context.Context, svc AuthService, forms []RegisterInput, logger *zap.Logger) (SeedResult, error) {
	var res SeedResult
	for _, form := range forms {
		_, err := svc.Register(ctx, form)
		var verr *apperrors.ValidationError
		switch {
		case err == nil:
			res.Created++
		case errors.Is(err, apperrors.ErrDuplicateKey):
			res.Duplicates++
		case errors.As(err, &verr):
			res.Rejected++
			logger.Warn("seed form rejected", zap.String("username", form.Username), zap.String("reason", verr.Reason))
		default:
			return res, err
		}
	}
	return res, nil
}
