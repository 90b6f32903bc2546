package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/itskold/befa/internal/domain"
)

type PromoRepo struct{ db *gorm.DB }

func NewPromoRepo(db *gorm.DB) *PromoRepo {
	return &PromoRepo{db: db}
}

// ByCode returns nil when the code does not exist; the validator turns
// that into an "invalid" rejection, not an error.
func (r *PromoRepo) ByCode(ctx context.Context, code string) (*domain.PromoCode, error) {
	var pc domain.PromoCode
	err := r.db.WithContext(ctx).Where("code = ?", code).Take(&pc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &pc, nil
}

// IncrementUsage bumps the redemption counter atomically. Runs on
// payment completion, so the usage-limit check stays meaningful.
func (r *PromoRepo) IncrementUsage(ctx context.Context, code string) error {
	if code == "" {
		return nil
	}
	return r.db.WithContext(ctx).Model(&domain.PromoCode{}).
		Where("code = ?", code).
		UpdateColumn("usage_count", gorm.Expr("usage_count + 1")).Error
}
