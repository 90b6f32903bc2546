package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/itskold/befa/internal/domain"
)

type ActivityRepo struct{ db *gorm.DB }

func NewActivityRepo(db *gorm.DB) *ActivityRepo {
	return &ActivityRepo{db: db}
}

func (r *ActivityRepo) ByID(ctx context.Context, id string) (*domain.Activity, error) {
	var a domain.Activity
	if err := r.db.WithContext(ctx).First(&a, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

// Visible lists the activities open for registration, newest first.
func (r *ActivityRepo) Visible(ctx context.Context) ([]domain.Activity, error) {
	var out []domain.Activity
	err := r.db.WithContext(ctx).
		Where("visible = ?", true).
		Order("created_at DESC").
		Find(&out).Error
	return out, err
}

func (r *ActivityRepo) SessionByID(ctx context.Context, id string) (*domain.Session, error) {
	var s domain.Session
	if err := r.db.WithContext(ctx).First(&s, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *ActivityRepo) SessionsByActivity(ctx context.Context, activityID string) ([]domain.Session, error) {
	var out []domain.Session
	err := r.db.WithContext(ctx).
		Where("activity_id = ?", activityID).
		Order("number_of_sessions ASC").
		Find(&out).Error
	return out, err
}

// IsNotFound lets callers translate a missing row into a 404 without
// importing gorm themselves.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
