package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/itskold/befa/internal/domain"
)

type PlayerRepo struct{ db *gorm.DB }

func NewPlayerRepo(db *gorm.DB) *PlayerRepo {
	return &PlayerRepo{db: db}
}

func (r *PlayerRepo) ByID(ctx context.Context, id string) (*domain.Player, error) {
	var p domain.Player
	if err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// FindByEmail returns nil when no player matches.
func (r *PlayerRepo) FindByEmail(ctx context.Context, email string) (*domain.Player, error) {
	return r.findOne(ctx, "email = ?", email)
}

// FindByName matches on the exact first+last name pair.
func (r *PlayerRepo) FindByName(ctx context.Context, name, lastname string) (*domain.Player, error) {
	return r.findOne(ctx, "name = ? AND lastname = ?", name, lastname)
}

// FindByContact is the loose match used by the personal promo-code
// check: email first, then phone, then last name alone.
func (r *PlayerRepo) FindByContact(ctx context.Context, email, phone, lastname string) (*domain.Player, error) {
	if email != "" {
		if p, err := r.findOne(ctx, "email = ?", email); err != nil || p != nil {
			return p, err
		}
	}
	if phone != "" {
		if p, err := r.findOne(ctx, "phone1 = ?", phone); err != nil || p != nil {
			return p, err
		}
	}
	if lastname != "" {
		if p, err := r.findOne(ctx, "lastname = ?", lastname); err != nil || p != nil {
			return p, err
		}
	}
	return nil, nil
}

func (r *PlayerRepo) findOne(ctx context.Context, query string, args ...any) (*domain.Player, error) {
	var p domain.Player
	err := r.db.WithContext(ctx).Where(query, args...).Take(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PlayerRepo) Create(ctx context.Context, p *domain.Player) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *PlayerRepo) Save(ctx context.Context, p *domain.Player) error {
	return r.db.WithContext(ctx).Save(p).Error
}
