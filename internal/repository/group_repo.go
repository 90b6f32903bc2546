package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/itskold/befa/internal/domain"
)

// ErrGroupFull rejects a roster mutation (or a registration) once the
// group has reached MaxPlayers.
var ErrGroupFull = errors.New("group_full")

type GroupRepo struct{ db *gorm.DB }

func NewGroupRepo(db *gorm.DB) *GroupRepo {
	return &GroupRepo{db: db}
}

func (r *GroupRepo) ByID(ctx context.Context, id string) (*domain.Group, error) {
	var g domain.Group
	if err := r.db.WithContext(ctx).First(&g, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &g, nil
}

func (r *GroupRepo) ByActivityID(ctx context.Context, activityID string) ([]domain.Group, error) {
	var out []domain.Group
	err := r.db.WithContext(ctx).
		Where("activity_id = ?", activityID).
		Order("start_time ASC").
		Find(&out).Error
	return out, err
}

// MemberCount counts confirmed roster entries, waiting list excluded.
func (r *GroupRepo) MemberCount(ctx context.Context, groupID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&domain.GroupMember{}).
		Where("group_id = ? AND waiting = ?", groupID, false).
		Count(&n).Error
	return n, err
}

func (r *GroupRepo) IsMember(ctx context.Context, groupID, playerID string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&domain.GroupMember{}).
		Where("group_id = ? AND player_id = ?", groupID, playerID).
		Count(&n).Error
	return n > 0, err
}

// HasCapacity reports whether one more player fits. Besides the
// confirmed roster it counts reservations currently at checkout, so two
// players cannot both be sent to pay for the last slot. Checked before
// the payment step; the roster insert enforces the limit again.
func (r *GroupRepo) HasCapacity(ctx context.Context, groupID string) (bool, error) {
	g, err := r.ByID(ctx, groupID)
	if err != nil {
		return false, err
	}
	members, err := r.MemberCount(ctx, groupID)
	if err != nil {
		return false, err
	}
	var atCheckout int64
	if err := r.db.WithContext(ctx).Model(&domain.Reservation{}).
		Where("group_id = ? AND payment_status = ?", groupID, domain.PaymentProcessing).
		Count(&atCheckout).Error; err != nil {
		return false, err
	}
	return members+atCheckout < int64(g.MaxPlayers), nil
}

// AddPlayerIfAbsent appends the player to the roster exactly once. The
// capacity check and the insert are a single statement, so concurrent
// completions cannot both observe a free slot and overfill the group;
// the composite unique index plus ON CONFLICT DO NOTHING covers the
// duplicate-player side. Calling it for an existing member is a no-op.
func (r *GroupRepo) AddPlayerIfAbsent(ctx context.Context, groupID, playerID string) error {
	res := r.db.WithContext(ctx).Exec(`
		INSERT INTO group_members (group_id, player_id, waiting, joined_at)
		SELECT ?, ?, ?, ?
		WHERE (SELECT COUNT(*) FROM group_members WHERE group_id = ? AND waiting = ?)
		    < (SELECT max_players FROM groups WHERE id = ?)
		ON CONFLICT (group_id, player_id) DO NOTHING`,
		groupID, playerID, false, time.Now().UTC(), groupID, false, groupID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}
	member, err := r.IsMember(ctx, groupID, playerID)
	if err != nil {
		return err
	}
	if member {
		return nil
	}
	return ErrGroupFull
}
