package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/itskold/befa/internal/domain"
)

// ErrCompleted guards the payment state machine: a completed payment is
// terminal for every transition except a confirmed refund.
var ErrCompleted = errors.New("payment_already_completed")

type ReservationRepo struct{ db *gorm.DB }

func NewReservationRepo(db *gorm.DB) *ReservationRepo {
	return &ReservationRepo{db: db}
}

func (r *ReservationRepo) ByID(ctx context.Context, id string) (*domain.Reservation, error) {
	var res domain.Reservation
	if err := r.db.WithContext(ctx).First(&res, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &res, nil
}

// CreateWithPlayerBook inserts the reservation and appends its id (and
// the granted activity/group/session ids) to the player record in one
// transaction, so a registration is either fully submitted or not at
// all.
func (r *ReservationRepo) CreateWithPlayerBook(ctx context.Context, res *domain.Reservation) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(res).Error; err != nil {
			return err
		}

		var p domain.Player
		if err := tx.First(&p, "id = ?", res.PlayerID).Error; err != nil {
			return err
		}
		p.Books, _ = domain.AppendUnique(p.Books, res.ID)
		p.SessionIDs, _ = domain.AppendUnique(p.SessionIDs, res.SessionID)
		p.GroupIDs, _ = domain.AppendUnique(p.GroupIDs, res.GroupID)
		p.ActivityIDs, _ = domain.AppendUnique(p.ActivityIDs, res.ActivityID)
		p.UpdatedAt = time.Now().UTC()
		return tx.Save(&p).Error
	})
}

// MarkProcessing stores the provider session id and flips the payment
// to processing. Retrying a cancelled payment goes through here again,
// so failed is a legal starting state; completed is not.
func (r *ReservationRepo) MarkProcessing(ctx context.Context, id, stripeSessionID string) (*domain.Reservation, error) {
	var res domain.Reservation
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&res, "id = ?", id).Error; err != nil {
			return err
		}
		if res.Payment.Status == domain.PaymentCompleted {
			return ErrCompleted
		}
		res.Payment.Status = domain.PaymentProcessing
		res.Payment.StripeSessionID = stripeSessionID
		res.UpdatedAt = time.Now().UTC()
		return tx.Save(&res).Error
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// MarkCompleted flips the payment to completed. Idempotent: a replayed
// provider callback sees the already-completed row unchanged. The
// completion side effects are gated separately on ConfirmedAt, which
// MarkConfirmed sets only after they ran, so a failed side effect is
// retried on the next callback instead of being lost.
func (r *ReservationRepo) MarkCompleted(ctx context.Context, id string) (*domain.Reservation, error) {
	var res domain.Reservation
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&res, "id = ?", id).Error; err != nil {
			return err
		}
		if res.Payment.Status == domain.PaymentCompleted {
			return nil
		}
		res.Payment.Status = domain.PaymentCompleted
		res.Payment.Date = time.Now().UTC()
		res.UpdatedAt = time.Now().UTC()
		return tx.Save(&res).Error
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// MarkConfirmed records that the completion side effects are done. The
// conditional update keeps the timestamp from moving on replays.
func (r *ReservationRepo) MarkConfirmed(ctx context.Context, id string) (*domain.Reservation, error) {
	now := time.Now().UTC()
	err := r.db.WithContext(ctx).Model(&domain.Reservation{}).
		Where("id = ? AND confirmed_at IS NULL", id).
		Updates(map[string]any{"confirmed_at": now, "updated_at": now}).Error
	if err != nil {
		return nil, err
	}
	return r.ByID(ctx, id)
}

// MarkFailed records a cancelled or failed payment attempt. The
// reservation stays retrievable so the user can retry; a completed
// payment is never downgraded.
func (r *ReservationRepo) MarkFailed(ctx context.Context, id string) (*domain.Reservation, error) {
	var res domain.Reservation
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&res, "id = ?", id).Error; err != nil {
			return err
		}
		if res.Payment.Status == domain.PaymentCompleted {
			return ErrCompleted
		}
		res.Payment.Status = domain.PaymentFailed
		res.UpdatedAt = time.Now().UTC()
		return tx.Save(&res).Error
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}
