// Package registration orchestrates the inscription workflow: player
// reconciliation, pricing, reservation lifecycle and the side effects
// of a confirmed payment.
package registration

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/itskold/befa/internal/domain"
	"github.com/itskold/befa/internal/i18n"
	"github.com/itskold/befa/internal/notify"
	"github.com/itskold/befa/internal/pricing"
	"github.com/itskold/befa/internal/promo"
	"github.com/itskold/befa/internal/repository"
	"github.com/itskold/befa/internal/wizard"
)

var (
	ErrSessionMismatch = errors.New("session does not belong to the selected activity")
	ErrGroupMismatch   = errors.New("group does not belong to the selected activity")
)

// EventPublisher decouples the service from the broker; pkg/mq's
// Publisher satisfies it in production.
type EventPublisher interface {
	PublishJSON(ctx context.Context, key string, v any) error
}

type Config struct {
	// Fallback flat equipment price when the activity doesn't set one.
	EquipmentPrice int
	// Venue printed in the confirmation email.
	Location string
}

type Service struct {
	activities   *repository.ActivityRepo
	groups       *repository.GroupRepo
	players      *repository.PlayerRepo
	reservations *repository.ReservationRepo
	promos       *repository.PromoRepo
	validator    *promo.Validator
	pub          EventPublisher
	cfg          Config
}

func NewService(
	activities *repository.ActivityRepo,
	groups *repository.GroupRepo,
	players *repository.PlayerRepo,
	reservations *repository.ReservationRepo,
	promos *repository.PromoRepo,
	pub EventPublisher,
	cfg Config,
) *Service {
	if cfg.EquipmentPrice == 0 {
		cfg.EquipmentPrice = 30
	}
	return &Service{
		activities:   activities,
		groups:       groups,
		players:      players,
		reservations: reservations,
		promos:       promos,
		validator:    promo.NewValidator(promos, players),
		pub:          pub,
		cfg:          cfg,
	}
}

// Result is what the form gets back after a successful submission.
type Result struct {
	ReservationID string         `json:"reservationId"`
	PlayerID      string         `json:"playerId"`
	Quote         pricing.Quote  `json:"quote"`
	Promo         promo.Decision `json:"promo"`
}

// CheckPromo validates a code against the current selection without
// touching any state.
func (s *Service) CheckPromo(ctx context.Context, code string, f wizard.Form) (promo.Decision, error) {
	subtotal, err := s.subtotal(ctx, f)
	if err != nil {
		return promo.Decision{}, err
	}
	return s.validator.Check(ctx, code, promo.Context{
		ActivityID: f.ActivityID,
		Subtotal:   subtotal,
		Email:      f.Email,
		Phone:      f.Phone1,
		Lastname:   f.LastName,
	})
}

// Register runs the full submission: capacity gate, pricing, promo,
// player reconciliation and reservation creation. Nothing is persisted
// if any step before the reservation write fails, so an aborted submit
// leaves no orphan.
func (s *Service) Register(ctx context.Context, f wizard.Form) (*Result, error) {
	session, err := s.activities.SessionByID(ctx, f.SessionID)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if session.ActivityID != f.ActivityID {
		return nil, ErrSessionMismatch
	}
	activity, err := s.activities.ByID(ctx, f.ActivityID)
	if err != nil {
		return nil, fmt.Errorf("load activity: %w", err)
	}
	group, err := s.groups.ByID(ctx, f.GroupID)
	if err != nil {
		return nil, fmt.Errorf("load group: %w", err)
	}
	if group.ActivityID != f.ActivityID {
		return nil, ErrGroupMismatch
	}

	// the roster gate runs before any money changes hands
	ok, err := s.groups.HasCapacity(ctx, f.GroupID)
	if err != nil {
		return nil, fmt.Errorf("check capacity: %w", err)
	}
	if !ok {
		return nil, repository.ErrGroupFull
	}

	pkg := pricing.Package{
		NumberOfSessions:  session.NumberOfSessions,
		PricePerSession:   session.PricePerSession,
		EquipmentIncluded: session.EquipmentIncluded,
	}
	equipmentPrice := equipmentPriceOf(*activity, s.cfg.EquipmentPrice)
	subtotal := pricing.Compute(pkg, f.EquipmentIncluded, equipmentPrice, 0).Total

	decision, err := s.validator.Check(ctx, f.PromoCode, promo.Context{
		ActivityID: f.ActivityID,
		Subtotal:   subtotal,
		Email:      f.Email,
		Phone:      f.Phone1,
		Lastname:   f.LastName,
	})
	if err != nil {
		return nil, fmt.Errorf("check promo: %w", err)
	}

	quote := pricing.Compute(pkg, f.EquipmentIncluded, equipmentPrice, decision.Discount)

	playerID, err := s.ReconcilePlayer(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("reconcile player: %w", err)
	}

	now := time.Now().UTC()
	res := &domain.Reservation{
		ID:        uuid.NewString(),
		SessionID: session.ID,
		SessionData: domain.SessionSnapshot{
			NumberOfSessions: session.NumberOfSessions,
			PricePerSession:  session.PricePerSession,
		},
		GroupID:    f.GroupID,
		ActivityID: f.ActivityID,
		PlayerID:   playerID,
		PlayerData: domain.PlayerSnapshot{
			Name:     f.FirstName,
			Lastname: f.LastName,
			Email:    f.Email,
			Phone:    f.Phone1,
		},
		EquipmentIncluded: pricing.ForceEquipment(pkg, f.EquipmentIncluded),
		TshirtSize:        f.TshirtSize,
		ShortSize:         f.ShortSize,
		Payment: domain.Payment{
			Amount: quote.Total,
			Status: domain.PaymentPending,
			Method: f.PaymentMethod,
			Date:   now,
		},
	}
	if decision.Applied {
		res.PromoCode = f.PromoCode
		res.PromoDiscount = decision.Discount
	}

	if err := s.reservations.CreateWithPlayerBook(ctx, res); err != nil {
		return nil, fmt.Errorf("create reservation: %w", err)
	}

	_ = s.pub.PublishJSON(ctx, notify.RKReservationCreated, notify.ReservationCreated{
		ReservationID: res.ID,
		PlayerID:      playerID,
		GroupID:       f.GroupID,
		ActivityID:    f.ActivityID,
		Amount:        quote.Total,
	})

	return &Result{ReservationID: res.ID, PlayerID: playerID, Quote: quote, Promo: decision}, nil
}

// ReconcilePlayer finds or creates the player record: email match
// first, then the exact name pair. Existing players get their contact
// fields refreshed and the new membership ids merged without
// duplicates.
func (s *Service) ReconcilePlayer(ctx context.Context, f wizard.Form) (string, error) {
	existing, err := s.players.FindByEmail(ctx, f.Email)
	if err != nil {
		return "", err
	}
	if existing == nil {
		existing, err = s.players.FindByName(ctx, f.FirstName, f.LastName)
		if err != nil {
			return "", err
		}
	}

	birth, _ := time.Parse("2006-01-02", f.BirthDate)
	now := time.Now().UTC()

	if existing != nil {
		existing.ActivityIDs, _ = domain.AppendUnique(existing.ActivityIDs, f.ActivityID)
		existing.GroupIDs, _ = domain.AppendUnique(existing.GroupIDs, f.GroupID)
		existing.SessionIDs, _ = domain.AppendUnique(existing.SessionIDs, f.SessionID)
		existing.Email = f.Email
		existing.Phone1 = f.Phone1
		existing.Phone2 = f.Phone2
		existing.Address = domain.Address{Street: f.Address, PostalCode: f.PostalCode, City: f.City}
		existing.Club = f.Club
		existing.Note = f.MedicalInfo
		if !birth.IsZero() {
			existing.DateOfBirth = birth
		}
		existing.UpdatedAt = now
		if err := s.players.Save(ctx, existing); err != nil {
			return "", err
		}
		return existing.ID, nil
	}

	p := &domain.Player{
		ID:          uuid.NewString(),
		Name:        f.FirstName,
		Lastname:    f.LastName,
		DateOfBirth: birth,
		Email:       f.Email,
		Phone1:      f.Phone1,
		Phone2:      f.Phone2,
		Address:     domain.Address{Street: f.Address, PostalCode: f.PostalCode, City: f.City},
		Club:        f.Club,
		Lang:        string(i18n.Parse(f.Lang)),
		Note:        f.MedicalInfo,
		ActivityIDs: []string{f.ActivityID},
		GroupIDs:    []string{f.GroupID},
		SessionIDs:  []string{f.SessionID},
		Books:       []string{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.players.Create(ctx, p); err != nil {
		return "", err
	}
	return p.ID, nil
}

// MarkProcessing records the provider checkout-session id once the
// hosted checkout has been created.
func (s *Service) MarkProcessing(ctx context.Context, reservationID, providerSessionID string) (*domain.Reservation, error) {
	return s.reservations.MarkProcessing(ctx, reservationID, providerSessionID)
}

// Reservation exposes a lookup for the payment handlers.
func (s *Service) Reservation(ctx context.Context, id string) (*domain.Reservation, error) {
	return s.reservations.ByID(ctx, id)
}

// Complete finalizes a reservation after the provider confirmed the
// payment. Safe to call repeatedly: the payment flip is idempotent, and
// the side effects (roster add, promo usage, confirmation email) run
// until they succeed once, marked by ConfirmedAt. A roster add that
// fails on one callback is retried on the next instead of being lost.
func (s *Service) Complete(ctx context.Context, reservationID string) (*domain.Reservation, error) {
	res, err := s.reservations.MarkCompleted(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if res.ConfirmedAt != nil {
		return res, nil
	}

	if err := s.groups.AddPlayerIfAbsent(ctx, res.GroupID, res.PlayerID); err != nil {
		// the payment is in either way; leave ConfirmedAt unset so the
		// next callback retries the roster add
		return res, fmt.Errorf("add to roster: %w", err)
	}

	if res.PromoCode != "" {
		if err := s.promos.IncrementUsage(ctx, res.PromoCode); err != nil {
			log.Printf("[registration] increment promo %q usage: %v", res.PromoCode, err)
		}
	}

	if mail, err := s.confirmationMail(ctx, res); err != nil {
		log.Printf("[registration] build confirmation mail for %s: %v", res.ID, err)
	} else if err := s.pub.PublishJSON(ctx, notify.RKReservationConfirmed, notify.ReservationConfirmed{
		ReservationID: res.ID,
		Amount:        res.Payment.Amount,
		Mail:          mail,
	}); err != nil {
		log.Printf("[registration] publish confirmation for %s: %v", res.ID, err)
	}

	return s.reservations.MarkConfirmed(ctx, res.ID)
}

// Cancel records an abandoned checkout. The reservation stays around
// so the player can retry with the same id.
func (s *Service) Cancel(ctx context.Context, reservationID string) (*domain.Reservation, error) {
	res, err := s.reservations.MarkFailed(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	_ = s.pub.PublishJSON(ctx, notify.RKPaymentFailed, notify.PaymentFailed{
		ReservationID: res.ID,
		Reason:        "cancelled",
	})
	return res, nil
}

func (s *Service) subtotal(ctx context.Context, f wizard.Form) (int, error) {
	if f.SessionID == "" {
		return 0, nil
	}
	session, err := s.activities.SessionByID(ctx, f.SessionID)
	if err != nil {
		return 0, err
	}
	equipmentPrice := s.cfg.EquipmentPrice
	if a, err := s.activities.ByID(ctx, f.ActivityID); err == nil {
		equipmentPrice = equipmentPriceOf(*a, s.cfg.EquipmentPrice)
	}
	pkg := pricing.Package{
		NumberOfSessions:  session.NumberOfSessions,
		PricePerSession:   session.PricePerSession,
		EquipmentIncluded: session.EquipmentIncluded,
	}
	return pricing.Compute(pkg, f.EquipmentIncluded, equipmentPrice, 0).Total, nil
}

func (s *Service) confirmationMail(ctx context.Context, res *domain.Reservation) (notify.ConfirmationEmail, error) {
	activity, err := s.activities.ByID(ctx, res.ActivityID)
	if err != nil {
		return notify.ConfirmationEmail{}, fmt.Errorf("load activity: %w", err)
	}
	group, err := s.groups.ByID(ctx, res.GroupID)
	if err != nil {
		return notify.ConfirmationEmail{}, fmt.Errorf("load group: %w", err)
	}

	lang := i18n.FR
	if p, err := s.players.ByID(ctx, res.PlayerID); err == nil {
		lang = i18n.Parse(p.Lang)
	}

	weekday := ""
	if len(activity.SpecificDays) > 0 {
		weekday = i18n.DayLabel(activity.SpecificDays[0], lang)
	}

	var extra []string
	if res.EquipmentIncluded {
		if res.TshirtSize != "" {
			extra = append(extra, fmt.Sprintf("T-shirt (%s)", res.TshirtSize))
		}
		if res.ShortSize != "" {
			extra = append(extra, fmt.Sprintf("Short (%s)", res.ShortSize))
		}
	}

	return notify.ConfirmationEmail{
		Email:          res.PlayerData.Email,
		FirstName:      res.PlayerData.Name,
		Lang:           string(lang),
		SessionCount:   res.SessionData.NumberOfSessions,
		Location:       s.cfg.Location,
		Category:       group.Name,
		StartTime:      group.StartTime,
		EndTime:        EndTime(group.StartTime, activity.Duration),
		Weekday:        weekday,
		SessionDates:   activity.Dates,
		ExtraEquipment: extra,
	}, nil
}
