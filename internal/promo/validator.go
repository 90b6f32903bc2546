package promo

import (
	"context"
	"log"
	"math"
	"strings"
	"time"

	"github.com/itskold/befa/internal/domain"
)

// Reason says why a code was rejected. Rejections are not errors: the
// user can always continue without a discount.
type Reason string

const (
	ReasonNone          Reason = ""
	ReasonInvalid       Reason = "invalid"
	ReasonNotYetValid   Reason = "not_yet_valid"
	ReasonExpired       Reason = "expired"
	ReasonExhausted     Reason = "exhausted"
	ReasonNotApplicable Reason = "not_applicable"
	ReasonPersonal      Reason = "personal"
)

// Decision is the outcome of a validation attempt. A rejected decision
// always carries a zero discount so any previously applied one is
// cleared by the caller.
type Decision struct {
	Applied  bool   `json:"applied"`
	Discount int    `json:"discountAmount"`
	Reason   Reason `json:"reason,omitempty"`
}

// Context carries the registration state a code is checked against.
type Context struct {
	ActivityID string
	Subtotal   int // EUR, before discount
	Email      string
	Phone      string
	Lastname   string
}

type CodeStore interface {
	ByCode(ctx context.Context, code string) (*domain.PromoCode, error)
}

// PlayerLookup resolves a probable existing player from contact fields.
// Returns nil when nothing matches.
type PlayerLookup interface {
	FindByContact(ctx context.Context, email, phone, lastname string) (*domain.Player, error)
}

type Validator struct {
	codes   CodeStore
	players PlayerLookup
	now     func() time.Time
}

func NewValidator(codes CodeStore, players PlayerLookup) *Validator {
	return &Validator{codes: codes, players: players, now: time.Now}
}

// WithNow overrides the clock, for validity-window tests.
func (v *Validator) WithNow(now func() time.Time) *Validator {
	v.now = now
	return v
}

// Check runs the eligibility checks in order and stops at the first
// failure. An empty code is "no code", not a rejection.
func (v *Validator) Check(ctx context.Context, code string, rc Context) (Decision, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return Decision{}, nil
	}

	pc, err := v.codes.ByCode(ctx, code)
	if err != nil {
		return Decision{}, err
	}
	if pc == nil {
		return Decision{Reason: ReasonInvalid}, nil
	}

	now := v.now()
	if pc.ValidFrom != nil && now.Before(*pc.ValidFrom) {
		return Decision{Reason: ReasonNotYetValid}, nil
	}
	if pc.ValidUntil != nil && now.After(*pc.ValidUntil) {
		return Decision{Reason: ReasonExpired}, nil
	}
	if pc.UsageLimit > 0 && pc.UsageCount >= pc.UsageLimit {
		return Decision{Reason: ReasonExhausted}, nil
	}
	if pc.ActivityID != "" && pc.ActivityID != rc.ActivityID {
		return Decision{Reason: ReasonNotApplicable}, nil
	}
	if pc.PlayerID != "" {
		// Best-effort: contact fields can collide on common surnames,
		// so a false positive here is a known limitation.
		player, err := v.players.FindByContact(ctx, rc.Email, rc.Phone, rc.Lastname)
		if err != nil {
			log.Printf("[promo] player lookup failed, skipping personal check: %v", err)
		} else if player != nil && player.ID != pc.PlayerID {
			return Decision{Reason: ReasonPersonal}, nil
		}
	}

	return Decision{Applied: true, Discount: discountFor(pc, rc.Subtotal)}, nil
}

func discountFor(pc *domain.PromoCode, subtotal int) int {
	if pc.Type == domain.DiscountPercentage {
		return int(math.Round(float64(subtotal) * float64(pc.Amount) / 100))
	}
	return pc.Amount
}
