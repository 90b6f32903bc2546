package domain

import "time"

type PaymentStatus string

const (
	PaymentPending    PaymentStatus = "pending"
	PaymentProcessing PaymentStatus = "processing"
	PaymentCompleted  PaymentStatus = "completed"
	PaymentFailed     PaymentStatus = "failed"
	PaymentRefunded   PaymentStatus = "refunded"
)

// Payment is the sub-record embedded in a reservation. It is the only
// part of a reservation expected to mutate after creation.
type Payment struct {
	Amount          int           `gorm:"column:amount"` // EUR
	Status          PaymentStatus `gorm:"column:status;index"`
	Method          string        `gorm:"column:method"` // stripe | virement | especes
	StripeSessionID string        `gorm:"column:stripe_session_id"`
	Date            time.Time     `gorm:"column:date"`
}

// SessionSnapshot pins the purchased package's factors so later edits
// to the session document don't rewrite history.
type SessionSnapshot struct {
	NumberOfSessions int
	PricePerSession  int
}

// PlayerSnapshot keeps the contact details as submitted, independent of
// the live player record.
type PlayerSnapshot struct {
	Name     string
	Lastname string
	Email    string
	Phone    string
}

// Reservation is one registration attempt linking a player to a group,
// activity and session package.
type Reservation struct {
	ID          string          `gorm:"primaryKey"`
	SessionID   string          `gorm:"index"`
	SessionData SessionSnapshot `gorm:"embedded;embeddedPrefix:session_"`
	GroupID     string          `gorm:"index"`
	ActivityID  string          `gorm:"index"`
	PlayerID    string          `gorm:"index"`
	PlayerData  PlayerSnapshot  `gorm:"embedded;embeddedPrefix:player_"`

	EquipmentIncluded bool
	TshirtSize        string
	ShortSize         string

	PromoCode     string // applied code, empty when none
	PromoDiscount int    // resolved EUR discount at time of booking

	Payment Payment `gorm:"embedded;embeddedPrefix:payment_"`

	// ConfirmedAt is set once the completion side effects (roster add,
	// promo usage, confirmation email) have run. A completed payment
	// with a nil ConfirmedAt means they still have to happen.
	ConfirmedAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}
