package domain

import "time"

type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

// PromoCode is a discount token. Scoping fields and the validity window
// are optional; UsageLimit <= 0 means unlimited.
type PromoCode struct {
	ID         string `gorm:"primaryKey"`
	Name       string
	Code       string `gorm:"uniqueIndex"`
	Amount     int    // percent for percentage type, EUR for fixed
	Type       DiscountType
	ActivityID string // restrict to one activity when set
	PlayerID   string // restrict to one player when set
	ValidFrom  *time.Time
	ValidUntil *time.Time
	UsageLimit int
	UsageCount int
	CreatedAt  time.Time
}
