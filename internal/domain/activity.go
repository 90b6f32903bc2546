package domain

import "time"

// Activity is a recurring training program, described in both site
// languages and scheduled over concrete calendar dates. Read-only for
// the registration flow; the admin back office owns it.
type Activity struct {
	ID             string `gorm:"primaryKey"`
	TitleFR        string
	TitleNL        string
	SubtitleFR     string
	SubtitleNL     string
	DescriptionFR  string
	DescriptionNL  string
	Duration       int      `gorm:"not null"` // minutes
	EquipmentPrice int      // EUR, flat add-on when not bundled
	SpecificDays   []string `gorm:"serializer:json"` // ["monday", "wednesday"]
	Dates          []string `gorm:"serializer:json"` // DD/MM/YYYY session dates
	Visible        bool     `gorm:"index"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Session is a purchasable package of N training occurrences within an
// activity. The total is always derived, never stored.
type Session struct {
	ID                string `gorm:"primaryKey"`
	ActivityID        string `gorm:"index"`
	Name              string
	NumberOfSessions  int
	PricePerSession   int // EUR
	EquipmentIncluded bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// TotalPrice is the package subtotal before equipment and discounts.
func (s Session) TotalPrice() int {
	return s.NumberOfSessions * s.PricePerSession
}
