package domain

import "time"

type Address struct {
	Street     string
	PostalCode string
	City       string
}

// Player is the registered participant's profile, created on first
// registration and reused afterwards. The id slices are sets: a second
// registration for the same group must not duplicate entries.
type Player struct {
	ID          string `gorm:"primaryKey"`
	Name        string `gorm:"index"`
	Lastname    string `gorm:"index"`
	DateOfBirth time.Time
	Email       string `gorm:"index"`
	Phone1      string `gorm:"index"`
	Phone2      string
	Address     Address `gorm:"embedded;embeddedPrefix:address_"`
	Club        string
	Lang        string // "fr" | "nl"
	Note        string // free-text medical note

	ActivityIDs []string `gorm:"serializer:json"`
	GroupIDs    []string `gorm:"serializer:json"`
	SessionIDs  []string `gorm:"serializer:json"`
	Books       []string `gorm:"serializer:json"` // reservation ids

	CreatedAt time.Time
	UpdatedAt time.Time
}

// AppendUnique adds v to set when absent and reports whether it did.
func AppendUnique(set []string, v string) ([]string, bool) {
	if v == "" {
		return set, false
	}
	for _, s := range set {
		if s == v {
			return set, false
		}
	}
	return append(set, v), true
}
