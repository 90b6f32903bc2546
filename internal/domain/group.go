package domain

import "time"

// Group is an age-bracketed roster and time slot within an activity,
// e.g. "U10" starting at 13:00.
type Group struct {
	ID         string `gorm:"primaryKey"`
	ActivityID string `gorm:"index"`
	Name       string
	StartTime  string // "13:00"
	MaxPlayers int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// GroupMember is one roster entry. The composite unique index is what
// makes add-to-roster an atomic add-if-absent.
type GroupMember struct {
	GroupID  string `gorm:"primaryKey;uniqueIndex:idx_group_player"`
	PlayerID string `gorm:"primaryKey;uniqueIndex:idx_group_player"`
	Waiting  bool   `gorm:"index"` // waiting list entry, not counted against MaxPlayers
	JoinedAt time.Time
}
