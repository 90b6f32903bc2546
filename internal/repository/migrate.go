package repository

import (
	"gorm.io/gorm"

	"github.com/itskold/befa/internal/domain"
)

// Migrate creates every table the registration flow touches.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.Activity{},
		&domain.Session{},
		&domain.Group{},
		&domain.GroupMember{},
		&domain.Player{},
		&domain.Reservation{},
		&domain.PromoCode{},
	)
}
