package notify

import (
	"encoding/json"
	"fmt"
)

// Routing keys on the registration exchange.
const (
	RKReservationCreated   = "reservation.created"
	RKReservationConfirmed = "reservation.confirmed"
	RKPaymentFailed        = "payment.failed"
)

type ReservationCreated struct {
	ReservationID string `json:"reservation_id"`
	PlayerID      string `json:"player_id"`
	GroupID       string `json:"group_id"`
	ActivityID    string `json:"activity_id"`
	Amount        int    `json:"amount"`
}

// ConfirmationEmail is the variable bag for the confirmation template:
// everything the email needs, resolved by the publisher so the worker
// never reads the database.
type ConfirmationEmail struct {
	Email          string   `json:"email"`
	FirstName      string   `json:"first_name"`
	Lang           string   `json:"lang"`
	SessionCount   int      `json:"session_count"`
	Location       string   `json:"location"`
	Category       string   `json:"category"` // group name, e.g. "U10"
	StartTime      string   `json:"start_time"`
	EndTime        string   `json:"end_time"`
	Weekday        string   `json:"weekday"`
	SessionDates   []string `json:"session_dates"`
	ExtraEquipment []string `json:"extra_equipment,omitempty"`
}

type ReservationConfirmed struct {
	ReservationID string            `json:"reservation_id"`
	Amount        int               `json:"amount"`
	Mail          ConfirmationEmail `json:"mail"`
}

type PaymentFailed struct {
	ReservationID string `json:"reservation_id"`
	Reason        string `json:"reason,omitempty"`
}

func MustUnmarshal[T any](b []byte) (T, error) {
	var t T
	if err := json.Unmarshal(b, &t); err != nil {
		var zero T
		return zero, fmt.Errorf("decode payload failed: %w", err)
	}
	return t, nil
}
