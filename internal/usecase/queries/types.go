package queries

import (
	"time"

	"github.com/google/uuid"
)

// Read models (DTO for read side)
type ReservationView struct {
	ID           uuid.UUID  `json:"id"`
	ResourceID   uuid.UUID  `json:"resource_id"`
	ResourceName string     `json:"resource_name"`
	HolderID     uuid.UUID  `json:"holder_id"`
	Day          string     `json:"day"`
	StartTime    string     `json:"start_time"`
	EndTime      string     `json:"end_time"`
	Status       string     `json:"status"`
	PriceCents   int64      `json:"price_cents"`
	CardID       *uuid.UUID `json:"card_id,omitempty"`
	Note         *string    `json:"note,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// ConflictWindow describes the booked slot a rejected creation collided with.
type ConflictWindow struct {
	ReservationID uuid.UUID `json:"reservation_id"`
	Day           string    `json:"day"`
	StartTime     string    `json:"start_time"`
	EndTime       string    `json:"end_time"`
}

type AvailabilityResult struct {
	Available bool            `json:"available"`
	Conflict  *ConflictWindow `json:"conflict,omitempty"`
}

// CardView hides the discount percentage until the card is scratched.
type CardView struct {
	ID          uuid.UUID  `json:"id"`
	Milestone   int        `json:"milestone"`
	Percent     *int       `json:"percent,omitempty"`
	State       string     `json:"state"`
	Expired     bool       `json:"expired"`
	IssuedAt    time.Time  `json:"issued_at"`
	ExpiresAt   time.Time  `json:"expires_at"`
	ScratchedAt *time.Time `json:"scratched_at,omitempty"`
	RedeemedAt  *time.Time `json:"redeemed_at,omitempty"`
}

// SweepCandidate is the slice of a booked reservation the reconciliation
// sweep needs to drive a completion.
type SweepCandidate struct {
	ID         uuid.UUID
	ResourceID uuid.UUID
	HolderID   uuid.UUID
}

type LoyaltyView struct {
	HolderID      uuid.UUID  `json:"holder_id"`
	ResourceID    uuid.UUID  `json:"resource_id"`
	Completed     int64      `json:"completed"`
	TotalBookings int64      `json:"total_bookings"`
	ToNextCard    int        `json:"to_next_card"`
	LastActivity  time.Time  `json:"last_activity"`
	Cards         []CardView `json:"cards"`
}
