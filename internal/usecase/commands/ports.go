package commands

import (
	"time"

	"courtbook/internal/domain/loyalty"
	"courtbook/internal/domain/user"
	"courtbook/internal/usecase/queries"

	"github.com/google/uuid"
)

// Actor is the already-authenticated principal an operation runs as; this
// core never authenticates beyond role checks.
type Actor struct {
	ID     uuid.UUID
	Role   user.Role
	System bool
}

// SystemActor is the principal the background sweep completes reservations as.
var SystemActor = Actor{ID: uuid.Nil, Role: user.RoleAdmin, System: true}

func (a Actor) IsAdmin() bool {
	return a.Role == user.RoleAdmin
}

type CreateReservationParams struct {
	ResourceID uuid.UUID
	HolderID   uuid.UUID
	Day        string
	StartTime  string
	EndTime    string
	Note       string
	CardID     *uuid.UUID
}

type CreateReservationResult struct {
	Reservation *queries.ReservationView
	Discount    *DiscountBreakdown
	IsReplayed  bool
}

type DiscountBreakdown struct {
	OriginalCents int64 `json:"original_cents"`
	DiscountCents int64 `json:"discount_cents"`
	FinalCents    int64 `json:"final_cents"`
	Percent       int   `json:"percent"`
}

type CompleteReservationResult struct {
	Reservation *queries.ReservationView
	Loyalty     *LoyaltyUpdateSummary
	// NoOp is set when the reservation was already completed; the sweep and
	// manual completion may race and both must treat that as success.
	NoOp bool
}

// LoyaltyUpdateSummary reports the ledger update that follows a completion.
// A failed update is carried here as a partial success, never rolled back:
// the status transition is the primary effect.
type LoyaltyUpdateSummary struct {
	Completed     int64              `json:"completed"`
	TotalBookings int64              `json:"total_bookings"`
	NewCards      []queries.CardView `json:"new_cards"`
	UpdateError   *string            `json:"update_error,omitempty"`
}

type ReconcileResult struct {
	Record   *queries.LoyaltyView
	NewCards []queries.CardView
}

func cardView(c *loyalty.Card, now time.Time) queries.CardView {
	v := queries.CardView{
		ID:          c.ID(),
		Milestone:   c.Milestone(),
		State:       string(c.State()),
		Expired:     c.IsExpired(now),
		IssuedAt:    c.IssuedAt(),
		ExpiresAt:   c.ExpiresAt(),
		ScratchedAt: c.ScratchedAt(),
		RedeemedAt:  c.RedeemedAt(),
	}
	// The discount stays hidden until the holder scratches the card.
	if c.State() != loyalty.CardStateIssued {
		p := c.Percent()
		v.Percent = &p
	}
	return v
}

func loyaltyView(rec *loyalty.Record, now time.Time) *queries.LoyaltyView {
	cards := make([]queries.CardView, 0, len(rec.Cards()))
	for _, c := range rec.Cards() {
		cards = append(cards, cardView(c, now))
	}
	return &queries.LoyaltyView{
		HolderID:      rec.HolderID(),
		ResourceID:    rec.ResourceID(),
		Completed:     rec.CompletedCount(),
		TotalBookings: rec.TotalBookings(),
		ToNextCard:    rec.ProgressToNextMilestone(),
		LastActivity:  rec.LastActivityAt(),
		Cards:         cards,
	}
}
