package loyalty

import (
	"errors"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
)

var (
	ErrCardAlreadyScratched = errors.New("card is already scratched")
	ErrCardNotScratched     = errors.New("card has not been scratched yet")
	ErrCardAlreadyRedeemed  = errors.New("card is already redeemed")
	ErrCardExpired          = errors.New("card has expired")
)

// CardValidity is how long a card stays usable after issuance.
const CardValidity = 6 * 30 * 24 * time.Hour // 6 months

// DiscountPercents is the fixed set a card's discount is drawn from.
var DiscountPercents = []int{35, 45, 55}

func RandomPercent() int {
	return DiscountPercents[rand.IntN(len(DiscountPercents))]
}

type CardState string

const (
	CardStateIssued    CardState = "issued"
	CardStateScratched CardState = "scratched"
	CardStateRedeemed  CardState = "redeemed"
)

// Card is a single-use discount entitlement minted at a milestone.
// It moves issued -> scratched -> redeemed and may independently expire while
// still issued or scratched; expiry is evaluated at use time, never stored.
type Card struct {
	id            uuid.UUID
	milestone     int
	percent       int
	issuedAt      time.Time
	expiresAt     time.Time
	scratchedAt   *time.Time
	redeemedAt    *time.Time
	reservationID *uuid.UUID
}

func NewCard(milestone, percent int, issuedAt time.Time) *Card {
	return &Card{
		id:        uuid.New(),
		milestone: milestone,
		percent:   percent,
		issuedAt:  issuedAt,
		expiresAt: issuedAt.Add(CardValidity),
	}
}

func ReconstructCard(
	id uuid.UUID,
	milestone, percent int,
	issuedAt, expiresAt time.Time,
	scratchedAt, redeemedAt *time.Time,
	reservationID *uuid.UUID,
) *Card {
	return &Card{
		id:            id,
		milestone:     milestone,
		percent:       percent,
		issuedAt:      issuedAt,
		expiresAt:     expiresAt,
		scratchedAt:   scratchedAt,
		redeemedAt:    redeemedAt,
		reservationID: reservationID,
	}
}

func (c *Card) State() CardState {
	switch {
	case c.redeemedAt != nil:
		return CardStateRedeemed
	case c.scratchedAt != nil:
		return CardStateScratched
	default:
		return CardStateIssued
	}
}

func (c *Card) IsExpired(now time.Time) bool {
	// A redeemed card is terminal; expiry only bites before redemption.
	return c.redeemedAt == nil && !now.Before(c.expiresAt)
}

// Scratch reveals the discount percentage.
func (c *Card) Scratch(now time.Time) error {
	if c.redeemedAt != nil {
		return ErrCardAlreadyRedeemed
	}
	if c.scratchedAt != nil {
		return ErrCardAlreadyScratched
	}
	if c.IsExpired(now) {
		return ErrCardExpired
	}
	at := now
	c.scratchedAt = &at
	return nil
}

// ValidateRedeemable checks the preconditions for consuming the card without
// mutating it; the actual state flip is a compare-and-swap at the store.
func (c *Card) ValidateRedeemable(now time.Time) error {
	if c.redeemedAt != nil {
		return ErrCardAlreadyRedeemed
	}
	if c.scratchedAt == nil {
		return ErrCardNotScratched
	}
	if c.IsExpired(now) {
		return ErrCardExpired
	}
	return nil
}

// Redeem consumes the card against exactly one reservation, terminal.
func (c *Card) Redeem(now time.Time, reservationID uuid.UUID) error {
	if err := c.ValidateRedeemable(now); err != nil {
		return err
	}
	at := now
	rid := reservationID
	c.redeemedAt = &at
	c.reservationID = &rid
	return nil
}

func (c *Card) ID() uuid.UUID             { return c.id }
func (c *Card) Milestone() int            { return c.milestone }
func (c *Card) Percent() int              { return c.percent }
func (c *Card) IssuedAt() time.Time       { return c.issuedAt }
func (c *Card) ExpiresAt() time.Time      { return c.expiresAt }
func (c *Card) ScratchedAt() *time.Time   { return c.scratchedAt }
func (c *Card) RedeemedAt() *time.Time    { return c.redeemedAt }
func (c *Card) ReservationID() *uuid.UUID { return c.reservationID }
