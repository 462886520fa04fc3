package reservation

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNegativePrice    = errors.New("price cannot be negative")
	ErrAlreadyCancelled = errors.New("reservation is already cancelled")
	ErrAlreadyCompleted = errors.New("reservation is already completed")
	ErrNotBooked        = errors.New("reservation is not in booked status")
)

type Reservation struct {
	id         uuid.UUID
	resourceID uuid.UUID
	holderID   uuid.UUID
	slot       TimeSlot
	status     Status
	price      Money
	cardID     *uuid.UUID
	note       Note
	createdAt  time.Time
	updatedAt  time.Time
}

func NewReservation(
	resourceID, holderID uuid.UUID,
	slot TimeSlot,
	price Money,
	note Note,
) (*Reservation, error) {
	if price.IsNegative() {
		return nil, ErrNegativePrice
	}

	return &Reservation{
		id:         uuid.New(),
		resourceID: resourceID,
		holderID:   holderID,
		slot:       slot,
		status:     StatusBooked,
		price:      price,
		note:       note,
	}, nil
}

func ReconstructReservation(
	id, resourceID, holderID uuid.UUID,
	slot TimeSlot,
	status Status,
	price Money,
	cardID *uuid.UUID,
	note Note,
	createdAt, updatedAt time.Time,
) *Reservation {
	return &Reservation{
		id:         id,
		resourceID: resourceID,
		holderID:   holderID,
		slot:       slot,
		status:     status,
		price:      price,
		cardID:     cardID,
		note:       note,
		createdAt:  createdAt,
		updatedAt:  updatedAt,
	}
}

// ApplyCard books the entitlement card against this reservation and discounts
// the price, returning the breakdown reported to the caller.
func (r *Reservation) ApplyCard(cardID uuid.UUID, percent int) DiscountBreakdown {
	final, off := r.price.ApplyPercent(percent)
	breakdown := DiscountBreakdown{
		OriginalCents: r.price.Cents(),
		DiscountCents: off.Cents(),
		FinalCents:    final.Cents(),
		Percent:       percent,
	}
	r.price = final
	id := cardID
	r.cardID = &id
	return breakdown
}

// Cancel transitions booked -> cancelled, exactly once.
func (r *Reservation) Cancel() error {
	switch r.status {
	case StatusCancelled:
		return ErrAlreadyCancelled
	case StatusCompleted:
		return ErrAlreadyCompleted
	}
	r.status = StatusCancelled
	return nil
}

// Complete transitions booked -> completed, exactly once.
func (r *Reservation) Complete() error {
	switch r.status {
	case StatusCancelled:
		return ErrAlreadyCancelled
	case StatusCompleted:
		return ErrAlreadyCompleted
	}
	r.status = StatusCompleted
	return nil
}

func (r *Reservation) IsBooked() bool {
	return r.status == StatusBooked
}

func (r *Reservation) ID() uuid.UUID         { return r.id }
func (r *Reservation) ResourceID() uuid.UUID { return r.resourceID }
func (r *Reservation) HolderID() uuid.UUID   { return r.holderID }
func (r *Reservation) Slot() TimeSlot        { return r.slot }
func (r *Reservation) Status() Status        { return r.status }
func (r *Reservation) Price() Money          { return r.price }
func (r *Reservation) CardID() *uuid.UUID    { return r.cardID }
func (r *Reservation) Note() Note            { return r.note }
func (r *Reservation) CreatedAt() time.Time  { return r.createdAt }
func (r *Reservation) UpdatedAt() time.Time  { return r.updatedAt }

type DiscountBreakdown struct {
	OriginalCents int64 `json:"originalCents"`
	DiscountCents int64 `json:"discountCents"`
	FinalCents    int64 `json:"finalCents"`
	Percent       int   `json:"percent"`
}
