package shared

import (
	"context"
	"time"

	"courtbook/internal/domain/loyalty"
	"courtbook/internal/domain/reservation"

	"github.com/google/uuid"
)

type UnitOfWork interface {
	// Within: full transaction for write operations with retry on
	// serialization failures and deadlocks.
	Within(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	// Reads: direct access to command-side reads outside any transaction.
	Reads() CommandReads
}

type Tx interface {
	Reservations() ReservationRepository
	Loyalty() LoyaltyRepository
	Idempotency() IdempotencyRepository
	Notifications() NotificationRepository
	Reads() CommandReads
}

// CommandReads are the minimal lookups the write side needs for validation;
// the read side proper lives in usecase/queries.
type CommandReads interface {
	ResourceByID(ctx context.Context, id uuid.UUID) (*ResourceSnapshot, error)
	ReservationByID(ctx context.Context, id uuid.UUID) (*ReservationSnapshot, error)
	IdempotencyByKey(ctx context.Context, key, holderID uuid.UUID) (*IdempotencyRecord, error)
}

// Write-side snapshots keep commands decoupled from read-side view types.
type ResourceSnapshot struct {
	ID              uuid.UUID
	Name            string
	HourlyRateCents int64
	OwnerID         uuid.UUID
	Active          bool
}

type ReservationSnapshot struct {
	ID         uuid.UUID
	ResourceID uuid.UUID
	HolderID   uuid.UUID
	Day        string
	StartTime  string
	EndTime    string
	Status     reservation.Status
	PriceCents int64
}

type IdempotencyRecord struct {
	Key                 uuid.UUID
	HolderID            uuid.UUID
	Status              string
	RequestHash         string
	ResultReservationID *uuid.UUID
	ExpiresAt           time.Time
}

// CardRecord pairs a card with the loyalty record it belongs to, for
// ownership and resource checks during scratch/redeem.
type CardRecord struct {
	Card       *loyalty.Card
	RecordID   uuid.UUID
	HolderID   uuid.UUID
	ResourceID uuid.UUID
}

type ReservationRepository interface {
	Create(ctx context.Context, res *reservation.Reservation) (uuid.UUID, error)
	// TransitionFromBooked flips status only when it is still booked and
	// reports whether a row changed; racing transitions lose harmlessly.
	TransitionFromBooked(ctx context.Context, id uuid.UUID, to reservation.Status, at time.Time) (bool, error)
	// ApplyCardDiscount rewrites the price after a successful card redemption.
	ApplyCardDiscount(ctx context.Context, id uuid.UUID, finalCents int64, cardID uuid.UUID) error
	// CountCompleted is the authoritative ground truth the loyalty ledger
	// reconciles against.
	CountCompleted(ctx context.Context, holderID, resourceID uuid.UUID) (int64, error)
}

type LoyaltyRepository interface {
	// LockRecord upserts the (holder, resource) record, takes a row lock on
	// it for the remainder of the transaction and loads its cards. The lock
	// serializes concurrent reconciliations per pair.
	LockRecord(ctx context.Context, holderID, resourceID uuid.UUID, now time.Time) (*loyalty.Record, error)
	SaveCounts(ctx context.Context, rec *loyalty.Record) error
	// InsertCard appends a card for its milestone; a concurrent duplicate for
	// the same milestone is swallowed by the per-milestone unique key and
	// reported as inserted=false.
	InsertCard(ctx context.Context, recordID uuid.UUID, card *loyalty.Card) (bool, error)
	FindCardForHolder(ctx context.Context, holderID, cardID uuid.UUID) (*CardRecord, error)
	// ScratchCard and RedeemCard are compare-and-swap transitions: they
	// succeed only from the exact expected prior state, so concurrent
	// attempts yield exactly one winner.
	ScratchCard(ctx context.Context, cardID uuid.UUID, at time.Time) (bool, error)
	RedeemCard(ctx context.Context, cardID, reservationID uuid.UUID, at time.Time) (bool, error)
}

type IdempotencyRepository interface {
	// TryInsert claims the key with status processing; inserted=false means
	// another request already holds it.
	TryInsert(ctx context.Context, key, holderID uuid.UUID, endpoint, requestHash string, expiresAt time.Time) (bool, error)
	MarkCompleted(ctx context.Context, key, holderID uuid.UUID, resultReservationID uuid.UUID) error
}

type NotificationRepository interface {
	CreateJob(ctx context.Context, kind, topic string, payload []byte, runAt time.Time) error
}
