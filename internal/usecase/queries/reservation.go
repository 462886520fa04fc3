package queries

import (
	"context"

	"courtbook/internal/domain/user"
	"courtbook/internal/pkg/errs"

	"github.com/google/uuid"
)

var ErrReservationNotFound = errs.New("reservation not found")

type ReservationQueries interface {
	GetByID(ctx context.Context, actorID uuid.UUID, actorRole user.Role, id uuid.UUID) (*ReservationView, error)
	// GetByIDSystem skips the ownership check; used for read-after-write and
	// idempotent replays.
	GetByIDSystem(ctx context.Context, id uuid.UUID) (*ReservationView, error)
	ListByHolder(ctx context.Context, holderID uuid.UUID, status *string, limit int) ([]*ReservationView, error)
	// CheckAvailability applies the half-open overlap rule to booked rows
	// only. Read-only, no side effects.
	CheckAvailability(ctx context.Context, resourceID uuid.UUID, day, start, end string) (*AvailabilityResult, error)
}

type ReservationReadStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*ReservationView, error)
	FindByHolder(ctx context.Context, holderID uuid.UUID, status *string, limit int32) ([]*ReservationView, error)
	FindConflict(ctx context.Context, resourceID uuid.UUID, day, start, end string) (*ConflictWindow, error)
}

type reservationQueriesImpl struct {
	store ReservationReadStore
}

func NewReservationQueries(store ReservationReadStore) ReservationQueries {
	return &reservationQueriesImpl{store: store}
}

func (q *reservationQueriesImpl) GetByID(ctx context.Context, actorID uuid.UUID, actorRole user.Role, id uuid.UUID) (*ReservationView, error) {
	view, err := q.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	// Unauthorized reads surface as absent, not forbidden.
	if view.HolderID != actorID && actorRole != user.RoleAdmin {
		return nil, ErrReservationNotFound
	}
	return view, nil
}

func (q *reservationQueriesImpl) GetByIDSystem(ctx context.Context, id uuid.UUID) (*ReservationView, error) {
	return q.store.FindByID(ctx, id)
}

func (q *reservationQueriesImpl) ListByHolder(ctx context.Context, holderID uuid.UUID, status *string, limit int) ([]*ReservationView, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return q.store.FindByHolder(ctx, holderID, status, int32(limit))
}

func (q *reservationQueriesImpl) CheckAvailability(ctx context.Context, resourceID uuid.UUID, day, start, end string) (*AvailabilityResult, error) {
	conflict, err := q.store.FindConflict(ctx, resourceID, day, start, end)
	if err != nil {
		return nil, err
	}
	if conflict != nil {
		return &AvailabilityResult{Available: false, Conflict: conflict}, nil
	}
	return &AvailabilityResult{Available: true}, nil
}
