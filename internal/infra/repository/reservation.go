package repository

import (
	"context"
	"time"

	"courtbook/internal/domain/reservation"
	"courtbook/internal/infra"
	"courtbook/internal/infra/db"

	"github.com/google/uuid"
)

type ReservationRepository struct {
	db db.DBTX
}

func NewReservationRepository(dbtx db.DBTX) *ReservationRepository {
	return &ReservationRepository{db: dbtx}
}

func (r *ReservationRepository) Create(ctx context.Context, res *reservation.Reservation) (uuid.UUID, error) {
	const q = `
		INSERT INTO reservations (id, resource_id, holder_id, day, start_time, end_time, status, price_cents, card_id, note)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NULLIF($10, ''))
		RETURNING id`

	var id uuid.UUID
	err := r.db.QueryRow(ctx, q,
		res.ID(),
		res.ResourceID(),
		res.HolderID(),
		res.Slot().Day().String(),
		res.Slot().Start().String(),
		res.Slot().End().String(),
		res.Status().String(),
		res.Price().Cents(),
		res.CardID(),
		res.Note().String(),
	).Scan(&id)
	if err != nil {
		if db.IsExclusionViolation(err) {
			return uuid.Nil, infra.WrapRepoErr("overlapping booked reservation", err, infra.KindConflict)
		}
		return uuid.Nil, infra.WrapRepoErr("failed to create reservation", err)
	}

	return id, nil
}

func (r *ReservationRepository) TransitionFromBooked(ctx context.Context, id uuid.UUID, to reservation.Status, at time.Time) (bool, error) {
	const q = `
		UPDATE reservations
		SET status = $2, updated_at = $3
		WHERE id = $1 AND status = 'booked'`

	tag, err := r.db.Exec(ctx, q, id, to.String(), at)
	if err != nil {
		return false, infra.WrapRepoErr("failed to transition reservation status", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *ReservationRepository) ApplyCardDiscount(ctx context.Context, id uuid.UUID, finalCents int64, cardID uuid.UUID) error {
	const q = `
		UPDATE reservations
		SET price_cents = $2, card_id = $3, updated_at = now()
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, q, id, finalCents, cardID)
	if err != nil {
		return infra.WrapRepoErr("failed to apply card discount", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr("reservation not found", nil, infra.KindNotFound)
	}
	return nil
}

func (r *ReservationRepository) CountCompleted(ctx context.Context, holderID, resourceID uuid.UUID) (int64, error) {
	const q = `
		SELECT count(*) FROM reservations
		WHERE holder_id = $1 AND resource_id = $2 AND status = 'completed'`

	var count int64
	if err := r.db.QueryRow(ctx, q, holderID, resourceID).Scan(&count); err != nil {
		return 0, infra.WrapRepoErr("failed to count completed reservations", err)
	}
	return count, nil
}
