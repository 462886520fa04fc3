package readstore

import (
	"context"

	"courtbook/internal/infra"
	"courtbook/internal/infra/db"
	"courtbook/internal/pkg/errs"
	"courtbook/internal/usecase/queries"

	"github.com/google/uuid"
)

// ReservationReadStore serves the query side directly from SQL; view types
// come back fully joined so no handler has to re-fetch resource names.
type ReservationReadStore struct {
	db db.DBTX
}

func NewReservationReadStore(dbtx db.DBTX) *ReservationReadStore {
	return &ReservationReadStore{db: dbtx}
}

func (s *ReservationReadStore) FindByID(ctx context.Context, id uuid.UUID) (*queries.ReservationView, error) {
	const q = `
		SELECT r.id, r.resource_id, res.name, r.holder_id, r.day, r.start_time, r.end_time,
		       r.status, r.price_cents, r.card_id, r.note, r.created_at, r.updated_at
		FROM reservations r
		JOIN resources res ON res.id = r.resource_id
		WHERE r.id = $1`

	var v queries.ReservationView
	err := s.db.QueryRow(ctx, q, id).Scan(
		&v.ID, &v.ResourceID, &v.ResourceName, &v.HolderID, &v.Day, &v.StartTime, &v.EndTime,
		&v.Status, &v.PriceCents, &v.CardID, &v.Note, &v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, errs.Mark(err, queries.ErrReservationNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find reservation", err)
	}
	return &v, nil
}

func (s *ReservationReadStore) FindByHolder(ctx context.Context, holderID uuid.UUID, status *string, limit int32) ([]*queries.ReservationView, error) {
	const q = `
		SELECT r.id, r.resource_id, res.name, r.holder_id, r.day, r.start_time, r.end_time,
		       r.status, r.price_cents, r.card_id, r.note, r.created_at, r.updated_at
		FROM reservations r
		JOIN resources res ON res.id = r.resource_id
		WHERE r.holder_id = $1 AND ($2::text IS NULL OR r.status = $2)
		ORDER BY r.day DESC, r.start_time DESC
		LIMIT $3`

	rows, err := s.db.Query(ctx, q, holderID, status, limit)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list reservations", err)
	}
	defer rows.Close()

	views := make([]*queries.ReservationView, 0)
	for rows.Next() {
		var v queries.ReservationView
		if err := rows.Scan(
			&v.ID, &v.ResourceID, &v.ResourceName, &v.HolderID, &v.Day, &v.StartTime, &v.EndTime,
			&v.Status, &v.PriceCents, &v.CardID, &v.Note, &v.CreatedAt, &v.UpdatedAt,
		); err != nil {
			return nil, infra.WrapRepoErr("failed to scan reservation row", err)
		}
		views = append(views, &v)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to iterate reservation rows", err)
	}
	return views, nil
}

func (s *ReservationReadStore) FindConflict(ctx context.Context, resourceID uuid.UUID, day, start, end string) (*queries.ConflictWindow, error) {
	const q = `
		SELECT id, day, start_time, end_time
		FROM reservations
		WHERE resource_id = $1 AND status = 'booked' AND day = $2
		  AND start_time < $4 AND end_time > $3
		ORDER BY start_time
		LIMIT 1`

	var w queries.ConflictWindow
	err := s.db.QueryRow(ctx, q, resourceID, day, start, end).Scan(&w.ReservationID, &w.Day, &w.StartTime, &w.EndTime)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, nil
		}
		return nil, infra.WrapRepoErr("failed to probe conflicting window", err)
	}
	return &w, nil
}

// ListElapsedBooked returns booked reservations whose window has passed:
// any past day, or today with an end time strictly before the current clock.
func (s *ReservationReadStore) ListElapsedBooked(ctx context.Context, today, nowClock string, limit int32) ([]queries.SweepCandidate, error) {
	const q = `
		SELECT id, resource_id, holder_id
		FROM reservations
		WHERE status = 'booked' AND (day < $1 OR (day = $1 AND end_time < $2))
		ORDER BY day, end_time
		LIMIT $3`

	rows, err := s.db.Query(ctx, q, today, nowClock, limit)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list elapsed reservations", err)
	}
	defer rows.Close()

	candidates := make([]queries.SweepCandidate, 0)
	for rows.Next() {
		var c queries.SweepCandidate
		if err := rows.Scan(&c.ID, &c.ResourceID, &c.HolderID); err != nil {
			return nil, infra.WrapRepoErr("failed to scan sweep candidate", err)
		}
		candidates = append(candidates, c)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to iterate sweep candidates", err)
	}
	return candidates, nil
}
