package repository

import (
	"context"
	"time"

	"courtbook/internal/infra"
	"courtbook/internal/infra/db"

	"github.com/google/uuid"
)

type IdempotencyRepository struct {
	db db.DBTX
}

func NewIdempotencyRepository(dbtx db.DBTX) *IdempotencyRepository {
	return &IdempotencyRepository{db: dbtx}
}

func (r *IdempotencyRepository) TryInsert(ctx context.Context, key, holderID uuid.UUID, endpoint, requestHash string, expiresAt time.Time) (bool, error) {
	const q = `
		INSERT INTO idempotency_keys (key, holder_id, endpoint, request_hash, status, expires_at)
		VALUES ($1, $2, $3, $4, 'processing', $5)
		ON CONFLICT (key, holder_id) DO NOTHING`

	tag, err := r.db.Exec(ctx, q, key, holderID, endpoint, requestHash, expiresAt)
	if err != nil {
		return false, infra.WrapRepoErr("failed to claim idempotency key", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *IdempotencyRepository) MarkCompleted(ctx context.Context, key, holderID uuid.UUID, resultReservationID uuid.UUID) error {
	const q = `
		UPDATE idempotency_keys
		SET status = 'completed', result_reservation_id = $3, updated_at = now()
		WHERE key = $1 AND holder_id = $2`

	tag, err := r.db.Exec(ctx, q, key, holderID, resultReservationID)
	if err != nil {
		return infra.WrapRepoErr("failed to complete idempotency key", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr("idempotency key not found", nil, infra.KindNotFound)
	}
	return nil
}
