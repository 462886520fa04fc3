package uow

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"courtbook/internal/domain/reservation"
	"courtbook/internal/infra"
	"courtbook/internal/infra/db"
	"courtbook/internal/infra/repository"
	"courtbook/internal/usecase/shared"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	maxTxAttempts = 3
	retryBackoff  = 20 * time.Millisecond

	pgErrCodeSerializationFailure = "40001"
	pgErrCodeDeadlockDetected     = "40P01"
)

type PostgresUnitOfWork struct {
	pool *pgxpool.Pool
}

func NewPostgresUnitOfWork(pool *pgxpool.Pool) *PostgresUnitOfWork {
	return &PostgresUnitOfWork{pool: pool}
}

func (u *PostgresUnitOfWork) Within(ctx context.Context, fn func(ctx context.Context, tx shared.Tx) error) error {
	var lastErr error
	for attempt := 1; attempt <= maxTxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(retryBackoff * time.Duration(attempt-1)):
			}
		}

		err := u.runInTx(ctx, fn)
		if err == nil {
			return nil
		}
		if !isRetryable(err) {
			return err
		}
		slog.WarnContext(ctx, "retrying transaction", "attempt", attempt, "error", err)
		lastErr = err
	}
	return infra.WrapRepoErr("transaction retries exhausted", lastErr)
}

func (u *PostgresUnitOfWork) Reads() shared.CommandReads {
	return &commandReads{db: u.pool}
}

func (u *PostgresUnitOfWork) runInTx(ctx context.Context, fn func(ctx context.Context, tx shared.Tx) error) error {
	pgtx, err := u.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return infra.WrapRepoErr("failed to begin transaction", err)
	}
	defer func() {
		// No-op once committed.
		_ = pgtx.Rollback(ctx)
	}()

	if err := fn(ctx, newTxBundle(pgtx)); err != nil {
		return err
	}
	if err := pgtx.Commit(ctx); err != nil {
		return infra.WrapRepoErr("failed to commit transaction", err)
	}
	return nil
}

// Serialization failures and deadlocks are transient by contract; everything
// else propagates to the caller on the first attempt.
func isRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == pgErrCodeSerializationFailure || pgErr.Code == pgErrCodeDeadlockDetected
}

// txBundle hands out repositories bound to one open transaction.
type txBundle struct {
	reservations  *repository.ReservationRepository
	loyalty       *repository.LoyaltyRepository
	idempotency   *repository.IdempotencyRepository
	notifications *repository.NotificationRepository
	reads         *commandReads
}

func newTxBundle(dbtx db.DBTX) *txBundle {
	return &txBundle{
		reservations:  repository.NewReservationRepository(dbtx),
		loyalty:       repository.NewLoyaltyRepository(dbtx),
		idempotency:   repository.NewIdempotencyRepository(dbtx),
		notifications: repository.NewNotificationRepository(dbtx),
		reads:         &commandReads{db: dbtx},
	}
}

func (t *txBundle) Reservations() shared.ReservationRepository   { return t.reservations }
func (t *txBundle) Loyalty() shared.LoyaltyRepository            { return t.loyalty }
func (t *txBundle) Idempotency() shared.IdempotencyRepository    { return t.idempotency }
func (t *txBundle) Notifications() shared.NotificationRepository { return t.notifications }
func (t *txBundle) Reads() shared.CommandReads                   { return t.reads }

type commandReads struct {
	db db.DBTX
}

func (r *commandReads) ResourceByID(ctx context.Context, id uuid.UUID) (*shared.ResourceSnapshot, error) {
	const q = `
		SELECT id, name, hourly_rate_cents, owner_id, active
		FROM resources
		WHERE id = $1`

	var snap shared.ResourceSnapshot
	err := r.db.QueryRow(ctx, q, id).Scan(&snap.ID, &snap.Name, &snap.HourlyRateCents, &snap.OwnerID, &snap.Active)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, infra.WrapRepoErr("resource not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find resource", err)
	}
	return &snap, nil
}

func (r *commandReads) ReservationByID(ctx context.Context, id uuid.UUID) (*shared.ReservationSnapshot, error) {
	const q = `
		SELECT id, resource_id, holder_id, day, start_time, end_time, status, price_cents
		FROM reservations
		WHERE id = $1`

	var (
		snap   shared.ReservationSnapshot
		status string
	)
	err := r.db.QueryRow(ctx, q, id).Scan(
		&snap.ID, &snap.ResourceID, &snap.HolderID, &snap.Day, &snap.StartTime, &snap.EndTime, &status, &snap.PriceCents,
	)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, infra.WrapRepoErr("reservation not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find reservation", err)
	}
	snap.Status = reservation.Status(status)
	return &snap, nil
}

func (r *commandReads) IdempotencyByKey(ctx context.Context, key, holderID uuid.UUID) (*shared.IdempotencyRecord, error) {
	const q = `
		SELECT key, holder_id, status, request_hash, result_reservation_id, expires_at
		FROM idempotency_keys
		WHERE key = $1 AND holder_id = $2`

	var rec shared.IdempotencyRecord
	err := r.db.QueryRow(ctx, q, key, holderID).Scan(
		&rec.Key, &rec.HolderID, &rec.Status, &rec.RequestHash, &rec.ResultReservationID, &rec.ExpiresAt,
	)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, infra.WrapRepoErr("idempotency key not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find idempotency key", err)
	}
	return &rec, nil
}
