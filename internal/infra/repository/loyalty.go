package repository

import (
	"context"
	"time"

	"courtbook/internal/domain/loyalty"
	"courtbook/internal/infra"
	"courtbook/internal/infra/db"
	"courtbook/internal/usecase/shared"

	"github.com/google/uuid"
)

type LoyaltyRepository struct {
	db db.DBTX
}

func NewLoyaltyRepository(dbtx db.DBTX) *LoyaltyRepository {
	return &LoyaltyRepository{db: dbtx}
}

// LockRecord upserts the (holder, resource) record and takes its row lock for
// the rest of the transaction, serializing reconciliation per pair. Cards are
// loaded in milestone order.
func (r *LoyaltyRepository) LockRecord(ctx context.Context, holderID, resourceID uuid.UUID, now time.Time) (*loyalty.Record, error) {
	const upsert = `
		INSERT INTO loyalty_records (id, holder_id, resource_id, last_activity_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT ON CONSTRAINT loyalty_records_pair DO NOTHING`

	if _, err := r.db.Exec(ctx, upsert, uuid.New(), holderID, resourceID, now); err != nil {
		return nil, infra.WrapRepoErr("failed to upsert loyalty record", err)
	}

	const sel = `
		SELECT id, holder_id, resource_id, completed_count, total_bookings, last_activity_at, active
		FROM loyalty_records
		WHERE holder_id = $1 AND resource_id = $2
		FOR UPDATE`

	var (
		id             uuid.UUID
		hID, resID     uuid.UUID
		completed      int64
		total          int64
		lastActivityAt time.Time
		active         bool
	)
	err := r.db.QueryRow(ctx, sel, holderID, resourceID).Scan(&id, &hID, &resID, &completed, &total, &lastActivityAt, &active)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to lock loyalty record", err)
	}

	cards, err := r.loadCards(ctx, id)
	if err != nil {
		return nil, err
	}

	return loyalty.ReconstructRecord(id, hID, resID, completed, total, lastActivityAt, active, cards), nil
}

func (r *LoyaltyRepository) SaveCounts(ctx context.Context, rec *loyalty.Record) error {
	const q = `
		UPDATE loyalty_records
		SET completed_count = $2,
		    total_bookings = GREATEST(total_bookings, $3),
		    last_activity_at = $4,
		    active = $5,
		    updated_at = now()
		WHERE id = $1`

	_, err := r.db.Exec(ctx, q, rec.ID(), rec.CompletedCount(), rec.TotalBookings(), rec.LastActivityAt(), rec.IsActive())
	if err != nil {
		return infra.WrapRepoErr("failed to save loyalty counts", err)
	}
	return nil
}

func (r *LoyaltyRepository) InsertCard(ctx context.Context, recordID uuid.UUID, card *loyalty.Card) (bool, error) {
	const q = `
		INSERT INTO entitlement_cards (id, record_id, milestone, percent, issued_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT ON CONSTRAINT entitlement_cards_milestone DO NOTHING`

	tag, err := r.db.Exec(ctx, q, card.ID(), recordID, card.Milestone(), card.Percent(), card.IssuedAt(), card.ExpiresAt())
	if err != nil {
		return false, infra.WrapRepoErr("failed to insert entitlement card", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *LoyaltyRepository) FindCardForHolder(ctx context.Context, holderID, cardID uuid.UUID) (*shared.CardRecord, error) {
	const q = `
		SELECT c.id, c.milestone, c.percent, c.issued_at, c.expires_at,
		       c.scratched_at, c.redeemed_at, c.redeemed_reservation_id,
		       lr.id, lr.holder_id, lr.resource_id
		FROM entitlement_cards c
		JOIN loyalty_records lr ON lr.id = c.record_id
		WHERE c.id = $1 AND lr.holder_id = $2`

	var (
		id                   uuid.UUID
		milestone, percent   int
		issuedAt, expiresAt  time.Time
		scratchedAt          *time.Time
		redeemedAt           *time.Time
		reservationID        *uuid.UUID
		recordID, hID, resID uuid.UUID
	)
	err := r.db.QueryRow(ctx, q, cardID, holderID).Scan(
		&id, &milestone, &percent, &issuedAt, &expiresAt,
		&scratchedAt, &redeemedAt, &reservationID,
		&recordID, &hID, &resID,
	)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, infra.WrapRepoErr("entitlement card not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find entitlement card", err)
	}

	return &shared.CardRecord{
		Card:       loyalty.ReconstructCard(id, milestone, percent, issuedAt, expiresAt, scratchedAt, redeemedAt, reservationID),
		RecordID:   recordID,
		HolderID:   hID,
		ResourceID: resID,
	}, nil
}

// ScratchCard flips issued -> scratched only when the card is still in the
// exact expected state and unexpired; concurrent attempts yield one winner.
func (r *LoyaltyRepository) ScratchCard(ctx context.Context, cardID uuid.UUID, at time.Time) (bool, error) {
	const q = `
		UPDATE entitlement_cards
		SET scratched_at = $2
		WHERE id = $1 AND scratched_at IS NULL AND redeemed_at IS NULL AND expires_at > $2`

	tag, err := r.db.Exec(ctx, q, cardID, at)
	if err != nil {
		return false, infra.WrapRepoErr("failed to scratch entitlement card", err)
	}
	return tag.RowsAffected() > 0, nil
}

// RedeemCard flips scratched -> redeemed exactly once.
func (r *LoyaltyRepository) RedeemCard(ctx context.Context, cardID, reservationID uuid.UUID, at time.Time) (bool, error) {
	const q = `
		UPDATE entitlement_cards
		SET redeemed_at = $2, redeemed_reservation_id = $3
		WHERE id = $1 AND scratched_at IS NOT NULL AND redeemed_at IS NULL AND expires_at > $2`

	tag, err := r.db.Exec(ctx, q, cardID, at, reservationID)
	if err != nil {
		return false, infra.WrapRepoErr("failed to redeem entitlement card", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *LoyaltyRepository) loadCards(ctx context.Context, recordID uuid.UUID) ([]*loyalty.Card, error) {
	const q = `
		SELECT id, milestone, percent, issued_at, expires_at, scratched_at, redeemed_at, redeemed_reservation_id
		FROM entitlement_cards
		WHERE record_id = $1
		ORDER BY milestone`

	rows, err := r.db.Query(ctx, q, recordID)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to load entitlement cards", err)
	}
	defer rows.Close()

	var cards []*loyalty.Card
	for rows.Next() {
		var (
			id                  uuid.UUID
			milestone, percent  int
			issuedAt, expiresAt time.Time
			scratchedAt         *time.Time
			redeemedAt          *time.Time
			reservationID       *uuid.UUID
		)
		if err := rows.Scan(&id, &milestone, &percent, &issuedAt, &expiresAt, &scratchedAt, &redeemedAt, &reservationID); err != nil {
			return nil, infra.WrapRepoErr("failed to scan entitlement card", err)
		}
		cards = append(cards, loyalty.ReconstructCard(id, milestone, percent, issuedAt, expiresAt, scratchedAt, redeemedAt, reservationID))
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to iterate entitlement cards", err)
	}
	return cards, nil
}
