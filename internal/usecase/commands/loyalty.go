package commands

import (
	"context"
	"encoding/json"
	"errors"

	"courtbook/internal/domain/loyalty"
	"courtbook/internal/domain/reservation"
	"courtbook/internal/infra"
	"courtbook/internal/pkg/clock"
	"courtbook/internal/pkg/errs"
	"courtbook/internal/usecase/queries"
	"courtbook/internal/usecase/shared"

	"github.com/google/uuid"
)

type LoyaltyCommands interface {
	// Reconcile repairs the (holder, resource) ledger against the authoritative
	// completed-reservation count, minting any cards owed for reached
	// milestones. Idempotent; serialized per pair by a record-level lock.
	Reconcile(ctx context.Context, holderID, resourceID uuid.UUID) (*ReconcileResult, error)
	Scratch(ctx context.Context, holderID, cardID uuid.UUID) (int, error)
	Redeem(ctx context.Context, holderID, cardID, reservationID uuid.UUID) (*DiscountBreakdown, error)
}

type loyaltyCommandsImpl struct {
	uow   shared.UnitOfWork
	clock clock.Clock
}

func NewLoyaltyCommands(uow shared.UnitOfWork, clk clock.Clock) LoyaltyCommands {
	return &loyaltyCommandsImpl{uow: uow, clock: clk}
}

func (l *loyaltyCommandsImpl) Reconcile(ctx context.Context, holderID, resourceID uuid.UUID) (*ReconcileResult, error) {
	now := l.clock.Now()
	result := &ReconcileResult{NewCards: []queries.CardView{}}

	err := l.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		rec, err := tx.Loyalty().LockRecord(ctx, holderID, resourceID, now)
		if err != nil {
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}

		completed, err := tx.Reservations().CountCompleted(ctx, holderID, resourceID)
		if err != nil {
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}
		rec.SetAuthoritativeCount(completed, now)

		for _, milestone := range rec.MissingMilestones() {
			card := loyalty.NewCard(milestone, loyalty.RandomPercent(), now)
			inserted, err := tx.Loyalty().InsertCard(ctx, rec.ID(), card)
			if err != nil {
				return errs.Mark(err, ErrDatabaseOperationFailed)
			}
			// inserted=false means a concurrent reconciliation already minted
			// this milestone; the unique key keeps issuance exactly-once.
			if inserted {
				rec.AttachCard(card)
				result.NewCards = append(result.NewCards, cardView(card, now))
			}
		}

		if err := tx.Loyalty().SaveCounts(ctx, rec); err != nil {
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}

		if len(result.NewCards) > 0 {
			payload, err := json.Marshal(map[string]any{
				"holder_id":   holderID,
				"resource_id": resourceID,
				"cards":       len(result.NewCards),
			})
			if err != nil {
				return errs.Mark(err, ErrDatabaseOperationFailed)
			}
			if err := tx.Notifications().CreateJob(ctx, "email", "loyalty_cards_issued", payload, now); err != nil {
				return errs.Mark(err, ErrDatabaseOperationFailed)
			}
		}

		result.Record = loyaltyView(rec, now)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (l *loyaltyCommandsImpl) Scratch(ctx context.Context, holderID, cardID uuid.UUID) (int, error) {
	now := l.clock.Now()
	var percent int

	err := l.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		cr, err := l.cardForHolder(ctx, tx, holderID, cardID)
		if err != nil {
			return err
		}
		if err := cr.Card.Scratch(now); err != nil {
			return markCardError(err)
		}

		won, err := tx.Loyalty().ScratchCard(ctx, cardID, now)
		if err != nil {
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}
		if !won {
			return ErrCardAlreadyScratched
		}

		percent = cr.Card.Percent()
		return nil
	})
	if err != nil {
		return 0, err
	}

	return percent, nil
}

func (l *loyaltyCommandsImpl) Redeem(ctx context.Context, holderID, cardID, reservationID uuid.UUID) (*DiscountBreakdown, error) {
	now := l.clock.Now()
	var breakdown *DiscountBreakdown

	err := l.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		snap, err := tx.Reads().ReservationByID(ctx, reservationID)
		if err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return ErrReservationNotFound
			}
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}
		if snap.HolderID != holderID {
			return ErrReservationNotFound
		}
		if snap.Status != reservation.StatusBooked {
			return ErrReservationNotOpen
		}

		cr, err := l.cardForHolder(ctx, tx, holderID, cardID)
		if err != nil {
			return err
		}
		if cr.ResourceID != snap.ResourceID {
			return ErrCardWrongResource
		}
		if err := cr.Card.ValidateRedeemable(now); err != nil {
			return markCardError(err)
		}

		won, err := tx.Loyalty().RedeemCard(ctx, cardID, reservationID, now)
		if err != nil {
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}
		if !won {
			return ErrCardAlreadyRedeemed
		}

		final, off := reservation.NewMoney(snap.PriceCents).ApplyPercent(cr.Card.Percent())
		if err := tx.Reservations().ApplyCardDiscount(ctx, reservationID, final.Cents(), cardID); err != nil {
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}

		breakdown = &DiscountBreakdown{
			OriginalCents: snap.PriceCents,
			DiscountCents: off.Cents(),
			FinalCents:    final.Cents(),
			Percent:       cr.Card.Percent(),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return breakdown, nil
}

func (l *loyaltyCommandsImpl) cardForHolder(ctx context.Context, tx shared.Tx, holderID, cardID uuid.UUID) (*shared.CardRecord, error) {
	cr, err := tx.Loyalty().FindCardForHolder(ctx, holderID, cardID)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, ErrCardNotFound
		}
		return nil, errs.Mark(err, ErrDatabaseOperationFailed)
	}
	return cr, nil
}

func markCardError(err error) error {
	switch {
	case errors.Is(err, loyalty.ErrCardAlreadyScratched):
		return ErrCardAlreadyScratched
	case errors.Is(err, loyalty.ErrCardNotScratched):
		return ErrCardNotScratched
	case errors.Is(err, loyalty.ErrCardAlreadyRedeemed):
		return ErrCardAlreadyRedeemed
	case errors.Is(err, loyalty.ErrCardExpired):
		return ErrCardExpired
	default:
		return errs.Mark(err, ErrDatabaseOperationFailed)
	}
}
