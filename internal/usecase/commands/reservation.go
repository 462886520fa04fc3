package commands

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"courtbook/internal/domain/reservation"
	"courtbook/internal/domain/resource"
	"courtbook/internal/infra"
	"courtbook/internal/pkg/clock"
	"courtbook/internal/pkg/errs"
	"courtbook/internal/usecase/queries"
	"courtbook/internal/usecase/shared"

	"github.com/google/uuid"
)

const idempotencyKeyTTL = 24 * time.Hour

type ReservationCommands interface {
	Create(ctx context.Context, params CreateReservationParams, idempotencyKey *uuid.UUID) (*CreateReservationResult, error)
	Cancel(ctx context.Context, reservationID uuid.UUID, actor Actor) (*queries.ReservationView, error)
	Complete(ctx context.Context, reservationID uuid.UUID, actor Actor) (*CompleteReservationResult, error)
}

type reservationCommandsImpl struct {
	uow                shared.UnitOfWork
	reservationQueries queries.ReservationQueries
	loyaltyCommands    LoyaltyCommands
	priceCalc          reservation.PriceCalculator
	clock              clock.Clock
}

func NewReservationCommands(
	uow shared.UnitOfWork,
	reservationQueries queries.ReservationQueries,
	loyaltyCommands LoyaltyCommands,
	priceCalc reservation.PriceCalculator,
	clk clock.Clock,
) ReservationCommands {
	return &reservationCommandsImpl{
		uow:                uow,
		reservationQueries: reservationQueries,
		loyaltyCommands:    loyaltyCommands,
		priceCalc:          priceCalc,
		clock:              clk,
	}
}

func (r *reservationCommandsImpl) Create(
	ctx context.Context,
	params CreateReservationParams,
	idempotencyKey *uuid.UUID,
) (*CreateReservationResult, error) {
	slot, err := parseSlot(params.Day, params.StartTime, params.EndTime)
	if err != nil {
		return nil, errs.Mark(err, ErrInvalidTimeSlot)
	}

	res, err := r.lookupActiveResource(ctx, params.ResourceID)
	if err != nil {
		return nil, err
	}

	if idempotencyKey != nil {
		replayed, err := r.claimIdempotencyKey(ctx, *idempotencyKey, params)
		if err != nil {
			return nil, err
		}
		if replayed != nil {
			return &CreateReservationResult{Reservation: replayed, IsReplayed: true}, nil
		}
	}

	price := r.priceCalc.CalculatePriceCents(res.HourlyRateCents(), slot)
	entity, err := reservation.NewReservation(res.ID(), params.HolderID, slot, reservation.NewMoney(price), reservation.NewNote(params.Note))
	if err != nil {
		return nil, errs.Mark(err, ErrInvalidTimeSlot)
	}

	now := r.clock.Now()
	var breakdown *DiscountBreakdown

	err = r.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		if params.CardID != nil {
			b, err := r.redeemCardForEntity(ctx, tx, params.HolderID, *params.CardID, entity, now)
			if err != nil {
				return err
			}
			breakdown = b
		}

		if _, err := tx.Reservations().Create(ctx, entity); err != nil {
			if infra.IsKind(err, infra.KindConflict) {
				return ErrReservationConflict
			}
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}

		if idempotencyKey != nil {
			if err := tx.Idempotency().MarkCompleted(ctx, *idempotencyKey, params.HolderID, entity.ID()); err != nil {
				return errs.Mark(err, ErrDatabaseOperationFailed)
			}
		}

		return r.enqueueJob(ctx, tx, "reservation_created", map[string]any{
			"reservation_id": entity.ID(),
			"holder_id":      params.HolderID,
		}, now)
	})
	if err != nil {
		if errors.Is(err, ErrReservationConflict) {
			return nil, r.conflictWithWindow(ctx, res.ID(), slot)
		}
		return nil, err
	}

	view, err := r.reservationQueries.GetByIDSystem(ctx, entity.ID())
	if err != nil {
		return nil, errs.Mark(err, ErrDatabaseOperationFailed)
	}

	return &CreateReservationResult{Reservation: view, Discount: breakdown}, nil
}

func (r *reservationCommandsImpl) Cancel(ctx context.Context, reservationID uuid.UUID, actor Actor) (*queries.ReservationView, error) {
	now := r.clock.Now()

	err := r.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		snap, err := tx.Reads().ReservationByID(ctx, reservationID)
		if err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return ErrReservationNotFound
			}
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}
		// Unauthorized cancellation surfaces as absent.
		if snap.HolderID != actor.ID && !actor.IsAdmin() {
			return ErrReservationNotFound
		}

		switch snap.Status {
		case reservation.StatusCancelled:
			return ErrAlreadyCancelled
		case reservation.StatusCompleted:
			return ErrAlreadyCompleted
		}

		changed, err := tx.Reservations().TransitionFromBooked(ctx, reservationID, reservation.StatusCancelled, now)
		if err != nil {
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}
		if !changed {
			// Lost a race with another transition since the snapshot read.
			return ErrAlreadyCancelled
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return r.reservationQueries.GetByIDSystem(ctx, reservationID)
}

func (r *reservationCommandsImpl) Complete(ctx context.Context, reservationID uuid.UUID, actor Actor) (*CompleteReservationResult, error) {
	now := r.clock.Now()
	reads := r.uow.Reads()

	snap, err := reads.ReservationByID(ctx, reservationID)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, ErrReservationNotFound
		}
		return nil, errs.Mark(err, ErrDatabaseOperationFailed)
	}

	if !actor.System {
		res, err := reads.ResourceByID(ctx, snap.ResourceID)
		if err != nil {
			return nil, errs.Mark(err, ErrDatabaseOperationFailed)
		}
		if res.OwnerID != actor.ID && !actor.IsAdmin() {
			return nil, ErrForbidden
		}
	}

	result := &CompleteReservationResult{}

	err = r.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		changed, err := tx.Reservations().TransitionFromBooked(ctx, reservationID, reservation.StatusCompleted, now)
		if err != nil {
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}
		if changed {
			return nil
		}
		// Re-read under the transaction: a concurrent completion is a
		// successful no-op, a cancellation is not.
		current, err := tx.Reads().ReservationByID(ctx, reservationID)
		if err != nil {
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}
		if current.Status == reservation.StatusCompleted {
			result.NoOp = true
			return nil
		}
		return ErrAlreadyCancelled
	})
	if err != nil {
		return nil, err
	}

	view, err := r.reservationQueries.GetByIDSystem(ctx, reservationID)
	if err != nil {
		return nil, errs.Mark(err, ErrDatabaseOperationFailed)
	}
	result.Reservation = view

	// The ledger update is reported, not rolled back: the status transition
	// above is the primary effect and stays committed even when
	// reconciliation fails.
	summary := &LoyaltyUpdateSummary{NewCards: []queries.CardView{}}
	reconciled, rerr := r.loyaltyCommands.Reconcile(ctx, snap.HolderID, snap.ResourceID)
	if rerr != nil {
		slog.Error("loyalty reconciliation failed after completion",
			"reservation_id", reservationID,
			"holder_id", snap.HolderID,
			"resource_id", snap.ResourceID,
			"error", rerr)
		msg := rerr.Error()
		summary.UpdateError = &msg
	} else {
		summary.Completed = reconciled.Record.Completed
		summary.TotalBookings = reconciled.Record.TotalBookings
		summary.NewCards = reconciled.NewCards
	}
	result.Loyalty = summary

	return result, nil
}

func (r *reservationCommandsImpl) lookupActiveResource(ctx context.Context, id uuid.UUID) (*resource.Resource, error) {
	snap, err := r.uow.Reads().ResourceByID(ctx, id)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, ErrResourceNotFound
		}
		return nil, errs.Mark(err, ErrDatabaseOperationFailed)
	}
	res, err := resource.NewResource(snap.ID, snap.Name, snap.HourlyRateCents, snap.OwnerID, snap.Active)
	if err != nil {
		return nil, errs.Mark(err, ErrDatabaseOperationFailed)
	}
	// An inactive court is hidden, not rejected.
	if !res.IsActive() {
		return nil, ErrResourceNotFound
	}
	return res, nil
}

// claimIdempotencyKey returns a non-nil view when the key has already
// completed and the stored result should be replayed.
func (r *reservationCommandsImpl) claimIdempotencyKey(
	ctx context.Context,
	key uuid.UUID,
	params CreateReservationParams,
) (*queries.ReservationView, error) {
	requestHash := hashParams(params)
	expiresAt := r.clock.Now().Add(idempotencyKeyTTL)

	var inserted bool
	err := r.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		var err error
		inserted, err = tx.Idempotency().TryInsert(ctx, key, params.HolderID, "POST /reservations", requestHash, expiresAt)
		return err
	})
	if err != nil {
		return nil, errs.Mark(err, ErrDatabaseOperationFailed)
	}
	if inserted {
		return nil, nil
	}

	existing, err := r.uow.Reads().IdempotencyByKey(ctx, key, params.HolderID)
	if err != nil {
		return nil, errs.Mark(err, ErrDatabaseOperationFailed)
	}
	if existing.RequestHash != requestHash {
		return nil, ErrDuplicateRequest
	}
	if existing.Status == "completed" && existing.ResultReservationID != nil {
		return r.reservationQueries.GetByIDSystem(ctx, *existing.ResultReservationID)
	}
	return nil, ErrIdempotencyInProgress
}

func (r *reservationCommandsImpl) redeemCardForEntity(
	ctx context.Context,
	tx shared.Tx,
	holderID, cardID uuid.UUID,
	entity *reservation.Reservation,
	now time.Time,
) (*DiscountBreakdown, error) {
	cr, err := tx.Loyalty().FindCardForHolder(ctx, holderID, cardID)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, ErrCardNotFound
		}
		return nil, errs.Mark(err, ErrDatabaseOperationFailed)
	}
	if cr.ResourceID != entity.ResourceID() {
		return nil, ErrCardWrongResource
	}
	if err := cr.Card.ValidateRedeemable(now); err != nil {
		return nil, markCardError(err)
	}

	won, err := tx.Loyalty().RedeemCard(ctx, cardID, entity.ID(), now)
	if err != nil {
		return nil, errs.Mark(err, ErrDatabaseOperationFailed)
	}
	if !won {
		return nil, ErrCardAlreadyRedeemed
	}

	b := entity.ApplyCard(cardID, cr.Card.Percent())
	return &DiscountBreakdown{
		OriginalCents: b.OriginalCents,
		DiscountCents: b.DiscountCents,
		FinalCents:    b.FinalCents,
		Percent:       b.Percent,
	}, nil
}

func (r *reservationCommandsImpl) conflictWithWindow(ctx context.Context, resourceID uuid.UUID, slot reservation.TimeSlot) error {
	avail, err := r.reservationQueries.CheckAvailability(ctx, resourceID, slot.Day().String(), slot.Start().String(), slot.End().String())
	if err == nil && avail.Conflict != nil {
		return errs.Mark(&ConflictError{
			Day:       avail.Conflict.Day,
			StartTime: avail.Conflict.StartTime,
			EndTime:   avail.Conflict.EndTime,
		}, ErrReservationConflict)
	}
	return ErrReservationConflict
}

func (r *reservationCommandsImpl) enqueueJob(ctx context.Context, tx shared.Tx, topic string, payload map[string]any, runAt time.Time) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return errs.Mark(err, ErrDatabaseOperationFailed)
	}
	if err := tx.Notifications().CreateJob(ctx, "email", topic, body, runAt); err != nil {
		return errs.Mark(err, ErrDatabaseOperationFailed)
	}
	return nil
}

func parseSlot(day, start, end string) (reservation.TimeSlot, error) {
	d, err := reservation.NewDay(day)
	if err != nil {
		return reservation.TimeSlot{}, err
	}
	s, err := reservation.NewClockTime(start)
	if err != nil {
		return reservation.TimeSlot{}, err
	}
	e, err := reservation.NewClockTime(end)
	if err != nil {
		return reservation.TimeSlot{}, err
	}
	return reservation.NewTimeSlot(d, s, e)
}

func hashParams(params CreateReservationParams) string {
	data, _ := json.Marshal(params)
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
