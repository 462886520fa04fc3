//go:build unit

package commands_test

import (
	"context"
	"time"

	"courtbook/internal/domain/loyalty"
	"courtbook/internal/domain/reservation"
	"courtbook/internal/domain/user"
	"courtbook/internal/infra"
	"courtbook/internal/usecase/commands"
	"courtbook/internal/usecase/queries"
	"courtbook/internal/usecase/shared"

	"github.com/google/uuid"
)

// Hand-rolled fakes: the transactional ports are narrow enough that function
// fields beat generated mocks here.

type fakeUoW struct {
	tx    *fakeTx
	reads *fakeReads
}

func newFakeUoW() *fakeUoW {
	reads := newFakeReads()
	return &fakeUoW{
		tx: &fakeTx{
			reservations:  &fakeReservationRepo{},
			loyalty:       &fakeLoyaltyRepo{},
			idempotency:   &fakeIdempotencyRepo{},
			notifications: &fakeNotificationRepo{},
			reads:         reads,
		},
		reads: reads,
	}
}

func (u *fakeUoW) Within(ctx context.Context, fn func(ctx context.Context, tx shared.Tx) error) error {
	return fn(ctx, u.tx)
}

func (u *fakeUoW) Reads() shared.CommandReads { return u.reads }

type fakeTx struct {
	reservations  *fakeReservationRepo
	loyalty       *fakeLoyaltyRepo
	idempotency   *fakeIdempotencyRepo
	notifications *fakeNotificationRepo
	reads         *fakeReads
}

func (t *fakeTx) Reservations() shared.ReservationRepository   { return t.reservations }
func (t *fakeTx) Loyalty() shared.LoyaltyRepository            { return t.loyalty }
func (t *fakeTx) Idempotency() shared.IdempotencyRepository    { return t.idempotency }
func (t *fakeTx) Notifications() shared.NotificationRepository { return t.notifications }
func (t *fakeTx) Reads() shared.CommandReads                   { return t.reads }

type fakeReads struct {
	resources    map[uuid.UUID]*shared.ResourceSnapshot
	reservations map[uuid.UUID]*shared.ReservationSnapshot
	idempotency  map[uuid.UUID]*shared.IdempotencyRecord
}

func newFakeReads() *fakeReads {
	return &fakeReads{
		resources:    map[uuid.UUID]*shared.ResourceSnapshot{},
		reservations: map[uuid.UUID]*shared.ReservationSnapshot{},
		idempotency:  map[uuid.UUID]*shared.IdempotencyRecord{},
	}
}

func (r *fakeReads) ResourceByID(_ context.Context, id uuid.UUID) (*shared.ResourceSnapshot, error) {
	if snap, ok := r.resources[id]; ok {
		return snap, nil
	}
	return nil, infra.WrapRepoErr("resource not found", nil, infra.KindNotFound)
}

func (r *fakeReads) ReservationByID(_ context.Context, id uuid.UUID) (*shared.ReservationSnapshot, error) {
	if snap, ok := r.reservations[id]; ok {
		return snap, nil
	}
	return nil, infra.WrapRepoErr("reservation not found", nil, infra.KindNotFound)
}

func (r *fakeReads) IdempotencyByKey(_ context.Context, key, _ uuid.UUID) (*shared.IdempotencyRecord, error) {
	if rec, ok := r.idempotency[key]; ok {
		return rec, nil
	}
	return nil, infra.WrapRepoErr("idempotency key not found", nil, infra.KindNotFound)
}

type fakeReservationRepo struct {
	created         []*reservation.Reservation
	createErr       error
	transitioned    []uuid.UUID
	transitionOK    bool
	transitionErr   error
	discounted      []uuid.UUID
	completedByPair map[uuid.UUID]int64 // keyed by holder
}

func (f *fakeReservationRepo) Create(_ context.Context, res *reservation.Reservation) (uuid.UUID, error) {
	if f.createErr != nil {
		return uuid.Nil, f.createErr
	}
	f.created = append(f.created, res)
	return res.ID(), nil
}

func (f *fakeReservationRepo) TransitionFromBooked(_ context.Context, id uuid.UUID, _ reservation.Status, _ time.Time) (bool, error) {
	if f.transitionErr != nil {
		return false, f.transitionErr
	}
	if !f.transitionOK {
		return false, nil
	}
	f.transitioned = append(f.transitioned, id)
	return true, nil
}

func (f *fakeReservationRepo) ApplyCardDiscount(_ context.Context, id uuid.UUID, _ int64, _ uuid.UUID) error {
	f.discounted = append(f.discounted, id)
	return nil
}

func (f *fakeReservationRepo) CountCompleted(_ context.Context, holderID, _ uuid.UUID) (int64, error) {
	return f.completedByPair[holderID], nil
}

type fakeLoyaltyRepo struct {
	record     *loyalty.Record
	saved      bool
	inserted   []*loyalty.Card
	insertOK   bool
	cardRecord *shared.CardRecord
	scratchOK  bool
	scratched  []uuid.UUID
	redeemOK   bool
	redeemed   []uuid.UUID
}

func (f *fakeLoyaltyRepo) LockRecord(_ context.Context, holderID, resourceID uuid.UUID, now time.Time) (*loyalty.Record, error) {
	if f.record == nil {
		f.record = loyalty.NewRecord(holderID, resourceID, now)
	}
	return f.record, nil
}

func (f *fakeLoyaltyRepo) SaveCounts(_ context.Context, _ *loyalty.Record) error {
	f.saved = true
	return nil
}

func (f *fakeLoyaltyRepo) InsertCard(_ context.Context, _ uuid.UUID, card *loyalty.Card) (bool, error) {
	if !f.insertOK {
		return false, nil
	}
	f.inserted = append(f.inserted, card)
	return true, nil
}

func (f *fakeLoyaltyRepo) FindCardForHolder(_ context.Context, _, cardID uuid.UUID) (*shared.CardRecord, error) {
	if f.cardRecord == nil || f.cardRecord.Card.ID() != cardID {
		return nil, infra.WrapRepoErr("card not found", nil, infra.KindNotFound)
	}
	return f.cardRecord, nil
}

func (f *fakeLoyaltyRepo) ScratchCard(_ context.Context, cardID uuid.UUID, _ time.Time) (bool, error) {
	if !f.scratchOK {
		return false, nil
	}
	f.scratched = append(f.scratched, cardID)
	return true, nil
}

func (f *fakeLoyaltyRepo) RedeemCard(_ context.Context, cardID, _ uuid.UUID, _ time.Time) (bool, error) {
	if !f.redeemOK {
		return false, nil
	}
	f.redeemed = append(f.redeemed, cardID)
	return true, nil
}

type fakeIdempotencyRepo struct {
	insertOK  bool
	claims    []uuid.UUID
	completed []uuid.UUID
}

func (f *fakeIdempotencyRepo) TryInsert(_ context.Context, key, _ uuid.UUID, _, _ string, _ time.Time) (bool, error) {
	if !f.insertOK {
		return false, nil
	}
	f.claims = append(f.claims, key)
	return true, nil
}

func (f *fakeIdempotencyRepo) MarkCompleted(_ context.Context, key, _, _ uuid.UUID) error {
	f.completed = append(f.completed, key)
	return nil
}

type fakeNotificationRepo struct {
	jobs []string
}

func (f *fakeNotificationRepo) CreateJob(_ context.Context, _, topic string, _ []byte, _ time.Time) error {
	f.jobs = append(f.jobs, topic)
	return nil
}

// fakeReservationQueries serves read-after-write lookups from a view map.
type fakeReservationQueries struct {
	views    map[uuid.UUID]*queries.ReservationView
	conflict *queries.ConflictWindow
}

func newFakeReservationQueries() *fakeReservationQueries {
	return &fakeReservationQueries{views: map[uuid.UUID]*queries.ReservationView{}}
}

func (f *fakeReservationQueries) GetByID(_ context.Context, _ uuid.UUID, _ user.Role, id uuid.UUID) (*queries.ReservationView, error) {
	if v, ok := f.views[id]; ok {
		return v, nil
	}
	return nil, queries.ErrReservationNotFound
}

func (f *fakeReservationQueries) GetByIDSystem(_ context.Context, id uuid.UUID) (*queries.ReservationView, error) {
	if v, ok := f.views[id]; ok {
		return v, nil
	}
	// Read-after-write in tests: synthesize a view for any created id.
	return &queries.ReservationView{ID: id, Status: "booked"}, nil
}

func (f *fakeReservationQueries) ListByHolder(_ context.Context, _ uuid.UUID, _ *string, _ int) ([]*queries.ReservationView, error) {
	return nil, nil
}

func (f *fakeReservationQueries) CheckAvailability(_ context.Context, _ uuid.UUID, _, _, _ string) (*queries.AvailabilityResult, error) {
	if f.conflict != nil {
		return &queries.AvailabilityResult{Available: false, Conflict: f.conflict}, nil
	}
	return &queries.AvailabilityResult{Available: true}, nil
}

type fakeLoyaltyCommands struct {
	result *commands.ReconcileResult
	err    error
	calls  int
}

func (f *fakeLoyaltyCommands) Reconcile(_ context.Context, _, _ uuid.UUID) (*commands.ReconcileResult, error) {
	f.calls++
	return f.result, f.err
}

func (f *fakeLoyaltyCommands) Scratch(_ context.Context, _, _ uuid.UUID) (int, error) {
	return 0, nil
}

func (f *fakeLoyaltyCommands) Redeem(_ context.Context, _, _, _ uuid.UUID) (*commands.DiscountBreakdown, error) {
	return nil, nil
}
