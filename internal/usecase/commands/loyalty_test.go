//go:build unit

package commands_test

import (
	"context"
	"testing"
	"time"

	"courtbook/internal/domain/loyalty"
	"courtbook/internal/domain/reservation"
	"courtbook/internal/pkg/clock"
	"courtbook/internal/usecase/commands"
	"courtbook/internal/usecase/shared"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
)

type LoyaltyCommandsTestSuite struct {
	suite.Suite
	uow   *fakeUoW
	clock *clock.MockClock
	cmds  commands.LoyaltyCommands

	holderID   uuid.UUID
	resourceID uuid.UUID
}

func (s *LoyaltyCommandsTestSuite) SetupTest() {
	s.uow = newFakeUoW()
	s.clock = clock.NewMockClock(time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC))
	s.cmds = commands.NewLoyaltyCommands(s.uow, s.clock)

	s.holderID = uuid.New()
	s.resourceID = uuid.New()
}

func TestLoyaltyCommandsSuite(t *testing.T) {
	suite.Run(t, new(LoyaltyCommandsTestSuite))
}

func (s *LoyaltyCommandsTestSuite) TestReconcile() {
	s.Run("mints one card per reached milestone", func() {
		s.SetupTest()
		s.uow.tx.reservations.completedByPair = map[uuid.UUID]int64{s.holderID: 10}
		s.uow.tx.loyalty.insertOK = true

		result, err := s.cmds.Reconcile(context.Background(), s.holderID, s.resourceID)
		s.Require().NoError(err)

		s.Len(result.NewCards, 2)
		s.Equal(int64(10), result.Record.Completed)
		s.Equal(int64(10), result.Record.TotalBookings)
		s.Equal(0, result.Record.ToNextCard)
		s.True(s.uow.tx.loyalty.saved)
		s.Equal([]string{"loyalty_cards_issued"}, s.uow.tx.notifications.jobs)

		milestones := []int{s.uow.tx.loyalty.inserted[0].Milestone(), s.uow.tx.loyalty.inserted[1].Milestone()}
		s.Equal([]int{1, 2}, milestones)
		for _, c := range s.uow.tx.loyalty.inserted {
			s.Contains(loyalty.DiscountPercents, c.Percent())
		}
	})

	s.Run("reconciling twice mints nothing new", func() {
		s.SetupTest()
		s.uow.tx.reservations.completedByPair = map[uuid.UUID]int64{s.holderID: 5}
		s.uow.tx.loyalty.insertOK = true

		first, err := s.cmds.Reconcile(context.Background(), s.holderID, s.resourceID)
		s.Require().NoError(err)
		s.Len(first.NewCards, 1)

		second, err := s.cmds.Reconcile(context.Background(), s.holderID, s.resourceID)
		s.Require().NoError(err)
		s.Empty(second.NewCards)
		s.Len(s.uow.tx.loyalty.inserted, 1)
		s.Require().Len(second.Record.Cards, 1)
	})

	s.Run("below the milestone no card is owed", func() {
		s.SetupTest()
		s.uow.tx.reservations.completedByPair = map[uuid.UUID]int64{s.holderID: 4}
		s.uow.tx.loyalty.insertOK = true

		result, err := s.cmds.Reconcile(context.Background(), s.holderID, s.resourceID)
		s.Require().NoError(err)
		s.Empty(result.NewCards)
		s.Equal(1, result.Record.ToNextCard)
		s.Empty(s.uow.tx.notifications.jobs)
	})

	s.Run("losing the insert race is not an error", func() {
		s.SetupTest()
		s.uow.tx.reservations.completedByPair = map[uuid.UUID]int64{s.holderID: 5}
		s.uow.tx.loyalty.insertOK = false

		result, err := s.cmds.Reconcile(context.Background(), s.holderID, s.resourceID)
		s.Require().NoError(err)
		s.Empty(result.NewCards)
		s.Empty(s.uow.tx.notifications.jobs)
	})

	s.Run("issued card hides its percent", func() {
		s.SetupTest()
		s.uow.tx.reservations.completedByPair = map[uuid.UUID]int64{s.holderID: 5}
		s.uow.tx.loyalty.insertOK = true

		result, err := s.cmds.Reconcile(context.Background(), s.holderID, s.resourceID)
		s.Require().NoError(err)
		s.Require().Len(result.NewCards, 1)
		s.Equal("issued", result.NewCards[0].State)
		s.Nil(result.NewCards[0].Percent)
	})
}

func (s *LoyaltyCommandsTestSuite) cardRecord(card *loyalty.Card) *shared.CardRecord {
	return &shared.CardRecord{
		Card:       card,
		RecordID:   uuid.New(),
		HolderID:   s.holderID,
		ResourceID: s.resourceID,
	}
}

func (s *LoyaltyCommandsTestSuite) TestScratch() {
	now := s.clockNow()

	s.Run("reveals the percent", func() {
		s.SetupTest()
		card := loyalty.NewCard(1, 45, now)
		s.uow.tx.loyalty.cardRecord = s.cardRecord(card)
		s.uow.tx.loyalty.scratchOK = true

		percent, err := s.cmds.Scratch(context.Background(), s.holderID, card.ID())
		s.Require().NoError(err)
		s.Equal(45, percent)
		s.Equal([]uuid.UUID{card.ID()}, s.uow.tx.loyalty.scratched)
	})

	s.Run("unknown card", func() {
		s.SetupTest()
		_, err := s.cmds.Scratch(context.Background(), s.holderID, uuid.New())
		s.ErrorIs(err, commands.ErrCardNotFound)
	})

	s.Run("already scratched", func() {
		s.SetupTest()
		card := loyalty.NewCard(1, 45, now)
		s.Require().NoError(card.Scratch(now))
		s.uow.tx.loyalty.cardRecord = s.cardRecord(card)

		_, err := s.cmds.Scratch(context.Background(), s.holderID, card.ID())
		s.ErrorIs(err, commands.ErrCardAlreadyScratched)
	})

	s.Run("losing the CAS reports already scratched", func() {
		s.SetupTest()
		card := loyalty.NewCard(1, 45, now)
		s.uow.tx.loyalty.cardRecord = s.cardRecord(card)
		s.uow.tx.loyalty.scratchOK = false

		_, err := s.cmds.Scratch(context.Background(), s.holderID, card.ID())
		s.ErrorIs(err, commands.ErrCardAlreadyScratched)
	})

	s.Run("expired card", func() {
		s.SetupTest()
		card := loyalty.NewCard(1, 45, now.Add(-loyalty.CardValidity-time.Hour))
		s.uow.tx.loyalty.cardRecord = s.cardRecord(card)

		_, err := s.cmds.Scratch(context.Background(), s.holderID, card.ID())
		s.ErrorIs(err, commands.ErrCardExpired)
	})
}

func (s *LoyaltyCommandsTestSuite) TestRedeem() {
	now := s.clockNow()
	reservationID := uuid.New()

	bookedSnap := func() *shared.ReservationSnapshot {
		return &shared.ReservationSnapshot{
			ID:         reservationID,
			ResourceID: s.resourceID,
			HolderID:   s.holderID,
			Status:     reservation.StatusBooked,
			PriceCents: 10000,
		}
	}
	scratchedCard := func() *loyalty.Card {
		card := loyalty.NewCard(1, 35, now)
		s.Require().NoError(card.Scratch(now))
		return card
	}

	s.Run("applies the discount to a booked reservation", func() {
		s.SetupTest()
		card := scratchedCard()
		s.uow.reads.reservations[reservationID] = bookedSnap()
		s.uow.tx.loyalty.cardRecord = s.cardRecord(card)
		s.uow.tx.loyalty.redeemOK = true

		breakdown, err := s.cmds.Redeem(context.Background(), s.holderID, card.ID(), reservationID)
		s.Require().NoError(err)
		s.Equal(int64(10000), breakdown.OriginalCents)
		s.Equal(int64(3500), breakdown.DiscountCents)
		s.Equal(int64(6500), breakdown.FinalCents)
		s.Equal([]uuid.UUID{reservationID}, s.uow.tx.reservations.discounted)
	})

	s.Run("reservation of another holder is absent", func() {
		s.SetupTest()
		card := scratchedCard()
		snap := bookedSnap()
		snap.HolderID = uuid.New()
		s.uow.reads.reservations[reservationID] = snap
		s.uow.tx.loyalty.cardRecord = s.cardRecord(card)

		_, err := s.cmds.Redeem(context.Background(), s.holderID, card.ID(), reservationID)
		s.ErrorIs(err, commands.ErrReservationNotFound)
	})

	s.Run("non-booked reservation is not open", func() {
		s.SetupTest()
		card := scratchedCard()
		snap := bookedSnap()
		snap.Status = reservation.StatusCompleted
		s.uow.reads.reservations[reservationID] = snap
		s.uow.tx.loyalty.cardRecord = s.cardRecord(card)

		_, err := s.cmds.Redeem(context.Background(), s.holderID, card.ID(), reservationID)
		s.ErrorIs(err, commands.ErrReservationNotOpen)
	})

	s.Run("card from another court is rejected", func() {
		s.SetupTest()
		card := scratchedCard()
		s.uow.reads.reservations[reservationID] = bookedSnap()
		cr := s.cardRecord(card)
		cr.ResourceID = uuid.New()
		s.uow.tx.loyalty.cardRecord = cr

		_, err := s.cmds.Redeem(context.Background(), s.holderID, card.ID(), reservationID)
		s.ErrorIs(err, commands.ErrCardWrongResource)
	})

	s.Run("unscratched card cannot redeem", func() {
		s.SetupTest()
		card := loyalty.NewCard(1, 35, now)
		s.uow.reads.reservations[reservationID] = bookedSnap()
		s.uow.tx.loyalty.cardRecord = s.cardRecord(card)

		_, err := s.cmds.Redeem(context.Background(), s.holderID, card.ID(), reservationID)
		s.ErrorIs(err, commands.ErrCardNotScratched)
	})

	s.Run("losing the CAS reports already redeemed", func() {
		s.SetupTest()
		card := scratchedCard()
		s.uow.reads.reservations[reservationID] = bookedSnap()
		s.uow.tx.loyalty.cardRecord = s.cardRecord(card)
		s.uow.tx.loyalty.redeemOK = false

		_, err := s.cmds.Redeem(context.Background(), s.holderID, card.ID(), reservationID)
		s.ErrorIs(err, commands.ErrCardAlreadyRedeemed)
	})
}

func (s *LoyaltyCommandsTestSuite) clockNow() time.Time {
	return time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
}
