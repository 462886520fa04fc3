//go:build unit

package loyalty_test

import (
	"testing"
	"time"

	"courtbook/internal/domain/loyalty"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRecord(t *testing.T) *loyalty.Record {
	t.Helper()
	rec := loyalty.NewRecord(uuid.New(), uuid.New(), issuedAt)
	require.NotEqual(t, uuid.Nil, rec.ID())
	return rec
}

func TestSetAuthoritativeCount(t *testing.T) {
	t.Run("counts follow ground truth", func(t *testing.T) {
		rec := newRecord(t)
		now := issuedAt.Add(time.Hour)

		rec.SetAuthoritativeCount(7, now)
		assert.Equal(t, int64(7), rec.CompletedCount())
		assert.Equal(t, int64(7), rec.TotalBookings())
		assert.Equal(t, now, rec.LastActivityAt())
	})

	t.Run("total bookings never decreases", func(t *testing.T) {
		rec := newRecord(t)
		rec.SetAuthoritativeCount(7, issuedAt)

		// Completed count may drop when reservations are voided after the
		// fact; the lifetime total keeps its high-water mark.
		rec.SetAuthoritativeCount(4, issuedAt.Add(time.Hour))
		assert.Equal(t, int64(4), rec.CompletedCount())
		assert.Equal(t, int64(7), rec.TotalBookings())
	})
}

func TestMissingMilestones(t *testing.T) {
	cases := []struct {
		name      string
		completed int64
		existing  int
		want      []int
	}{
		{"below first milestone", 4, 0, nil},
		{"exactly first milestone", 5, 0, []int{1}},
		{"no backlog", 5, 1, nil},
		{"two milestones owed", 10, 0, []int{1, 2}},
		{"partial backlog", 15, 1, []int{2, 3}},
		{"ahead of count", 4, 1, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := newRecord(t)
			for i := 0; i < tc.existing; i++ {
				rec.AttachCard(loyalty.NewCard(i+1, 35, issuedAt))
			}
			rec.SetAuthoritativeCount(tc.completed, issuedAt)

			if diff := cmp.Diff(tc.want, rec.MissingMilestones()); diff != "" {
				t.Errorf("missing milestones mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestProgressToNextMilestone(t *testing.T) {
	cases := []struct {
		completed int64
		want      int
	}{
		{0, 5},
		{1, 4},
		{4, 1},
		{5, 0},
		{6, 4},
		{10, 0},
	}
	for _, tc := range cases {
		rec := newRecord(t)
		rec.SetAuthoritativeCount(tc.completed, issuedAt)
		assert.Equal(t, tc.want, rec.ProgressToNextMilestone(), "completed=%d", tc.completed)
	}
}

func TestFindCard(t *testing.T) {
	rec := newRecord(t)
	card := loyalty.NewCard(1, 45, issuedAt)
	rec.AttachCard(card)

	assert.Equal(t, card, rec.FindCard(card.ID()))
	assert.Nil(t, rec.FindCard(uuid.New()))
}
