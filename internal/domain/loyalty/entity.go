package loyalty

import (
	"time"

	"github.com/google/uuid"
)

// Milestone is the completed-reservation count that mints one card.
const Milestone = 5

// Record is the per (holder, resource) loyalty ledger entry. It never trusts
// incremental counters: callers feed it the authoritative completed count and
// it repairs its own state to match.
type Record struct {
	id             uuid.UUID
	holderID       uuid.UUID
	resourceID     uuid.UUID
	completedCount int64
	totalBookings  int64
	lastActivityAt time.Time
	active         bool
	cards          []*Card
}

func NewRecord(holderID, resourceID uuid.UUID, now time.Time) *Record {
	return &Record{
		id:             uuid.New(),
		holderID:       holderID,
		resourceID:     resourceID,
		lastActivityAt: now,
		active:         true,
	}
}

func ReconstructRecord(
	id, holderID, resourceID uuid.UUID,
	completedCount, totalBookings int64,
	lastActivityAt time.Time,
	active bool,
	cards []*Card,
) *Record {
	return &Record{
		id:             id,
		holderID:       holderID,
		resourceID:     resourceID,
		completedCount: completedCount,
		totalBookings:  totalBookings,
		lastActivityAt: lastActivityAt,
		active:         active,
		cards:          cards,
	}
}

// SetAuthoritativeCount reconciles the counters against the ground-truth
// completed-reservation count. totalBookings never decreases.
func (r *Record) SetAuthoritativeCount(completed int64, now time.Time) {
	r.completedCount = completed
	if completed > r.totalBookings {
		r.totalBookings = completed
	}
	r.lastActivityAt = now
	r.active = true
}

// ExpectedCards is how many cards this record must have: one per milestone.
func (r *Record) ExpectedCards() int {
	return int(r.completedCount / Milestone)
}

// MissingMilestones lists milestone indices (1-based) with no card yet, in
// issue order. Cards are never deleted, so len(cards) only grows toward the
// expected count.
func (r *Record) MissingMilestones() []int {
	expected := r.ExpectedCards()
	if expected <= len(r.cards) {
		return nil
	}
	missing := make([]int, 0, expected-len(r.cards))
	for m := len(r.cards) + 1; m <= expected; m++ {
		missing = append(missing, m)
	}
	return missing
}

// AttachCard appends a freshly minted card in milestone order.
func (r *Record) AttachCard(c *Card) {
	r.cards = append(r.cards, c)
}

// ProgressToNextMilestone is the number of completions still needed before the
// next card, reported as 0 when the count sits exactly on a nonzero milestone.
func (r *Record) ProgressToNextMilestone() int {
	if r.completedCount > 0 && r.completedCount%Milestone == 0 {
		return 0
	}
	return int(Milestone - r.completedCount%Milestone)
}

// FindCard returns the card with the given id, or nil.
func (r *Record) FindCard(cardID uuid.UUID) *Card {
	for _, c := range r.cards {
		if c.ID() == cardID {
			return c
		}
	}
	return nil
}

func (r *Record) ID() uuid.UUID             { return r.id }
func (r *Record) HolderID() uuid.UUID       { return r.holderID }
func (r *Record) ResourceID() uuid.UUID     { return r.resourceID }
func (r *Record) CompletedCount() int64     { return r.completedCount }
func (r *Record) TotalBookings() int64      { return r.totalBookings }
func (r *Record) LastActivityAt() time.Time { return r.lastActivityAt }
func (r *Record) IsActive() bool            { return r.active }
func (r *Record) Cards() []*Card            { return r.cards }
