package response

import (
	"time"

	"courtbook/internal/usecase/commands"
	"courtbook/internal/usecase/queries"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
)

type CardResponse struct {
	ID          uuid.UUID  `json:"id"`
	Milestone   int        `json:"milestone"`
	Percent     *int       `json:"percent,omitempty"`
	State       string     `json:"state"`
	Expired     bool       `json:"expired"`
	IssuedAt    time.Time  `json:"issuedAt"`
	ExpiresAt   time.Time  `json:"expiresAt"`
	ScratchedAt *time.Time `json:"scratchedAt,omitempty"`
	RedeemedAt  *time.Time `json:"redeemedAt,omitempty"`
}

type LoyaltyResponse struct {
	HolderID      uuid.UUID      `json:"holderId"`
	ResourceID    uuid.UUID      `json:"resourceId"`
	Completed     int64          `json:"completed"`
	TotalBookings int64          `json:"totalBookings"`
	ToNextCard    int            `json:"toNextCard"`
	LastActivity  time.Time      `json:"lastActivity"`
	Cards         []CardResponse `json:"cards"`
	NewCards      []CardResponse `json:"newCards,omitempty"`
}

type ScratchCardResponse struct {
	CardID  uuid.UUID `json:"cardId"`
	Percent int       `json:"percent"`
}

type RedeemCardResponse struct {
	CardID      uuid.UUID        `json:"cardId"`
	Reservation uuid.UUID        `json:"reservationId"`
	Discount    DiscountResponse `json:"discount"`
}

func FromCardViews(views []queries.CardView) []CardResponse {
	cards := make([]CardResponse, len(views))
	for i, v := range views {
		_ = copier.Copy(&cards[i], &v)
	}
	return cards
}

func FromReconcileResult(result *commands.ReconcileResult) *LoyaltyResponse {
	var resp LoyaltyResponse
	_ = copier.Copy(&resp, result.Record)
	resp.Cards = FromCardViews(result.Record.Cards)
	if len(result.NewCards) > 0 {
		resp.NewCards = FromCardViews(result.NewCards)
	}
	return &resp
}
