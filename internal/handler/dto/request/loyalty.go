package request

import (
	"github.com/google/uuid"
)

type RedeemCardRequest struct {
	ReservationID uuid.UUID `json:"reservation_id" binding:"required"`
}
