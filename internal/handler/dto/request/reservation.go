package request

import (
	"strings"

	"github.com/google/uuid"
)

type CreateReservationRequest struct {
	ResourceID uuid.UUID  `json:"resource_id" binding:"required"`
	Day        string     `json:"day" binding:"required"`
	StartTime  string     `json:"start_time" binding:"required"`
	EndTime    string     `json:"end_time" binding:"required"`
	CardID     *uuid.UUID `json:"card_id,omitempty"`
	Note       *string    `json:"note,omitempty"`
}

func (r CreateReservationRequest) GetNote() string {
	if r.Note == nil {
		return ""
	}
	return strings.TrimSpace(*r.Note)
}
