package response

import (
	"time"

	"courtbook/internal/usecase/commands"
	"courtbook/internal/usecase/queries"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
)

type ReservationResponse struct {
	ID           uuid.UUID  `json:"id"`
	ResourceID   uuid.UUID  `json:"resourceId"`
	ResourceName string     `json:"resourceName"`
	HolderID     uuid.UUID  `json:"holderId"`
	Day          string     `json:"day"`
	StartTime    string     `json:"startTime"`
	EndTime      string     `json:"endTime"`
	Status       string     `json:"status"`
	PriceCents   int64      `json:"priceCents"`
	CardID       *uuid.UUID `json:"cardId,omitempty"`
	Note         *string    `json:"note,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

type CreateReservationResponse struct {
	ReservationResponse
	Discount *DiscountResponse `json:"discount,omitempty"`
	Replayed bool              `json:"replayed,omitempty"`
}

type DiscountResponse struct {
	OriginalCents int64 `json:"originalCents"`
	DiscountCents int64 `json:"discountCents"`
	FinalCents    int64 `json:"finalCents"`
	Percent       int   `json:"percent"`
}

type CompleteReservationResponse struct {
	ReservationResponse
	AlreadyCompleted bool            `json:"alreadyCompleted,omitempty"`
	Loyalty          *LoyaltySummary `json:"loyalty,omitempty"`
}

type LoyaltySummary struct {
	Completed     int64          `json:"completed"`
	TotalBookings int64          `json:"totalBookings"`
	NewCards      []CardResponse `json:"newCards"`
	UpdateError   *string        `json:"updateError,omitempty"`
}

type AvailabilityResponse struct {
	Available bool                    `json:"available"`
	Conflict  *ConflictWindowResponse `json:"conflict,omitempty"`
}

type ConflictWindowResponse struct {
	ReservationID uuid.UUID `json:"reservationId"`
	Day           string    `json:"day"`
	StartTime     string    `json:"startTime"`
	EndTime       string    `json:"endTime"`
}

func FromReservationView(rm *queries.ReservationView) *ReservationResponse {
	var resp ReservationResponse
	_ = copier.Copy(&resp, rm)
	return &resp
}

func FromCreateResult(result *commands.CreateReservationResult) *CreateReservationResponse {
	resp := &CreateReservationResponse{
		ReservationResponse: *FromReservationView(result.Reservation),
		Replayed:            result.IsReplayed,
	}
	if result.Discount != nil {
		var d DiscountResponse
		_ = copier.Copy(&d, result.Discount)
		resp.Discount = &d
	}
	return resp
}

func FromCompleteResult(result *commands.CompleteReservationResult) *CompleteReservationResponse {
	resp := &CompleteReservationResponse{
		ReservationResponse: *FromReservationView(result.Reservation),
		AlreadyCompleted:    result.NoOp,
	}
	if result.Loyalty != nil {
		resp.Loyalty = &LoyaltySummary{
			Completed:     result.Loyalty.Completed,
			TotalBookings: result.Loyalty.TotalBookings,
			NewCards:      FromCardViews(result.Loyalty.NewCards),
			UpdateError:   result.Loyalty.UpdateError,
		}
	}
	return resp
}

func FromAvailability(result *queries.AvailabilityResult) *AvailabilityResponse {
	resp := &AvailabilityResponse{Available: result.Available}
	if result.Conflict != nil {
		var w ConflictWindowResponse
		_ = copier.Copy(&w, result.Conflict)
		resp.Conflict = &w
	}
	return resp
}
