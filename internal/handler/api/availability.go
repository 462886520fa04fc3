package api

import (
	"net/http"

	"courtbook/internal/domain/reservation"
	resdto "courtbook/internal/handler/dto/response"
	"courtbook/internal/usecase/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type AvailabilityHandler struct {
	queries queries.ReservationQueries
}

func NewAvailabilityHandler(qrys queries.ReservationQueries) *AvailabilityHandler {
	return &AvailabilityHandler{
		queries: qrys,
	}
}

// @Summary Check availability
// @Description Check whether a window on a court is free of booked reservations
// @Tags resources
// @Produce json
// @Security BearerAuth
// @Param id path string true "Resource ID"
// @Param day query string true "Day (YYYY-MM-DD)"
// @Param start query string true "Start time (HH:MM)"
// @Param end query string true "End time (HH:MM)"
// @Success 200 {object} resdto.AvailabilityResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Router /resources/{id}/availability [get]
func (h *AvailabilityHandler) CheckAvailability(c *gin.Context) {
	resourceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid resource ID format",
		})
		return
	}

	day := c.Query("day")
	start := c.Query("start")
	end := c.Query("end")
	if !validWindow(day, start, end) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "day, start and end must form a valid window",
		})
		return
	}

	result, err := h.queries.CheckAvailability(c.Request.Context(), resourceID, day, start, end)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
		return
	}

	c.JSON(http.StatusOK, resdto.FromAvailability(result))
}

func validWindow(day, start, end string) bool {
	d, err := reservation.NewDay(day)
	if err != nil {
		return false
	}
	s, err := reservation.NewClockTime(start)
	if err != nil {
		return false
	}
	e, err := reservation.NewClockTime(end)
	if err != nil {
		return false
	}
	_, err = reservation.NewTimeSlot(d, s, e)
	return err == nil
}
