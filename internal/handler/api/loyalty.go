package api

import (
	"errors"
	"net/http"

	reqdto "courtbook/internal/handler/dto/request"
	resdto "courtbook/internal/handler/dto/response"
	"courtbook/internal/handler/middleware"
	"courtbook/internal/usecase/commands"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type LoyaltyHandler struct {
	commands commands.LoyaltyCommands
}

func NewLoyaltyHandler(cmds commands.LoyaltyCommands) *LoyaltyHandler {
	return &LoyaltyHandler{
		commands: cmds,
	}
}

// @Summary Get loyalty status
// @Description Reconcile and return the caller's loyalty ledger for a resource
// @Tags loyalty
// @Produce json
// @Security BearerAuth
// @Param id path string true "Resource ID"
// @Success 200 {object} resdto.LoyaltyResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Router /resources/{id}/loyalty [get]
func (h *LoyaltyHandler) GetLoyaltyStatus(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
		return
	}

	resourceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid resource ID format",
		})
		return
	}

	// The read path runs the same reconciliation as completion, so a ledger
	// that missed an update heals on the next status fetch.
	result, err := h.commands.Reconcile(c.Request.Context(), userID, resourceID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
		return
	}

	c.JSON(http.StatusOK, resdto.FromReconcileResult(result))
}

// @Summary Scratch entitlement card
// @Description Reveal the discount on an issued card
// @Tags loyalty
// @Produce json
// @Security BearerAuth
// @Param id path string true "Card ID"
// @Success 200 {object} resdto.ScratchCardResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /loyalty/cards/{id}/scratch [post]
func (h *LoyaltyHandler) ScratchCard(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
		return
	}

	cardID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid card ID format",
		})
		return
	}

	percent, err := h.commands.Scratch(c.Request.Context(), userID, cardID)
	if err != nil {
		switch {
		case errors.Is(err, commands.ErrCardNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Entitlement card not found",
			})
		case errors.Is(err, commands.ErrCardAlreadyScratched):
			c.JSON(http.StatusConflict, gin.H{
				"error": "Entitlement card already scratched",
			})
		case errors.Is(err, commands.ErrCardAlreadyRedeemed):
			c.JSON(http.StatusConflict, gin.H{
				"error": "Entitlement card already redeemed",
			})
		case errors.Is(err, commands.ErrCardExpired):
			c.JSON(http.StatusConflict, gin.H{
				"error": "Entitlement card expired",
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Internal server error",
			})
		}
		return
	}

	c.JSON(http.StatusOK, resdto.ScratchCardResponse{
		CardID:  cardID,
		Percent: percent,
	})
}

// @Summary Redeem entitlement card
// @Description Apply a scratched card's discount to a booked reservation
// @Tags loyalty
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Card ID"
// @Param request body reqdto.RedeemCardRequest true "Redeem request"
// @Success 200 {object} resdto.RedeemCardResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /loyalty/cards/{id}/redeem [post]
func (h *LoyaltyHandler) RedeemCard(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
		return
	}

	cardID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid card ID format",
		})
		return
	}

	var req reqdto.RedeemCardRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return
	}

	breakdown, err := h.commands.Redeem(c.Request.Context(), userID, cardID, req.ReservationID)
	if err != nil {
		switch {
		case errors.Is(err, commands.ErrReservationNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Reservation not found",
			})
		case errors.Is(err, commands.ErrCardNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Entitlement card not found",
			})
		case errors.Is(err, commands.ErrReservationNotOpen):
			c.JSON(http.StatusConflict, gin.H{
				"error": "Reservation is not open for a discount",
			})
		case errors.Is(err, commands.ErrCardNotScratched):
			c.JSON(http.StatusConflict, gin.H{
				"error": "Entitlement card has not been scratched",
			})
		case errors.Is(err, commands.ErrCardAlreadyRedeemed):
			c.JSON(http.StatusConflict, gin.H{
				"error": "Entitlement card already redeemed",
			})
		case errors.Is(err, commands.ErrCardExpired):
			c.JSON(http.StatusConflict, gin.H{
				"error": "Entitlement card expired",
			})
		case errors.Is(err, commands.ErrCardWrongResource):
			c.JSON(http.StatusConflict, gin.H{
				"error": "Entitlement card belongs to a different resource",
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Internal server error",
			})
		}
		return
	}

	c.JSON(http.StatusOK, resdto.RedeemCardResponse{
		CardID:      cardID,
		Reservation: req.ReservationID,
		Discount: resdto.DiscountResponse{
			OriginalCents: breakdown.OriginalCents,
			DiscountCents: breakdown.DiscountCents,
			FinalCents:    breakdown.FinalCents,
			Percent:       breakdown.Percent,
		},
	})
}
