package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mobirepair/mobirepair-api/middleware"
	"github.com/mobirepair/mobirepair-api/services"
	"github.com/mobirepair/mobirepair-api/utils"
)

// CreateRepairBooking handles POST /api/v1/repairs - books a repair.
// Guests may book; an authenticated caller becomes the owner of the booking.
func CreateRepairBooking(c *gin.Context) {
	var req services.CreateBookingInput
	if !bindJSON(c, &req) {
		return
	}

	booking, err := services.GetBookingService().CreateBooking(c.Request.Context(), req, middleware.GetIdentity(c))
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.RespondSuccess(c, http.StatusCreated, "Repair booking created successfully", booking)
}

// ListMyBookings handles GET /api/v1/repairs/my-bookings
func ListMyBookings(c *gin.Context) {
	bookings, err := services.GetBookingService().ListOwnBookings(c.Request.Context(), middleware.GetIdentity(c))
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.RespondSuccess(c, http.StatusOK, "", bookings)
}

// GetMyBooking handles GET /api/v1/repairs/:id
func GetMyBooking(c *gin.Context) {
	booking, err := services.GetBookingService().GetOwnBooking(c.Request.Context(), c.Param("id"), middleware.GetIdentity(c))
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.RespondSuccess(c, http.StatusOK, "", booking)
}

// CancelMyBooking handles PUT /api/v1/repairs/:id/cancel
func CancelMyBooking(c *gin.Context) {
	booking, err := services.GetBookingService().CancelOwnBooking(c.Request.Context(), c.Param("id"), middleware.GetIdentity(c))
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.RespondSuccess(c, http.StatusOK, "Booking cancelled successfully", booking)
}
