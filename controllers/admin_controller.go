package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mobirepair/mobirepair-api/services"
	"github.com/mobirepair/mobirepair-api/utils"
)

var errProductNotFound = utils.NewNotFoundError("PRODUCT_NOT_FOUND", "Product not found")

// GetDashboard handles GET /api/v1/admin/dashboard
func GetDashboard(c *gin.Context) {
	stats, err := services.GetBookingService().Dashboard(c.Request.Context())
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.RespondSuccess(c, http.StatusOK, "", stats)
}

// AdminListBookings handles GET /api/v1/admin/bookings?status=&page=&limit=
func AdminListBookings(c *gin.Context) {
	filter := services.BookingFilter{Status: c.Query("status"), PageQuery: pageQuery(c)}

	bookings, pagination, err := services.GetBookingService().AdminListBookings(c.Request.Context(), filter)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.RespondPage(c, bookings, pagination)
}

// AdminUpdateBooking handles PUT /api/v1/admin/bookings/:id.
// The response reports the notification outcome next to the updated booking; a
// failed SMS never turns the update into an error.
func AdminUpdateBooking(c *gin.Context) {
	var patch services.AdminBookingPatch
	if !bindJSON(c, &patch) {
		return
	}

	booking, outcome, err := services.GetBookingService().AdminUpdateBooking(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":          true,
		"message":          "Booking updated successfully",
		"data":             booking,
		"sms_notification": outcome.Summary(),
		"notification":     outcome,
	})
}

// AdminDeleteBooking handles DELETE /api/v1/admin/bookings/:id
func AdminDeleteBooking(c *gin.Context) {
	if err := services.GetBookingService().AdminDeleteBooking(c.Request.Context(), c.Param("id")); err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.RespondSuccess(c, http.StatusOK, "Booking deleted successfully", nil)
}

// AdminListOrders handles GET /api/v1/admin/orders?status=&page=&limit=
func AdminListOrders(c *gin.Context) {
	filter := services.OrderFilter{Status: c.Query("status"), PageQuery: pageQuery(c)}

	orders, pagination, err := services.GetOrderService().AdminListOrders(c.Request.Context(), filter)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.RespondPage(c, orders, pagination)
}

// AdminUpdateOrder handles PUT /api/v1/admin/orders/:id
func AdminUpdateOrder(c *gin.Context) {
	id, ok := uintParam(c, "id", errOrderNotFound)
	if !ok {
		return
	}

	var patch services.AdminOrderPatch
	if !bindJSON(c, &patch) {
		return
	}

	order, err := services.GetOrderService().AdminUpdateOrder(c.Request.Context(), id, patch)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.RespondSuccess(c, http.StatusOK, "Order updated successfully", order)
}

// AdminCreateProduct handles POST /api/v1/admin/products
func AdminCreateProduct(c *gin.Context) {
	var req services.ProductInput
	if !bindJSON(c, &req) {
		return
	}

	product, err := services.GetCatalogService().CreateProduct(c.Request.Context(), req)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.RespondSuccess(c, http.StatusCreated, "Product created successfully", product)
}

// AdminUpdateProduct handles PUT /api/v1/admin/products/:id
func AdminUpdateProduct(c *gin.Context) {
	id, ok := uintParam(c, "id", errProductNotFound)
	if !ok {
		return
	}

	var patch services.ProductPatch
	if !bindJSON(c, &patch) {
		return
	}

	product, err := services.GetCatalogService().UpdateProduct(c.Request.Context(), id, patch)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.RespondSuccess(c, http.StatusOK, "Product updated successfully", product)
}
