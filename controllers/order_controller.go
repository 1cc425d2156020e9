package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mobirepair/mobirepair-api/middleware"
	"github.com/mobirepair/mobirepair-api/services"
	"github.com/mobirepair/mobirepair-api/utils"
)

var errOrderNotFound = utils.NewNotFoundError("ORDER_NOT_FOUND", "Order not found")

// CancelOrderRequest represents the optional body of an order cancellation
type CancelOrderRequest struct {
	Reason string `json:"reason"`
}

// CreateOrder handles POST /api/v1/orders - places an order from the caller's cart
func CreateOrder(c *gin.Context) {
	var req services.CreateOrderInput
	if !bindJSON(c, &req) {
		return
	}

	order, err := services.GetOrderService().CreateOrder(c.Request.Context(), req, middleware.GetIdentity(c))
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.RespondSuccess(c, http.StatusCreated, "Order placed successfully", order)
}

// ListMyOrders handles GET /api/v1/orders/my-orders
func ListMyOrders(c *gin.Context) {
	orders, err := services.GetOrderService().ListOwnOrders(c.Request.Context(), middleware.GetIdentity(c))
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.RespondSuccess(c, http.StatusOK, "", orders)
}

// GetMyOrder handles GET /api/v1/orders/:id
func GetMyOrder(c *gin.Context) {
	id, ok := uintParam(c, "id", errOrderNotFound)
	if !ok {
		return
	}

	order, err := services.GetOrderService().GetOwnOrder(c.Request.Context(), id, middleware.GetIdentity(c))
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.RespondSuccess(c, http.StatusOK, "", order)
}

// CancelMyOrder handles PUT /api/v1/orders/:id/cancel - the body is optional
func CancelMyOrder(c *gin.Context) {
	id, ok := uintParam(c, "id", errOrderNotFound)
	if !ok {
		return
	}

	var req CancelOrderRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}

	order, err := services.GetOrderService().CancelOwnOrder(c.Request.Context(), id, middleware.GetIdentity(c), req.Reason)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.RespondSuccess(c, http.StatusOK, "Order cancelled successfully", order)
}
