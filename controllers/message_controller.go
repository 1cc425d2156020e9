package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mobirepair/mobirepair-api/services"
	"github.com/mobirepair/mobirepair-api/utils"
)

// SendSMSRequest represents the request body for an ad-hoc customer message
type SendSMSRequest struct {
	Phone        string `json:"phone" binding:"required"`
	CustomerName string `json:"customer_name" binding:"required"`
	Message      string `json:"message" binding:"required"`
}

// SendSMS handles POST /api/v1/admin/send-sms - sends a free text message to a customer.
// Gateway failures are reported with 400 and never as a server error.
func SendSMS(c *gin.Context) {
	var req SendSMSRequest
	if !bindJSON(c, &req) {
		return
	}

	dispatcher := services.GetNotificationDispatcher()
	if dispatcher == nil {
		utils.RespondError(c, &utils.AppError{
			Kind:    utils.KindUnexpected,
			Code:    "SMS_UNAVAILABLE",
			Message: "SMS notifications are not configured",
		})
		return
	}

	result := dispatcher.SendCustomMessage(c.Request.Context(), req.Phone, req.CustomerName, req.Message)
	if !result.Success {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "Failed to send SMS",
			"error": gin.H{
				"code":    "SMS_FAILED",
				"message": result.Error,
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "SMS sent successfully",
		"details": result,
	})
}
