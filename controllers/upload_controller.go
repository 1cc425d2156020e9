package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mobirepair/mobirepair-api/middleware"
	"github.com/mobirepair/mobirepair-api/services"
	"github.com/mobirepair/mobirepair-api/utils"
)

// PhotoFormField is the multipart field carrying the device photo
const PhotoFormField = "photo"

// UploadBookingPhoto handles POST /api/v1/repairs/:id/photo - attaches a device photo to an owned booking
func UploadBookingPhoto(c *gin.Context) {
	fileHeader, err := c.FormFile(PhotoFormField)
	if err != nil {
		utils.RespondError(c, &utils.AppError{
			Kind:    utils.KindValidation,
			Code:    "MISSING_FILE",
			Message: "A photo file is required in the \"photo\" field",
		})
		return
	}

	booking, err := services.GetBookingService().AttachPhoto(c.Request.Context(), c.Param("id"), middleware.GetIdentity(c), fileHeader)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.RespondSuccess(c, http.StatusOK, "Photo uploaded successfully", booking)
}
