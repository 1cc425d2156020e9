package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var exposeErrorDetails bool

// SetExposeErrorDetails controls whether unexpected error causes are returned to clients
func SetExposeErrorDetails(expose bool) {
	exposeErrorDetails = expose
}

// RespondSuccess writes the standard success envelope. Empty messages and nil data are omitted.
func RespondSuccess(c *gin.Context, status int, message string, data interface{}) {
	body := gin.H{"success": true}
	if message != "" {
		body["message"] = message
	}
	if data != nil {
		body["data"] = data
	}
	c.JSON(status, body)
}

// RespondError writes the standard error envelope for err
func RespondError(c *gin.Context, err error) {
	appErr := AsAppError(err)
	status := appErr.HTTPStatus()

	body := gin.H{
		"success": false,
		"message": appErr.Message,
		"error": gin.H{
			"code":    appErr.Code,
			"message": appErr.Message,
		},
	}
	if len(appErr.Fields) > 0 {
		body["errors"] = appErr.Fields
	}

	if status >= http.StatusInternalServerError {
		GetLogger().Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.String("code", appErr.Code),
			zap.Error(err))
		if exposeErrorDetails && appErr.Err != nil {
			body["details"] = appErr.Err.Error()
		}
	}

	c.JSON(status, body)
}

// AbortWithError writes the error envelope and stops the handler chain
func AbortWithError(c *gin.Context, err error) {
	RespondError(c, err)
	c.Abort()
}

// RespondPage writes a success envelope for one page of a listing
func RespondPage(c *gin.Context, data interface{}, pagination interface{}) {
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"data":       data,
		"pagination": pagination,
	})
}
