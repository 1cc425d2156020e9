package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mobirepair/mobirepair-api/config"
	"github.com/mobirepair/mobirepair-api/utils"
)

// HealthCheck handles GET /api/v1/health
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"message":   "Mobile Repair API is running",
		"timestamp": time.Now().UTC(),
	})
}

// DatabaseStatus handles GET /api/v1/database/status - pings the database and lists its tables
func DatabaseStatus(c *gin.Context) {
	db := config.GetDB()
	if db == nil {
		utils.RespondError(c, &utils.AppError{Kind: utils.KindUnexpected, Code: "DATABASE_ERROR", Message: "Database is not connected"})
		return
	}

	sqlDB, err := db.DB()
	if err != nil {
		utils.RespondError(c, &utils.AppError{Kind: utils.KindUnexpected, Code: "DATABASE_ERROR", Message: "Failed to get database instance", Err: err})
		return
	}

	if err := sqlDB.PingContext(c.Request.Context()); err != nil {
		utils.RespondError(c, &utils.AppError{Kind: utils.KindUnexpected, Code: "DATABASE_CONNECTION_ERROR", Message: "Database connection failed", Err: err})
		return
	}

	tables, err := db.WithContext(c.Request.Context()).Migrator().GetTables()
	if err != nil {
		utils.RespondError(c, &utils.AppError{Kind: utils.KindUnexpected, Code: "DATABASE_QUERY_ERROR", Message: "Failed to query tables", Err: err})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Database connected",
		"tables":  tables,
	})
}
