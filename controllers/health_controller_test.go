package controllers

import (
	"net/http"
	"testing"

	"github.com/mobirepair/mobirepair-api/config"
	"github.com/stretchr/testify/assert"
)

func TestHealthCheck(t *testing.T) {
	router := setupTestRouter()
	router.GET("/health", HealthCheck)

	w, response := performRequest(t, router, http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, true, response["success"])
	assert.Equal(t, "Mobile Repair API is running", response["message"])
	assert.Contains(t, response, "timestamp")
}

func TestDatabaseStatus(t *testing.T) {
	setupTestEnv(t)
	router := setupTestRouter()
	router.GET("/database/status", DatabaseStatus)

	w, response := performRequest(t, router, http.MethodGet, "/database/status", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Database connected", response["message"])
	tables := response["tables"].([]interface{})
	for _, table := range []string{"users", "products", "repair_bookings", "orders", "order_items"} {
		assert.Contains(t, tables, table)
	}
}

func TestDatabaseStatus_NotConnected(t *testing.T) {
	previous := config.GetDB()
	config.SetDB(nil)
	t.Cleanup(func() { config.SetDB(previous) })

	router := setupTestRouter()
	router.GET("/database/status", DatabaseStatus)

	w, response := performRequest(t, router, http.MethodGet, "/database/status", nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "DATABASE_ERROR", errorCode(t, response))
}
