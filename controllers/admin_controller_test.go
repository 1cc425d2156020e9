package controllers

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/mobirepair/mobirepair-api/internal/testutil"
	"github.com/mobirepair/mobirepair-api/models"
	"github.com/mobirepair/mobirepair-api/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminUpdateBooking(t *testing.T) {
	tests := []struct {
		name            string
		patch           map[string]interface{}
		gatewayErr      error
		startStatus     string
		expectedStatus  int
		expectedError   string
		expectedSummary string
		expectedSent    int
		checkBooking    func(t *testing.T, data map[string]interface{})
	}{
		{
			name:            "Completing a booking texts the customer",
			patch:           map[string]interface{}{"status": "completed"},
			expectedStatus:  http.StatusOK,
			expectedSummary: "SMS notification sent",
			expectedSent:    1,
			checkBooking: func(t *testing.T, data map[string]interface{}) {
				assert.Equal(t, "completed", data["status"])
			},
		},
		{
			name:            "Gateway failure still reports a successful update",
			patch:           map[string]interface{}{"status": "completed"},
			gatewayErr:      errors.New("gateway unreachable"),
			expectedStatus:  http.StatusOK,
			expectedSummary: "SMS failed to send",
			checkBooking: func(t *testing.T, data map[string]interface{}) {
				assert.Equal(t, "completed", data["status"])
			},
		},
		{
			name:            "Estimate recomputes the total",
			patch:           map[string]interface{}{"estimated_cost": 500, "admin_notes": "Needs new panel"},
			expectedStatus:  http.StatusOK,
			expectedSummary: "No SMS sent",
			checkBooking: func(t *testing.T, data map[string]interface{}) {
				assert.Equal(t, float64(500), data["estimated_cost"])
				assert.Equal(t, float64(599), data["total_cost"])
				assert.Equal(t, "Needs new panel", data["admin_notes"])
				assert.Equal(t, "pending", data["status"])
			},
		},
		{
			name:            "Same status sends nothing",
			patch:           map[string]interface{}{"status": "pending"},
			expectedStatus:  http.StatusOK,
			expectedSummary: "No SMS sent",
		},
		{
			name:           "Terminal booking rejects a status change",
			startStatus:    models.BookingStatusCancelled,
			patch:          map[string]interface{}{"status": "accepted"},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "BOOKING_TERMINAL",
		},
		{
			name:           "Unknown status",
			patch:          map[string]interface{}{"status": "shipped"},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "VALIDATION_ERROR",
		},
		{
			name:           "Negative estimate",
			patch:          map[string]interface{}{"estimated_cost": -1},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "VALIDATION_ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupTestEnv(t)
			admin := testutil.CreateUser(t, env.db, "admin@example.com", models.RoleAdmin)
			booking := createBooking(t, nil)
			if tt.startStatus != "" {
				require.NoError(t, env.db.Model(booking).Update("status", tt.startStatus).Error)
			}
			if tt.gatewayErr != nil {
				env.gateway.FailWith(tt.gatewayErr)
			}

			router := setupTestRouter()
			router.PUT("/admin/bookings/:id", mockAuthMiddleware(admin), AdminUpdateBooking)

			w, response := performRequest(t, router, http.MethodPut, "/admin/bookings/"+booking.ID, tt.patch)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedError != "" {
				assert.Equal(t, tt.expectedError, errorCode(t, response))
				return
			}
			assert.True(t, response["success"].(bool))
			assert.Equal(t, "Booking updated successfully", response["message"])
			assert.Equal(t, tt.expectedSummary, response["sms_notification"])
			assert.Len(t, env.gateway.Sent(), tt.expectedSent)
			if tt.checkBooking != nil {
				tt.checkBooking(t, response["data"].(map[string]interface{}))
			}
		})
	}
}

func TestAdminUpdateBooking_NotFound(t *testing.T) {
	env := setupTestEnv(t)
	admin := testutil.CreateUser(t, env.db, "admin@example.com", models.RoleAdmin)

	router := setupTestRouter()
	router.PUT("/admin/bookings/:id", mockAuthMiddleware(admin), AdminUpdateBooking)

	w, response := performRequest(t, router, http.MethodPut, "/admin/bookings/missing", map[string]interface{}{"status": "accepted"})

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "BOOKING_NOT_FOUND", errorCode(t, response))
}

func TestAdminListBookings(t *testing.T) {
	env := setupTestEnv(t)
	admin := testutil.CreateUser(t, env.db, "admin@example.com", models.RoleAdmin)
	for i := 0; i < 12; i++ {
		createBooking(t, nil)
	}
	accepted := createBooking(t, nil)
	require.NoError(t, env.db.Model(accepted).Update("status", models.BookingStatusAccepted).Error)

	router := setupTestRouter()
	router.GET("/admin/bookings", mockAuthMiddleware(admin), AdminListBookings)

	t.Run("Second page", func(t *testing.T) {
		w, response := performRequest(t, router, http.MethodGet, "/admin/bookings?page=2&limit=5", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, response["data"].([]interface{}), 5)
		pagination := response["pagination"].(map[string]interface{})
		assert.Equal(t, float64(2), pagination["current"])
		assert.Equal(t, float64(3), pagination["pages"])
		assert.Equal(t, float64(13), pagination["total"])
	})

	t.Run("Status filter", func(t *testing.T) {
		w, response := performRequest(t, router, http.MethodGet, "/admin/bookings?status=accepted", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		data := response["data"].([]interface{})
		require.Len(t, data, 1)
		assert.Equal(t, accepted.ID, data[0].(map[string]interface{})["id"])
	})

	t.Run("Defaults to ten per page", func(t *testing.T) {
		_, response := performRequest(t, router, http.MethodGet, "/admin/bookings?page=abc", nil)

		assert.Len(t, response["data"].([]interface{}), 10)
		assert.Equal(t, float64(1), response["pagination"].(map[string]interface{})["current"])
	})
}

func TestAdminDeleteBooking(t *testing.T) {
	env := setupTestEnv(t)
	admin := testutil.CreateUser(t, env.db, "admin@example.com", models.RoleAdmin)
	booking := createBooking(t, nil)
	require.NoError(t, env.db.Model(booking).Update("status", models.BookingStatusCompleted).Error)

	router := setupTestRouter()
	router.DELETE("/admin/bookings/:id", mockAuthMiddleware(admin), AdminDeleteBooking)

	w, response := performRequest(t, router, http.MethodDelete, "/admin/bookings/"+booking.ID, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Booking deleted successfully", response["message"])

	var count int64
	env.db.Model(&models.RepairBooking{}).Where("id = ?", booking.ID).Count(&count)
	assert.Zero(t, count)

	w, response = performRequest(t, router, http.MethodDelete, "/admin/bookings/"+booking.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "BOOKING_NOT_FOUND", errorCode(t, response))
}

func TestGetDashboard(t *testing.T) {
	env := setupTestEnv(t)
	admin := testutil.CreateUser(t, env.db, "admin@example.com", models.RoleAdmin)
	testutil.CreateUser(t, env.db, "customer@example.com", models.RoleUser)
	testutil.CreateProduct(t, env.db, "USB-C Cable", 299, 10)
	createBooking(t, nil)
	createBooking(t, nil)

	router := setupTestRouter()
	router.GET("/admin/dashboard", mockAuthMiddleware(admin), GetDashboard)

	w, response := performRequest(t, router, http.MethodGet, "/admin/dashboard", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	data := response["data"].(map[string]interface{})
	assert.Equal(t, float64(1), data["total_users"])
	assert.Equal(t, float64(2), data["total_bookings"])
	assert.Equal(t, float64(1), data["total_products"])
	assert.Equal(t, float64(0), data["total_orders"])
	stats := data["booking_stats"].([]interface{})
	require.Len(t, stats, 1)
	assert.Equal(t, "pending", stats[0].(map[string]interface{})["status"])
	assert.Equal(t, float64(2), stats[0].(map[string]interface{})["count"])
}

func TestAdminUpdateOrder(t *testing.T) {
	env := setupTestEnv(t)
	admin := testutil.CreateUser(t, env.db, "admin@example.com", models.RoleAdmin)
	customer := testutil.CreateUser(t, env.db, "customer@example.com", models.RoleUser)
	product := testutil.CreateProduct(t, env.db, "Tempered Glass", 199, 5)
	order := placeOrder(t, customer, product.ID, 2)

	router := setupTestRouter()
	router.PUT("/admin/orders/:id", mockAuthMiddleware(admin), AdminUpdateOrder)

	w, response := performRequest(t, router, http.MethodPut, idPath("/admin/orders/", order.ID), map[string]interface{}{
		"order_status":    "Shipped",
		"payment_status":  "Paid",
		"tracking_number": "TRK123",
	})
	assert.Equal(t, http.StatusOK, w.Code)
	data := response["data"].(map[string]interface{})
	assert.Equal(t, "Shipped", data["order_status"])
	assert.Equal(t, "Paid", data["payment_status"])
	assert.Equal(t, "TRK123", data["tracking_number"])

	w, response = performRequest(t, router, http.MethodPut, idPath("/admin/orders/", order.ID), map[string]interface{}{
		"order_status": "Delivered",
	})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotNil(t, response["data"].(map[string]interface{})["delivered_at"])

	w, response = performRequest(t, router, http.MethodPut, idPath("/admin/orders/", order.ID), map[string]interface{}{
		"order_status": "Cancelled",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "ORDER_TERMINAL", errorCode(t, response))

	w, response = performRequest(t, router, http.MethodPut, "/admin/orders/abc", map[string]interface{}{"order_status": "Shipped"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "ORDER_NOT_FOUND", errorCode(t, response))
}

func TestAdminListOrders(t *testing.T) {
	env := setupTestEnv(t)
	admin := testutil.CreateUser(t, env.db, "admin@example.com", models.RoleAdmin)
	customer := testutil.CreateUser(t, env.db, "customer@example.com", models.RoleUser)
	product := testutil.CreateProduct(t, env.db, "Tempered Glass", 199, 50)
	for i := 0; i < 3; i++ {
		placeOrder(t, customer, product.ID, 1)
	}

	router := setupTestRouter()
	router.GET("/admin/orders", mockAuthMiddleware(admin), AdminListOrders)

	w, response := performRequest(t, router, http.MethodGet, "/admin/orders?status=Pending&limit=2", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, response["data"].([]interface{}), 2)
	pagination := response["pagination"].(map[string]interface{})
	assert.Equal(t, float64(3), pagination["total"])
	assert.Equal(t, float64(2), pagination["pages"])
}

func TestAdminProducts(t *testing.T) {
	env := setupTestEnv(t)
	admin := testutil.CreateUser(t, env.db, "admin@example.com", models.RoleAdmin)

	router := setupTestRouter()
	router.POST("/admin/products", mockAuthMiddleware(admin), AdminCreateProduct)
	router.PUT("/admin/products/:id", mockAuthMiddleware(admin), AdminUpdateProduct)

	w, response := performRequest(t, router, http.MethodPost, "/admin/products", map[string]interface{}{
		"name":        "Fast Charger",
		"description": "25W USB-C charger",
		"category":    "chargers",
		"brand":       "Samsung",
		"price":       1299,
		"stock":       15,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	created := response["data"].(map[string]interface{})
	assert.Equal(t, "Fast Charger", created["name"])
	assert.Equal(t, true, created["is_active"])

	id := uint(created["id"].(float64))
	w, response = performRequest(t, router, http.MethodPut, idPath("/admin/products/", id), map[string]interface{}{
		"price":     999,
		"is_active": false,
	})
	assert.Equal(t, http.StatusOK, w.Code)
	updated := response["data"].(map[string]interface{})
	assert.Equal(t, float64(999), updated["price"])
	assert.Equal(t, false, updated["is_active"])

	w, response = performRequest(t, router, http.MethodPost, "/admin/products", map[string]interface{}{
		"name":     "Mystery",
		"category": "toys",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(t, response))

	w, response = performRequest(t, router, http.MethodPut, "/admin/products/9999", map[string]interface{}{"price": 10})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "PRODUCT_NOT_FOUND", errorCode(t, response))
}

// placeOrder creates a COD order of quantity units of productID for customer
func placeOrder(t *testing.T, customer *models.User, productID uint, quantity int) *models.Order {
	t.Helper()

	order, err := services.GetOrderService().CreateOrder(context.Background(), services.CreateOrderInput{
		Items: []services.OrderItemInput{{ProductID: productID, Quantity: quantity}},
		ShippingAddress: services.ShippingAddressInput{
			Name:    "Ravi Kumar",
			Phone:   "9876543210",
			Street:  "12 MG Road",
			City:    "Bengaluru",
			State:   "Karnataka",
			Pincode: "560001",
		},
		PaymentMethod: models.PaymentMethodCOD,
	}, &services.Identity{UserID: customer.ID, Role: customer.Role})
	require.NoError(t, err)
	return order
}
