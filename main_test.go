package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mobirepair/mobirepair-api/config"
	"github.com/mobirepair/mobirepair-api/internal/testutil"
	"github.com/mobirepair/mobirepair-api/middleware"
	"github.com/mobirepair/mobirepair-api/models"
	"github.com/mobirepair/mobirepair-api/services"
	"github.com/mobirepair/mobirepair-api/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func TestMain(m *testing.M) {
	testutil.EnsureTestEnvironment()
	gin.SetMode(gin.TestMode)
	utils.SetLogger(zap.NewNop())
	os.Exit(m.Run())
}

// testServer is the full router over an in-memory database with mocked outbound integrations
type testServer struct {
	t       *testing.T
	router  *gin.Engine
	db      *gorm.DB
	cfg     *config.Config
	gateway *services.MockSMSGateway
	events  *services.MockEventPublisher
	store   *services.MockS3Service
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	s := &testServer{
		t:       t,
		db:      testutil.SetupTestDB(t),
		cfg:     testutil.TestConfig(),
		gateway: services.NewMockSMSGateway(),
		events:  services.NewMockEventPublisher(),
		store:   services.NewMockS3Service(),
	}
	config.SetDB(s.db)

	images := services.NewS3ImageService(s.store)
	require.NoError(t, initServices(s.cfg, s.db, s.events, images))

	// the booking service keeps the dispatcher it was built with, so both are replaced
	dispatcher := services.NewNotificationDispatcher(s.gateway, s.cfg)
	services.SetNotificationDispatcher(dispatcher)
	services.SetBookingService(services.NewBookingService(s.db, dispatcher, s.events, images, s.cfg))

	s.router = setupRouter(s.cfg, middleware.NewMemoryCounterStore())

	t.Cleanup(func() {
		services.SetCredentialService(nil)
		services.SetNotificationDispatcher(nil)
	})
	return s
}

// tokenFor signs a valid session token for user
func (s *testServer) tokenFor(user *models.User) string {
	return testutil.SignToken(s.t, s.cfg, user, time.Hour)
}

// do sends body as JSON with an optional bearer token and decodes the JSON response
func (s *testServer) do(method, path, token string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	s.t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequest(method, path, reader)
	require.NoError(s.t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", testutil.BearerHeader(token))
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var response map[string]interface{}
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &response), "body: %s", w.Body.String())
	}
	return w, response
}

func errorCode(t *testing.T, response map[string]interface{}) string {
	t.Helper()
	errData, ok := response["error"].(map[string]interface{})
	require.True(t, ok, "response has no error object: %v", response)
	code, _ := errData["code"].(string)
	return code
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(t)

	w, response := s.do(http.MethodGet, "/api/v1/health", "", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, response["success"])
	assert.Equal(t, "Mobile Repair API is running", response["message"])
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "500", w.Header().Get("RateLimit-Limit"))
}

func TestHealthEndpoint_Routing(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name           string
		method         string
		path           string
		expectedStatus int
	}{
		{"Versioned path", http.MethodGet, "/api/v1/health", http.StatusOK},
		{"Unversioned path", http.MethodGet, "/health", http.StatusNotFound},
		{"Unknown version", http.MethodGet, "/api/v2/health", http.StatusNotFound},
		{"Wrong method", http.MethodPost, "/api/v1/health", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, _ := s.do(tt.method, tt.path, "", nil)
			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestDatabaseStatusEndpoint(t *testing.T) {
	s := newTestServer(t)

	w, response := s.do(http.MethodGet, "/api/v1/database/status", "", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Database connected", response["message"])
	assert.Contains(t, response["tables"], "repair_bookings")
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)
	s.do(http.MethodGet, "/api/v1/health", "", nil)

	req, err := http.NewRequest(http.MethodGet, "/metrics", nil)
	require.NoError(t, err)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "http_requests_total")
	assert.Contains(t, w.Body.String(), "http_request_duration_seconds")
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t)

	req, err := http.NewRequest(http.MethodOptions, "/api/v1/repairs", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
}
