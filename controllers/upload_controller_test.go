package controllers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/mobirepair/mobirepair-api/internal/testutil"
	"github.com/mobirepair/mobirepair-api/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// uploadPhoto posts filename as the photo field; an empty filename sends a form without it
func uploadPhoto(t *testing.T, router *gin.Engine, path, filename string, content []byte) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if filename != "" {
		part, err := writer.CreateFormFile(PhotoFormField, filename)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	} else {
		require.NoError(t, writer.WriteField("note", "no file"))
	}
	require.NoError(t, writer.Close())

	req, err := http.NewRequest(http.MethodPost, path, body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	return w, response
}

func TestUploadBookingPhoto(t *testing.T) {
	env := setupTestEnv(t)
	owner := testutil.CreateUser(t, env.db, "owner@example.com", models.RoleUser)
	other := testutil.CreateUser(t, env.db, "other@example.com", models.RoleUser)
	booking := createBooking(t, owner)
	path := "/repairs/" + booking.ID + "/photo"

	tests := []struct {
		name           string
		caller         *models.User
		filename       string
		expectedStatus int
		expectedError  string
	}{
		{"PNG photo", owner, "screen.png", http.StatusOK, ""},
		{"JPEG replaces the earlier photo", owner, "screen.jpeg", http.StatusOK, ""},
		{"Unsupported format", owner, "screen.gif", http.StatusBadRequest, "INVALID_FILE_FORMAT"},
		{"Missing file", owner, "", http.StatusBadRequest, "MISSING_FILE"},
		{"Booking of another user", other, "screen.png", http.StatusNotFound, "BOOKING_NOT_FOUND"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := setupTestRouter()
			router.POST("/repairs/:id/photo", mockAuthMiddleware(tt.caller), UploadBookingPhoto)

			w, response := uploadPhoto(t, router, path, tt.filename, []byte("fake image bytes"))

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedError != "" {
				assert.Equal(t, tt.expectedError, errorCode(t, response))
				return
			}
			assert.Equal(t, "Photo uploaded successfully", response["message"])
			photoURL := response["data"].(map[string]interface{})["photo_url"].(string)
			assert.True(t, strings.Contains(photoURL, "bookings/"+booking.ID+"/"), photoURL)
		})
	}

	// the replaced photo was removed from storage
	assert.Len(t, env.store.Keys(), 1)
}
