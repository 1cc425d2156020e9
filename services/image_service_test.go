package services

import (
	"bytes"
	"context"
	"mime/multipart"
	"strings"
	"testing"
	"time"

	"github.com/mobirepair/mobirepair-api/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newFileHeader builds a parsed multipart file the way gin hands it to a controller
func newFileHeader(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("photo", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	form, err := multipart.NewReader(body, writer.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })

	return form.File["photo"][0]
}

func TestPhotoKey(t *testing.T) {
	ts := time.Unix(1700000000, 42)
	assert.Equal(t, "bookings/b-1/1700000000000000042.png", PhotoKey("b-1", "image/png", ts))
	assert.Equal(t, "bookings/b-1/1700000000000000042.jpg", PhotoKey("b-1", "image/jpeg", ts))
}

func TestS3ImageService_UploadBookingPhoto(t *testing.T) {
	store := NewMockS3Service()
	svc := NewS3ImageService(store)
	ctx := context.Background()

	key, err := svc.UploadBookingPhoto(ctx, "b-1", newFileHeader(t, "Front.JPEG", []byte("jpeg")))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(key, "bookings/b-1/"))
	assert.True(t, strings.HasSuffix(key, ".jpg"))
	assert.True(t, store.ObjectExists(key))

	url, err := svc.GetPhotoURL(ctx, key)
	require.NoError(t, err)
	assert.Contains(t, url, key)

	require.NoError(t, svc.DeletePhoto(ctx, key))
	assert.False(t, store.ObjectExists(key))
}

func TestS3ImageService_RejectsInvalidFiles(t *testing.T) {
	store := NewMockS3Service()
	svc := NewS3ImageService(store)

	_, err := svc.UploadBookingPhoto(context.Background(), "b-1", newFileHeader(t, "doc.gif", []byte("gif")))
	require.Error(t, err)
	uploadErr, ok := err.(*utils.FileUploadError)
	require.True(t, ok)
	assert.Equal(t, "INVALID_FILE_FORMAT", uploadErr.Code)

	large := newFileHeader(t, "big.png", []byte("png"))
	large.Size = utils.MaxPhotoSize + 1
	_, err = svc.UploadBookingPhoto(context.Background(), "b-1", large)
	require.Error(t, err)
	uploadErr, ok = err.(*utils.FileUploadError)
	require.True(t, ok)
	assert.Equal(t, "FILE_TOO_LARGE", uploadErr.Code)

	assert.Empty(t, store.Keys())
}
