package services

import (
	"context"
	"fmt"
	"mime/multipart"
	"time"

	"github.com/mobirepair/mobirepair-api/utils"
)

// ImageService stores device photos attached to repair bookings
type ImageService interface {
	// UploadBookingPhoto validates and stores a photo, returning its storage key
	UploadBookingPhoto(ctx context.Context, bookingID string, fileHeader *multipart.FileHeader) (string, error)

	// GetPhotoURL returns a time-limited URL for a stored photo
	GetPhotoURL(ctx context.Context, key string) (string, error)

	// DeletePhoto removes a stored photo
	DeletePhoto(ctx context.Context, key string) error
}

// S3ImageService implements ImageService on top of S3Interface
type S3ImageService struct {
	store S3Interface
}

var imageServiceInstance ImageService

// NewS3ImageService creates an image service backed by store
func NewS3ImageService(store S3Interface) *S3ImageService {
	return &S3ImageService{store: store}
}

// InitImageService initializes the global image service
func InitImageService(store S3Interface) ImageService {
	imageServiceInstance = NewS3ImageService(store)
	return imageServiceInstance
}

// GetImageService returns the global image service, nil when photo storage is not configured
func GetImageService() ImageService {
	return imageServiceInstance
}

// SetImageService sets the image service instance (primarily for testing)
func SetImageService(service ImageService) {
	imageServiceInstance = service
}

// PhotoKey is the storage key for a booking photo uploaded at ts
func PhotoKey(bookingID, contentType string, ts time.Time) string {
	ext := ".jpg"
	if contentType == "image/png" {
		ext = ".png"
	}
	return fmt.Sprintf("bookings/%s/%d%s", bookingID, ts.UnixNano(), ext)
}

func (s *S3ImageService) UploadBookingPhoto(ctx context.Context, bookingID string, fileHeader *multipart.FileHeader) (string, error) {
	if err := utils.ValidatePhotoFile(fileHeader); err != nil {
		return "", err
	}
	contentType, _ := utils.PhotoContentType(fileHeader.Filename)

	file, err := fileHeader.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer func() {
		_ = file.Close()
	}()

	key := PhotoKey(bookingID, contentType, time.Now())
	if err := s.store.PutObject(ctx, key, contentType, file); err != nil {
		return "", fmt.Errorf("failed to upload image: %w", err)
	}
	return key, nil
}

func (s *S3ImageService) GetPhotoURL(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", nil
	}
	url, err := s.store.GetPresignedURL(ctx, key)
	if err != nil {
		return "", fmt.Errorf("failed to generate image URL: %w", err)
	}
	return url, nil
}

func (s *S3ImageService) DeletePhoto(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	if err := s.store.DeleteObject(ctx, key); err != nil {
		return fmt.Errorf("failed to delete image: %w", err)
	}
	return nil
}
