package utils

import (
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"
)

const (
	// MaxPhotoSize is 10MB in bytes
	MaxPhotoSize = 10 * 1024 * 1024
)

// allowedPhotoTypes maps accepted extensions to their content type
var allowedPhotoTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
}

// FileUploadError represents a file upload validation error
type FileUploadError struct {
	Code    string
	Message string
}

func (e *FileUploadError) Error() string {
	return e.Message
}

// ValidatePhotoFile validates the uploaded device photo format and size
func ValidatePhotoFile(fileHeader *multipart.FileHeader) error {
	if fileHeader.Size > MaxPhotoSize {
		return &FileUploadError{
			Code:    "FILE_TOO_LARGE",
			Message: fmt.Sprintf("File size exceeds maximum allowed size of %d MB", MaxPhotoSize/(1024*1024)),
		}
	}

	if _, ok := PhotoContentType(fileHeader.Filename); !ok {
		return &FileUploadError{
			Code:    "INVALID_FILE_FORMAT",
			Message: "Only PNG and JPEG files are allowed",
		}
	}

	return nil
}

// PhotoContentType returns the content type for an accepted photo filename
func PhotoContentType(filename string) (string, bool) {
	ct, ok := allowedPhotoTypes[strings.ToLower(filepath.Ext(filename))]
	return ct, ok
}
