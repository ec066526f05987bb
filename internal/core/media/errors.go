package media

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyContent is returned when attachment content decodes to nothing
	ErrEmptyContent = errors.New("attachment content is empty")

	// ErrInvalidContent is returned when attachment content is not valid base64
	ErrInvalidContent = errors.New("attachment content is not valid base64")

	// ErrCircuitOpen is the cause carried by Upload/DeleteError while the store is failing fast
	ErrCircuitOpen = errors.New("media store circuit open")
)

// UploadError is returned when a blob could not be stored
type UploadError struct {
	Err error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("media upload failed: %v", e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }

// DeleteError is returned when a blob could not be removed
type DeleteError struct {
	Err      error
	PublicID string
}

func (e *DeleteError) Error() string {
	return fmt.Sprintf("media delete failed for %s: %v", e.PublicID, e.Err)
}

func (e *DeleteError) Unwrap() error { return e.Err }

// IsUploadError checks if error is a media upload failure
func IsUploadError(err error) bool {
	var ue *UploadError
	return errors.As(err, &ue)
}

// IsDeleteError checks if error is a media delete failure
func IsDeleteError(err error) bool {
	var de *DeleteError
	return errors.As(err, &de)
}
