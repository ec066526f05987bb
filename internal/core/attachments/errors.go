package attachments

import (
	"errors"
	"fmt"
)

// ErrAttachmentNotFound is returned by repositories when no attachment matches (id, parent)
var ErrAttachmentNotFound = errors.New("attachment not found")

// AttachmentDeletionError is returned when the remote blob of an attachment
// could not be deleted. The attachment row is left in place.
type AttachmentDeletionError struct {
	Err          error
	AttachmentID string
}

func (e *AttachmentDeletionError) Error() string {
	return fmt.Sprintf("failed to delete attachment %s: %v", e.AttachmentID, e.Err)
}

func (e *AttachmentDeletionError) Unwrap() error { return e.Err }

// IsDeletionError checks if error is an attachment deletion failure
func IsDeletionError(err error) bool {
	var de *AttachmentDeletionError
	return errors.As(err, &de)
}
