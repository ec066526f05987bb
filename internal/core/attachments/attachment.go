package attachments

import (
	"time"

	"github.com/rivo/uniseg"

	"Inkwell/internal/core/apperr"
	"Inkwell/internal/core/parents"
)

// MaxDescriptionLength is the longest description accepted, in graphemes
const MaxDescriptionLength = 255

// Attachment is a media blob owned by exactly one post or comment
type Attachment struct {
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
	Description *string      `json:"description"`
	ID          string       `json:"id"`
	ParentKind  parents.Kind `json:"-"`
	ParentID    string       `json:"-"`
	URL         string       `json:"url"`
	PublicID    string       `json:"publicId"`
}

// Parent returns the reference of the owning post or comment
func (a *Attachment) Parent() parents.Ref {
	return parents.Ref{Kind: a.ParentKind, ID: a.ParentID}
}

// CreateInput carries raw base64 content for a new attachment
type CreateInput struct {
	Description *string `json:"description,omitempty"`
	Content     string  `json:"fileContent"`
}

// Validate checks the input before any upload happens
func (in CreateInput) Validate() error {
	if in.Content == "" {
		return apperr.NewValidationError("fileContent", "file content is required")
	}
	return validateDescription(in.Description)
}

// UpdateInput patches or deletes an existing attachment
type UpdateInput struct {
	Description *string `json:"description,omitempty"`
	ID          string  `json:"id"`
	Delete      bool    `json:"delete,omitempty"`
}

// Validate checks the patch
func (in UpdateInput) Validate() error {
	if in.ID == "" {
		return apperr.NewValidationError("id", "attachment id is required")
	}
	return validateDescription(in.Description)
}

func validateDescription(description *string) error {
	if description != nil && uniseg.GraphemeClusterCount(*description) > MaxDescriptionLength {
		return apperr.NewValidationError("description", "description must be at most 255 characters")
	}
	return nil
}
