package comments

import (
	"strings"
	"time"

	"github.com/rivo/uniseg"

	"Inkwell/internal/core/apperr"
	"Inkwell/internal/core/attachments"
	"Inkwell/internal/core/listing"
)

// maxCommentGraphemes is the maximum length for comment content in graphemes
const maxCommentGraphemes = 10000

// Author is the public projection of a comment's author
type Author struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// Comment is a comment on a post, optionally a reply to another comment
type Comment struct {
	CreatedAt       time.Time                 `json:"createdAt"`
	UpdatedAt       time.Time                 `json:"updatedAt"`
	Author          *Author                   `json:"author,omitempty"`
	ParentCommentID *string                   `json:"parentCommentId"`
	ID              string                    `json:"id"`
	AuthorID        string                    `json:"authorId"`
	PostID          string                    `json:"postId"`
	Content         string                    `json:"content"`
	Attachments     []*attachments.Attachment `json:"attachments"`
	LikesCount      int                       `json:"likesCount"`
	DislikesCount   int                       `json:"dislikesCount"`
}

// CreateRequest is the input of Service.Create
type CreateRequest struct {
	ParentCommentID *string                   `json:"parentCommentId,omitempty"`
	Content         string                    `json:"content"`
	PostID          string                    `json:"postId"`
	Attachments     []attachments.CreateInput `json:"attachments,omitempty"`
}

// Validate checks scalar fields; attachment inputs are validated by the manager
func (r CreateRequest) Validate() error {
	if strings.TrimSpace(r.PostID) == "" {
		return apperr.NewValidationError("postId", "post id is required")
	}
	if strings.TrimSpace(r.Content) == "" && len(r.Attachments) == 0 {
		return apperr.NewValidationError("content", "comment needs content or an attachment")
	}
	return validateContent(&r.Content)
}

// UpdateRequest is the input of Service.Update.
// A comment cannot be moved to another post or parent.
type UpdateRequest struct {
	Content              *string                   `json:"content,omitempty"`
	NewAttachments       []attachments.CreateInput `json:"newAttachments,omitempty"`
	UpdatedAttachments   []attachments.UpdateInput `json:"updatedAttachments,omitempty"`
	DeletedAttachmentIDs []string                  `json:"deletedAttachmentIds,omitempty"`
}

func validateContent(content *string) error {
	if content != nil && uniseg.GraphemeClusterCount(*content) > maxCommentGraphemes {
		return apperr.NewValidationError("content", "content must be at most 10000 characters")
	}
	return nil
}

// NormalizeParentID maps the absent forms of a parent comment id (nil, "",
// "null" in any case) to nil.
func NormalizeParentID(raw *string) *string {
	if raw == nil {
		return nil
	}
	v := strings.TrimSpace(*raw)
	if v == "" || strings.EqualFold(v, "null") {
		return nil
	}
	return &v
}

// Patch is an immutable set of scalar changes to a comment
type Patch struct {
	content *string
}

// NewPatch copies the scalar fields of an update request
func NewPatch(req UpdateRequest) (Patch, error) {
	if err := validateContent(req.Content); err != nil {
		return Patch{}, err
	}
	if req.Content == nil {
		return Patch{}, nil
	}
	v := *req.Content
	return Patch{content: &v}, nil
}

// Content returns the new content, if any
func (p Patch) Content() (string, bool) {
	if p.content == nil {
		return "", false
	}
	return *p.content, true
}

// IsEmpty reports whether the patch changes nothing
func (p Patch) IsEmpty() bool { return p.content == nil }

// Apply returns a copy of comment with the patch applied
func (p Patch) Apply(c Comment) Comment {
	if v, ok := p.Content(); ok {
		c.Content = v
	}
	return c
}

// Filter selects comments for Service.Find.
// ParentCommentID nil lists top-level comments; it is ignored when ID is set.
type Filter struct {
	ParentCommentID *string
	ID              string
	AuthorID        string
	PostID          string
	listing.Query
}

// SortColumns maps accepted sortBy values to columns
var SortColumns = map[string]string{
	"createdAt":     "created_at",
	"updatedAt":     "updated_at",
	"likesCount":    "likes_count",
	"dislikesCount": "dislikes_count",
}

// DefaultSort is used when sortBy is missing or not allowed
const DefaultSort = "createdAt"
