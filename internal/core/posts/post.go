package posts

import (
	"strings"
	"time"

	"github.com/rivo/uniseg"

	"Inkwell/internal/core/apperr"
	"Inkwell/internal/core/attachments"
	"Inkwell/internal/core/listing"
)

const (
	// MaxTitleLength is the longest post title accepted, in graphemes
	MaxTitleLength = 255

	// MaxContentLength is the longest post body accepted, in graphemes
	MaxContentLength = 50000
)

// Author is the public projection of a post's author
type Author struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// Post is a blog post together with its derived counters
type Post struct {
	CreatedAt     time.Time                 `json:"createdAt"`
	UpdatedAt     time.Time                 `json:"updatedAt"`
	Author        *Author                   `json:"author,omitempty"`
	ID            string                    `json:"id"`
	AuthorID      string                    `json:"authorId"`
	Title         string                    `json:"postTitle"`
	Content       string                    `json:"content"`
	Attachments   []*attachments.Attachment `json:"attachments"`
	ViewsCount    int                       `json:"viewsCount"`
	LikesCount    int                       `json:"likesCount"`
	DislikesCount int                       `json:"dislikesCount"`
	CommentsCount int                       `json:"commentsCount"`
}

// CreateRequest is the input of Service.Create
type CreateRequest struct {
	Title       string                    `json:"postTitle"`
	Content     string                    `json:"content"`
	Attachments []attachments.CreateInput `json:"attachments,omitempty"`
}

// Validate checks scalar fields; attachment inputs are validated by the manager
func (r CreateRequest) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return apperr.NewValidationError("postTitle", "title is required")
	}
	return validateFields(&r.Title, &r.Content)
}

// UpdateRequest is the input of Service.Update
type UpdateRequest struct {
	Title                *string                   `json:"postTitle,omitempty"`
	Content              *string                   `json:"content,omitempty"`
	NewAttachments       []attachments.CreateInput `json:"newAttachments,omitempty"`
	UpdatedAttachments   []attachments.UpdateInput `json:"updatedAttachments,omitempty"`
	DeletedAttachmentIDs []string                  `json:"deletedAttachmentIds,omitempty"`
}

func validateFields(title, content *string) error {
	if title != nil {
		if strings.TrimSpace(*title) == "" {
			return apperr.NewValidationError("postTitle", "title cannot be empty")
		}
		if uniseg.GraphemeClusterCount(*title) > MaxTitleLength {
			return apperr.NewValidationError("postTitle", "title must be at most 255 characters")
		}
	}
	if content != nil && uniseg.GraphemeClusterCount(*content) > MaxContentLength {
		return apperr.NewValidationError("content", "content must be at most 50000 characters")
	}
	return nil
}

// Patch is an immutable set of scalar changes to a post.
// Nil fields are left untouched.
type Patch struct {
	title   *string
	content *string
}

// NewPatch copies the scalar fields of an update request
func NewPatch(req UpdateRequest) (Patch, error) {
	if err := validateFields(req.Title, req.Content); err != nil {
		return Patch{}, err
	}
	return Patch{title: copyString(req.Title), content: copyString(req.Content)}, nil
}

// Title returns the new title, if any
func (p Patch) Title() (string, bool) { return deref(p.title) }

// Content returns the new content, if any
func (p Patch) Content() (string, bool) { return deref(p.content) }

// IsEmpty reports whether the patch changes nothing
func (p Patch) IsEmpty() bool { return p.title == nil && p.content == nil }

// Apply returns a copy of post with the patch applied
func (p Patch) Apply(post Post) Post {
	if v, ok := p.Title(); ok {
		post.Title = v
	}
	if v, ok := p.Content(); ok {
		post.Content = v
	}
	return post
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func deref(s *string) (string, bool) {
	if s == nil {
		return "", false
	}
	return *s, true
}

// Filter selects posts for Service.Find
type Filter struct {
	ID       string
	AuthorID string
	listing.Query
}

// SortColumns maps accepted sortBy values to columns
var SortColumns = map[string]string{
	"createdAt":     "created_at",
	"updatedAt":     "updated_at",
	"postTitle":     "title",
	"viewsCount":    "views_count",
	"likesCount":    "likes_count",
	"dislikesCount": "dislikes_count",
	"commentsCount": "comments_count",
}

// DefaultSort is used when sortBy is missing or not allowed
const DefaultSort = "createdAt"
