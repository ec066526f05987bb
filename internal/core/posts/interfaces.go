package posts

import (
	"context"

	"Inkwell/internal/core/attachments"
	"Inkwell/internal/core/listing"
	"Inkwell/internal/core/parents"
	"Inkwell/internal/core/reactions"
	"Inkwell/internal/core/uow"
)

// Service defines the business logic interface for posts.
// Every mutating operation runs in one unit of work.
type Service interface {
	Create(ctx context.Context, authorID string, req CreateRequest) (*Post, error)
	Update(ctx context.Context, id, currentUserID string, req UpdateRequest) (*Post, error)
	Remove(ctx context.Context, id, currentUserID string) error

	// Find counts a view when the result holds exactly one post
	Find(ctx context.Context, filter Filter) (listing.Page[*Post], error)

	React(ctx context.Context, userID string, in reactions.Input) (*reactions.Reaction, error)

	// RemoveAllByAuthor removes every post of the author, one unit of work per post
	RemoveAllByAuthor(ctx context.Context, authorID string) error
}

// Repository defines the data access interface for posts.
// It is also the parents.Target for posts.
type Repository interface {
	parents.Target

	// Create inserts the post and fills ID and timestamps
	Create(ctx context.Context, tx uow.Tx, post *Post) error

	// GetByID returns ErrNotFound when the post does not exist. Author is populated.
	GetByID(ctx context.Context, tx uow.Tx, id string) (*Post, error)

	// Update applies the patch and bumps updated_at
	Update(ctx context.Context, tx uow.Tx, id string, patch Patch) error

	Delete(ctx context.Context, tx uow.Tx, id string) error

	List(ctx context.Context, filter Filter) ([]*Post, int, error)

	IDsByAuthor(ctx context.Context, tx uow.Tx, authorID string) ([]string, error)
}

// CommentIndex lists the comments that are removed together with a post.
// IDsByPost keeps new comments off the post until tx ends.
type CommentIndex interface {
	IDsByPost(ctx context.Context, tx uow.Tx, postID string) ([]string, error)
}

// AttachmentLoader batch-loads attachments for a page of posts
type AttachmentLoader interface {
	ListByParents(ctx context.Context, tx uow.Tx, kind parents.Kind, ids []string) ([]*attachments.Attachment, error)
}
