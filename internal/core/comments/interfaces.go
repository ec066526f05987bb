package comments

import (
	"context"

	"Inkwell/internal/core/attachments"
	"Inkwell/internal/core/listing"
	"Inkwell/internal/core/parents"
	"Inkwell/internal/core/reactions"
	"Inkwell/internal/core/uow"
)

// Service defines the business logic interface for comments.
// Every mutating operation runs in one unit of work.
type Service interface {
	Create(ctx context.Context, authorID string, req CreateRequest) (*Comment, error)
	Update(ctx context.Context, id, currentUserID string, req UpdateRequest) (*Comment, error)

	// Remove deletes the comment and, through the store, its replies
	Remove(ctx context.Context, id, currentUserID string) error

	Find(ctx context.Context, filter Filter) (listing.Page[*Comment], error)
	React(ctx context.Context, userID string, in reactions.Input) (*reactions.Reaction, error)

	// RemoveAllByAuthor removes every comment of the author, one unit of work per comment
	RemoveAllByAuthor(ctx context.Context, authorID string) error
}

// Repository defines the data access interface for comments.
// It is also the parents.Target for comments.
type Repository interface {
	parents.Target

	// Create inserts the comment and fills ID and timestamps
	Create(ctx context.Context, tx uow.Tx, c *Comment) error

	// GetByID returns ErrNotFound when the comment does not exist. Author is populated.
	GetByID(ctx context.Context, tx uow.Tx, id string) (*Comment, error)

	Update(ctx context.Context, tx uow.Tx, id string, patch Patch) error

	// Delete removes the comment; replies are removed by the store
	Delete(ctx context.Context, tx uow.Tx, id string) error

	// LockSubtree returns id followed by the ids of all its transitive replies.
	// No reply can be attached to any of them until tx ends.
	LockSubtree(ctx context.Context, tx uow.Tx, id string) ([]string, error)

	// IDsByPost returns the ids of every comment on a post.
	// No comment can be added to the post until tx ends.
	IDsByPost(ctx context.Context, tx uow.Tx, postID string) ([]string, error)

	List(ctx context.Context, filter Filter) ([]*Comment, int, error)

	IDsByAuthor(ctx context.Context, tx uow.Tx, authorID string) ([]string, error)
}

// AttachmentLoader batch-loads attachments for a page of comments
type AttachmentLoader interface {
	ListByParents(ctx context.Context, tx uow.Tx, kind parents.Kind, ids []string) ([]*attachments.Attachment, error)
}
