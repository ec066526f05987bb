package attachments

import (
	"context"

	"Inkwell/internal/core/parents"
	"Inkwell/internal/core/uow"
)

// Repository persists attachment rows.
// Every lookup is scoped by parent; an id under a different parent is not found.
type Repository interface {
	// Create inserts the row and fills ID and timestamps
	Create(ctx context.Context, tx uow.Tx, a *Attachment) error

	// GetForParent returns ErrAttachmentNotFound when id does not belong to ref
	GetForParent(ctx context.Context, tx uow.Tx, ref parents.Ref, id string) (*Attachment, error)

	UpdateDescription(ctx context.Context, tx uow.Tx, ref parents.Ref, id string, description *string) (*Attachment, error)
	Delete(ctx context.Context, tx uow.Tx, ref parents.Ref, id string) error

	// ListByParent returns attachments ordered by creation time
	ListByParent(ctx context.Context, tx uow.Tx, ref parents.Ref) ([]*Attachment, error)

	// ListByParents returns the attachments of many parents of one kind
	ListByParents(ctx context.Context, tx uow.Tx, kind parents.Kind, ids []string) ([]*Attachment, error)
}

// Manager owns the lifecycle of attachments: remote blob plus local row.
// A row is never removed before its remote blob is confirmed deleted.
type Manager interface {
	Create(ctx context.Context, tx uow.Tx, ref parents.Ref, in CreateInput) (*Attachment, error)

	// CreateMany uploads all inputs concurrently, then persists the rows in input order
	CreateMany(ctx context.Context, tx uow.Tx, ref parents.Ref, inputs []CreateInput) ([]*Attachment, error)

	// Update returns (nil, nil) when the attachment does not exist under ref or was deleted
	Update(ctx context.Context, tx uow.Tx, ref parents.Ref, in UpdateInput) (*Attachment, error)

	// Delete is a no-op when the attachment does not exist under ref
	Delete(ctx context.Context, tx uow.Tx, ref parents.Ref, id string) error

	// DeleteMany deletes the remote blobs concurrently and only then the rows
	DeleteMany(ctx context.Context, tx uow.Tx, ref parents.Ref, ids []string) error

	// DeleteAllForParents removes every attachment of the given parents
	DeleteAllForParents(ctx context.Context, tx uow.Tx, refs []parents.Ref) error

	FindByParent(ctx context.Context, tx uow.Tx, ref parents.Ref) ([]*Attachment, error)
}
