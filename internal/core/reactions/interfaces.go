package reactions

import (
	"context"

	"Inkwell/internal/core/parents"
	"Inkwell/internal/core/uow"
)

// Repository persists reaction rows.
// The store enforces at most one row per (user, parent).
type Repository interface {
	// Get returns ErrReactionNotFound when the user has not reacted on ref
	Get(ctx context.Context, tx uow.Tx, ref parents.Ref, userID string) (*Reaction, error)

	// Create returns *apperr.ConflictError when a row for (user, parent) already exists
	Create(ctx context.Context, tx uow.Tx, r *Reaction) error

	Delete(ctx context.Context, tx uow.Tx, ref parents.Ref, id string) error

	// DeleteAllForParents removes the reactions of many parents of one kind
	DeleteAllForParents(ctx context.Context, tx uow.Tx, kind parents.Kind, ids []string) (int64, error)

	// ListByUser returns every reaction the user has left, on posts and comments
	ListByUser(ctx context.Context, tx uow.Tx, userID string) ([]*Reaction, error)
}

// Manager keeps reaction rows and parent counters in step
type Manager interface {
	// AddOrUpdate replaces the user's reaction on ref with t; nil retracts it
	AddOrUpdate(ctx context.Context, tx uow.Tx, ref parents.Ref, userID string, t *Type) (*Reaction, error)

	// RemoveAllForParent deletes every reaction on ref without touching counters
	RemoveAllForParent(ctx context.Context, tx uow.Tx, ref parents.Ref) error

	// RemoveAllForParents is RemoveAllForParent for many parents of one kind
	RemoveAllForParents(ctx context.Context, tx uow.Tx, kind parents.Kind, ids []string) error
}
