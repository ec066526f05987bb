// Package parents models the two entity kinds that own attachments and reactions.
package parents

import (
	"context"
	"fmt"

	"Inkwell/internal/core/uow"
)

// Kind is the discriminator of a parent reference
type Kind string

const (
	KindPost    Kind = "post"
	KindComment Kind = "comment"
)

// Valid reports whether k is one of the known kinds
func (k Kind) Valid() bool {
	return k == KindPost || k == KindComment
}

// Ref points at exactly one post or comment
type Ref struct {
	Kind Kind
	ID   string
}

// Post returns a reference to the post with the given id
func Post(id string) Ref { return Ref{Kind: KindPost, ID: id} }

// Comment returns a reference to the comment with the given id
func Comment(id string) Ref { return Ref{Kind: KindComment, ID: id} }

func (r Ref) String() string {
	return fmt.Sprintf("%s:%s", r.Kind, r.ID)
}

// Counter names a derived counter column on a parent
type Counter string

const (
	CounterLikes    Counter = "likes"
	CounterDislikes Counter = "dislikes"
	CounterViews    Counter = "views"
	CounterComments Counter = "comments"
)

// Target is the capability every parent repository provides to the
// attachment and reaction managers.
type Target interface {
	// Exists reports whether the parent row is present
	Exists(ctx context.Context, tx uow.Tx, id string) (bool, error)

	// Increment adds delta to the counter in a single atomic statement.
	// Returns ErrUnsupportedCounter if the kind has no such counter.
	Increment(ctx context.Context, tx uow.Tx, id string, counter Counter, delta int) error
}

// Targets resolves the Target for a kind
type Targets struct {
	Post    Target
	Comment Target
}

// For returns the Target responsible for kind
func (t Targets) For(kind Kind) (Target, error) {
	switch kind {
	case KindPost:
		if t.Post != nil {
			return t.Post, nil
		}
	case KindComment:
		if t.Comment != nil {
			return t.Comment, nil
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	return nil, fmt.Errorf("no target registered for kind %q", kind)
}
