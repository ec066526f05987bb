// Package uow defines the unit of work used by every mutating service operation.
//
// A Tx is an opaque handle: repositories that receive one must issue their
// statements on it, repositories that receive nil run against the pool.
// Nothing is visible to other callers until the surrounding WithinTx returns nil.
package uow

import "context"

// Tx identifies an open unit of work
type Tx interface {
	ID() string
}

// Manager opens units of work.
// If fn returns an error (or panics) every write issued on tx is discarded and
// the error is returned unchanged. Otherwise the writes are committed together.
type Manager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}
