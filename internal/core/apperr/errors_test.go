package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAtBoundary_PassesThroughDomainErrors(t *testing.T) {
	tests := []struct {
		err  error
		name string
	}{
		{name: "not found", err: NewNotFoundError("post", "p1")},
		{name: "forbidden", err: NewForbiddenError("post", "p1")},
		{name: "conflict", err: NewConflictError("reaction", "duplicate")},
		{name: "validation", err: NewValidationError("title", "required")},
		{name: "wrapped not found", err: fmt.Errorf("load: %w", NewNotFoundError("comment", "c1"))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AtBoundary("updatePost", tt.err)
			assert.Same(t, tt.err, got)
			assert.False(t, IsInternal(got))
		})
	}
}

func TestAtBoundary_WrapsEverythingElse(t *testing.T) {
	cause := errors.New("connection reset")

	got := AtBoundary("removePost", cause)

	var ie *InternalError
	assert.True(t, errors.As(got, &ie))
	assert.Equal(t, "removePost", ie.Op)
	assert.ErrorIs(t, got, cause)
	assert.Contains(t, got.Error(), "connection reset")
}

func TestAtBoundary_NilAndAlreadyWrapped(t *testing.T) {
	assert.NoError(t, AtBoundary("op", nil))

	inner := &InternalError{Op: "inner", Err: errors.New("boom")}
	assert.Same(t, inner, AtBoundary("outer", inner))
}

func TestForbiddenError_IsSentinel(t *testing.T) {
	err := NewForbiddenError("comment", "c9")
	assert.True(t, IsForbidden(err))
	assert.ErrorIs(t, err, ErrForbidden)
	assert.False(t, IsNotFound(err))
}
