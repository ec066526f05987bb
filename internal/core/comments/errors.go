package comments

import "errors"

var (
	// ErrNotFound is returned by the repository when a comment does not exist
	ErrNotFound = errors.New("comment not found")

	// ErrParentPostMismatch is returned when a reply names a parent comment of another post
	ErrParentPostMismatch = errors.New("parent comment belongs to a different post")
)
