package posts

import "errors"

// ErrNotFound is returned by the repository when a post does not exist
var ErrNotFound = errors.New("post not found")
