package reactions

import "errors"

// ErrReactionNotFound is returned by repositories when a user has no reaction on a parent
var ErrReactionNotFound = errors.New("reaction not found")
