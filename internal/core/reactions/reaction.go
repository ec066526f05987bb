package reactions

import (
	"strings"
	"time"

	"Inkwell/internal/core/apperr"
	"Inkwell/internal/core/parents"
)

// Type is the kind of reaction a user leaves on a post or comment
type Type string

const (
	Like    Type = "LIKE"
	Dislike Type = "DISLIKE"
)

// Counter returns the parent counter this type contributes to
func (t Type) Counter() parents.Counter {
	if t == Dislike {
		return parents.CounterDislikes
	}
	return parents.CounterLikes
}

// Valid reports whether t is LIKE or DISLIKE
func (t Type) Valid() bool {
	return t == Like || t == Dislike
}

// ParseType parses a client supplied reaction type.
// Empty and "null" mean retract and yield nil.
func ParseType(raw *string) (*Type, error) {
	if raw == nil {
		return nil, nil
	}
	s := strings.ToUpper(strings.TrimSpace(*raw))
	if s == "" || s == "NULL" {
		return nil, nil
	}
	t := Type(s)
	if !t.Valid() {
		return nil, apperr.NewValidationError("type", "must be LIKE, DISLIKE or null")
	}
	return &t, nil
}

// Reaction is a user's single LIKE or DISLIKE on one parent
type Reaction struct {
	CreatedAt  time.Time    `json:"createdAt"`
	ID         string       `json:"id"`
	UserID     string       `json:"userId"`
	ParentKind parents.Kind `json:"parentKind"`
	ParentID   string       `json:"parentId"`
	Type       Type         `json:"type"`
}

// Parent returns the reference of the reacted post or comment
func (r *Reaction) Parent() parents.Ref {
	return parents.Ref{Kind: r.ParentKind, ID: r.ParentID}
}

// Input is the body of a react request
type Input struct {
	Type     *string `json:"type"`
	ParentID string  `json:"parentId"`
}
