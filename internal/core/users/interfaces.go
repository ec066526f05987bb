package users

import (
	"context"

	"Inkwell/internal/core/listing"
)

// UserRepository defines the interface for user data persistence
type UserRepository interface {
	// Create returns a *apperr.ConflictError when email or username is taken
	Create(ctx context.Context, user *User) error

	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)

	Update(ctx context.Context, id string, patch Patch) (*User, error)

	// SetSession stores the refresh token hash (nil clears it) and the active flag
	SetSession(ctx context.Context, id string, refreshTokenHash *string, active bool) error

	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter Filter) ([]*User, int, error)
}

// PasswordHasher hashes secrets before they are stored
type PasswordHasher interface {
	Hash(password string) (string, error)
}

// ContentRemover deletes everything a user authored, media included
type ContentRemover interface {
	RemoveAllByAuthor(ctx context.Context, authorID string) error
}

// UserService defines the interface for user business logic
type UserService interface {
	Create(ctx context.Context, req CreateUserRequest) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	Find(ctx context.Context, filter Filter) (listing.Page[*User], error)

	// Update and Remove only act on the caller's own account
	Update(ctx context.Context, id, currentUserID string, req UpdateUserRequest) (*User, error)
	Remove(ctx context.Context, id, currentUserID string) error
}
