package users

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"Inkwell/internal/core/apperr"
	"Inkwell/internal/core/listing"
)

type userService struct {
	userRepo UserRepository
	hasher   PasswordHasher
	content  []ContentRemover
	logger   *slog.Logger
}

// NewUserService creates a new user service.
// content is consulted in order when an account is removed.
func NewUserService(userRepo UserRepository, hasher PasswordHasher, logger *slog.Logger, content ...ContentRemover) UserService {
	if logger == nil {
		logger = slog.Default()
	}
	return &userService{
		userRepo: userRepo,
		hasher:   hasher,
		content:  content,
		logger:   logger,
	}
}

// Create registers a new user with a hashed password
func (s *userService) Create(ctx context.Context, req CreateUserRequest) (*User, error) {
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	req.Username = strings.TrimSpace(req.Username)
	if err := req.Validate(); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &User{
		Email:            req.Email,
		Username:         req.Username,
		PasswordHash:     hash,
		DisplayName:      req.DisplayName,
		UserDescription:  req.UserDescription,
		RegistrationDate: time.Now().UTC(),
	}

	// Repository will handle duplicate constraint errors
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// GetByID retrieves a user by id
func (s *userService) GetByID(ctx context.Context, id string) (*User, error) {
	if strings.TrimSpace(id) == "" {
		return nil, apperr.NewValidationError("id", "user id is required")
	}

	user, err := s.userRepo.GetByID(ctx, id)
	if errors.Is(err, ErrUserNotFound) {
		return nil, apperr.NewNotFoundError("user", id)
	}
	return user, err
}

func (s *userService) Find(ctx context.Context, filter Filter) (listing.Page[*User], error) {
	filter.Query = filter.Query.Normalize(SortColumns, DefaultSort)

	list, total, err := s.userRepo.List(ctx, filter)
	if err != nil {
		return listing.Page[*User]{}, fmt.Errorf("failed to list users: %w", err)
	}
	return listing.NewPage(list, total, filter.Query), nil
}

// Update patches the caller's own profile
func (s *userService) Update(ctx context.Context, id, currentUserID string, req UpdateUserRequest) (*User, error) {
	if id != currentUserID {
		return nil, apperr.NewForbiddenError("user", id)
	}

	var patch Patch
	if req.Username != nil {
		username := strings.TrimSpace(*req.Username)
		if err := validateUsername(username); err != nil {
			return nil, err
		}
		existing, err := s.userRepo.GetByUsername(ctx, username)
		switch {
		case err == nil && existing.ID != id:
			return nil, apperr.NewConflictError("user", ErrUsernameTaken.Error())
		case err != nil && !errors.Is(err, ErrUserNotFound):
			return nil, fmt.Errorf("failed to check username: %w", err)
		}
		patch.Username = &username
	}
	if err := validateProfile(req.DisplayName, req.UserDescription); err != nil {
		return nil, err
	}
	patch.DisplayName = req.DisplayName
	patch.UserDescription = req.UserDescription

	if req.Password != nil {
		if err := validatePassword(*req.Password); err != nil {
			return nil, err
		}
		hash, err := s.hasher.Hash(*req.Password)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		patch.PasswordHash = &hash
	}

	user, err := s.userRepo.Update(ctx, id, patch)
	if errors.Is(err, ErrUserNotFound) {
		return nil, apperr.NewNotFoundError("user", id)
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Remove deletes the caller's own account after removing everything they authored
func (s *userService) Remove(ctx context.Context, id, currentUserID string) error {
	if id != currentUserID {
		return apperr.NewForbiddenError("user", id)
	}

	if _, err := s.userRepo.GetByID(ctx, id); err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return apperr.NewNotFoundError("user", id)
		}
		return fmt.Errorf("failed to load user: %w", err)
	}

	for _, remover := range s.content {
		if err := remover.RemoveAllByAuthor(ctx, id); err != nil {
			s.logger.Error("failed to remove authored content", "error", err, "user_id", id)
			return err
		}
	}

	if err := s.userRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return apperr.NewNotFoundError("user", id)
		}
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}
