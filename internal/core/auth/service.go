package auth

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"Inkwell/internal/core/users"
)

// Service implements register, login, logout and refresh
type Service struct {
	users  users.UserService
	repo   users.UserRepository
	tokens *TokenService
	hasher Hasher
	logger *slog.Logger
}

// NewService creates an auth service.
// If logger is nil, slog.Default() is used.
func NewService(userService users.UserService, repo users.UserRepository, tokens *TokenService, hasher Hasher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		users:  userService,
		repo:   repo,
		tokens: tokens,
		hasher: hasher,
		logger: logger,
	}
}

// LoginRequest holds login credentials
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AccessToken is returned by Refresh
type AccessToken struct {
	AccessToken string `json:"access_token"`
}

// Register creates the account and opens a session for it
func (s *Service) Register(ctx context.Context, req users.CreateUserRequest) (*TokenPair, error) {
	user, err := s.users.Create(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.openSession(ctx, user)
}

// Login verifies the credentials and opens a session
func (s *Service) Login(ctx context.Context, req LoginRequest) (*TokenPair, error) {
	email := strings.TrimSpace(strings.ToLower(req.Email))
	user, err := s.repo.GetByEmail(ctx, email)
	if errors.Is(err, users.ErrUserNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if err := s.hasher.Compare(user.PasswordHash, req.Password); err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to verify password: %w", err)
	}

	return s.openSession(ctx, user)
}

// Logout clears the stored refresh token and marks the user inactive
func (s *Service) Logout(ctx context.Context, userID string) error {
	user, err := s.repo.GetByID(ctx, userID)
	if errors.Is(err, users.ErrUserNotFound) {
		return ErrNotLoggedIn
	}
	if err != nil {
		return fmt.Errorf("failed to load user: %w", err)
	}
	if !user.IsActive && user.RefreshTokenHash == nil {
		return ErrNotLoggedIn
	}
	return s.repo.SetSession(ctx, userID, nil, false)
}

// Refresh exchanges a valid refresh token for a new access token.
// An expired refresh token ends the session it belongs to.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*AccessToken, error) {
	claims, parseErr := s.tokens.ParseRefresh(refreshToken)
	if parseErr != nil && !errors.Is(parseErr, ErrTokenExpired) {
		return nil, parseErr
	}

	user, err := s.repo.GetByID(ctx, claims.Subject)
	if errors.Is(err, users.ErrUserNotFound) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if user.RefreshTokenHash == nil ||
		subtle.ConstantTimeCompare([]byte(*user.RefreshTokenHash), []byte(hashToken(refreshToken))) != 1 {
		return nil, ErrTokenRevoked
	}

	if parseErr != nil {
		if err := s.repo.SetSession(ctx, user.ID, nil, false); err != nil {
			s.logger.Error("failed to end expired session", "error", err, "user_id", user.ID)
		}
		return nil, ErrTokenExpired
	}

	access, err := s.tokens.IssueAccess(user.ID, user.Email)
	if err != nil {
		return nil, err
	}
	return &AccessToken{AccessToken: access}, nil
}

func (s *Service) openSession(ctx context.Context, user *users.User) (*TokenPair, error) {
	pair, err := s.tokens.IssuePair(user.ID, user.Email)
	if err != nil {
		return nil, err
	}
	tokenHash := hashToken(pair.RefreshToken)
	if err := s.repo.SetSession(ctx, user.ID, &tokenHash, true); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}
	return pair, nil
}

// hashToken returns the hex SHA-256 of a refresh token; only the digest is stored
func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
