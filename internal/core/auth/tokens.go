package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the payload of both access and refresh tokens
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// TokenPair is returned on register and login
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// TokenConfig holds signing secrets and lifetimes
type TokenConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

// TokenService issues and verifies HS256 tokens.
// Access and refresh tokens are signed with different secrets.
type TokenService struct {
	now           func() time.Time
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

// NewTokenService creates a token service
func NewTokenService(cfg TokenConfig) (*TokenService, error) {
	if cfg.AccessSecret == "" || cfg.RefreshSecret == "" {
		return nil, errors.New("access and refresh secrets are required")
	}
	if cfg.AccessSecret == cfg.RefreshSecret {
		return nil, errors.New("access and refresh secrets must differ")
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("token lifetimes must be positive")
	}
	return &TokenService{
		now:           time.Now,
		accessSecret:  []byte(cfg.AccessSecret),
		refreshSecret: []byte(cfg.RefreshSecret),
		accessTTL:     cfg.AccessTTL,
		refreshTTL:    cfg.RefreshTTL,
	}, nil
}

// IssuePair signs a fresh access and refresh token for the user
func (s *TokenService) IssuePair(userID, email string) (*TokenPair, error) {
	access, err := s.IssueAccess(userID, email)
	if err != nil {
		return nil, err
	}
	refresh, err := s.sign(userID, email, s.refreshSecret, s.refreshTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to sign refresh token: %w", err)
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// IssueAccess signs an access token
func (s *TokenService) IssueAccess(userID, email string) (string, error) {
	token, err := s.sign(userID, email, s.accessSecret, s.accessTTL)
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}
	return token, nil
}

func (s *TokenService) sign(userID, email string, secret []byte, ttl time.Duration) (string, error) {
	now := s.now()
	claims := Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// ParseAccess verifies an access token, including its expiry
func (s *TokenService) ParseAccess(tokenString string) (*Claims, error) {
	claims, err := s.parse(tokenString, s.accessSecret)
	if err != nil {
		return nil, err
	}
	if s.expired(claims) {
		return nil, ErrTokenExpired
	}
	return claims, nil
}

// ParseRefresh verifies the signature of a refresh token.
// An expired token returns its claims together with ErrTokenExpired so the
// caller can revoke the session it belongs to.
func (s *TokenService) ParseRefresh(tokenString string) (*Claims, error) {
	claims, err := s.parse(tokenString, s.refreshSecret)
	if err != nil {
		return nil, err
	}
	if s.expired(claims) {
		return claims, ErrTokenExpired
	}
	return claims, nil
}

func (s *TokenService) parse(tokenString string, secret []byte) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	}, jwt.WithoutClaimsValidation(), jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" || claims.ExpiresAt == nil {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (s *TokenService) expired(claims *Claims) bool {
	return !s.now().Before(claims.ExpiresAt.Time)
}
