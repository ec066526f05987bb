package users

import (
	"net/mail"
	"strings"
	"time"

	"github.com/rivo/uniseg"

	"Inkwell/internal/core/apperr"
	"Inkwell/internal/core/listing"
)

// User is a registered account
type User struct {
	CreatedAt        time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt        time.Time `json:"updatedAt" db:"updated_at"`
	RegistrationDate time.Time `json:"registrationDate" db:"registration_date"`
	DisplayName      *string   `json:"displayName" db:"display_name"`
	UserDescription  *string   `json:"userDescription" db:"user_description"`
	RefreshTokenHash *string   `json:"-" db:"refresh_token_hash"`
	ID               string    `json:"id" db:"id"`
	Email            string    `json:"email" db:"email"`
	Username         string    `json:"username" db:"username"`
	PasswordHash     string    `json:"-" db:"password_hash"`
	IsActive         bool      `json:"isActive" db:"is_active"`
}

// CreateUserRequest represents the input for registering a new user
type CreateUserRequest struct {
	DisplayName     *string `json:"displayName,omitempty"`
	UserDescription *string `json:"userDescription,omitempty"`
	Email           string  `json:"email"`
	Username        string  `json:"username"`
	Password        string  `json:"password"`
}

// UpdateUserRequest patches a user's profile. Nil fields are left untouched.
type UpdateUserRequest struct {
	Username        *string `json:"username,omitempty"`
	DisplayName     *string `json:"displayName,omitempty"`
	UserDescription *string `json:"userDescription,omitempty"`
	Password        *string `json:"password,omitempty"`
}

// Patch is the validated, storage-ready form of an update
type Patch struct {
	Username        *string
	DisplayName     *string
	UserDescription *string
	PasswordHash    *string
}

// Filter selects users for Service.Find
type Filter struct {
	ID       string
	Email    string
	Username string
	listing.Query
}

// SortColumns maps accepted sortBy values to columns
var SortColumns = map[string]string{
	"createdAt":        "created_at",
	"registrationDate": "registration_date",
	"username":         "username",
	"email":            "email",
}

// DefaultSort is used when sortBy is missing or not allowed
const DefaultSort = "createdAt"

func validateUsername(username string) error {
	n := uniseg.GraphemeClusterCount(username)
	if n < 3 || n > 20 {
		return apperr.NewValidationError("username", "username must be 3 to 20 characters")
	}
	if strings.ContainsAny(username, " \t\n") {
		return apperr.NewValidationError("username", "username cannot contain whitespace")
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < 8 || len(password) > 32 {
		return apperr.NewValidationError("password", "password must be 8 to 32 characters")
	}
	return nil
}

func validateProfile(displayName, description *string) error {
	if displayName != nil {
		if n := uniseg.GraphemeClusterCount(*displayName); n < 1 || n > 40 {
			return apperr.NewValidationError("displayName", "display name must be 1 to 40 characters")
		}
	}
	if description != nil {
		if n := uniseg.GraphemeClusterCount(*description); n < 1 || n > 255 {
			return apperr.NewValidationError("userDescription", "description must be 1 to 255 characters")
		}
	}
	return nil
}

// Validate checks a registration request
func (r CreateUserRequest) Validate() error {
	if _, err := mail.ParseAddress(r.Email); err != nil || strings.Contains(r.Email, " ") {
		return apperr.NewValidationError("email", "a valid email address is required")
	}
	if err := validateUsername(r.Username); err != nil {
		return err
	}
	if err := validatePassword(r.Password); err != nil {
		return err
	}
	return validateProfile(r.DisplayName, r.UserDescription)
}
