package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"Inkwell/internal/core/apperr"
	"Inkwell/internal/core/listing"
	"Inkwell/internal/core/users"
)

type postgresUserRepo struct {
	db *sql.DB
}

// NewUserRepository creates a new PostgreSQL user repository
func NewUserRepository(db *sql.DB) users.UserRepository {
	return &postgresUserRepo{db: db}
}

const userColumns = `
	id, email, username, password_hash, display_name, user_description,
	is_active, refresh_token_hash, registration_date, created_at, updated_at
`

func scanUser(row rowScanner) (*users.User, error) {
	var user users.User
	var displayName, description, tokenHash sql.NullString
	err := row.Scan(
		&user.ID, &user.Email, &user.Username, &user.PasswordHash, &displayName, &description,
		&user.IsActive, &tokenHash, &user.RegistrationDate, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if displayName.Valid {
		user.DisplayName = &displayName.String
	}
	if description.Valid {
		user.UserDescription = &description.String
	}
	if tokenHash.Valid {
		user.RefreshTokenHash = &tokenHash.String
	}
	return &user, nil
}

// uniqueUserConflict maps a unique violation to the field it concerns
func uniqueUserConflict(err error) error {
	switch constraintName(err) {
	case "users_email_key":
		return apperr.NewConflictError("user", users.ErrEmailTaken.Error())
	case "users_username_key":
		return apperr.NewConflictError("user", users.ErrUsernameTaken.Error())
	default:
		return apperr.NewConflictError("user", "user already exists")
	}
}

// Create inserts a new user into the users table
func (r *postgresUserRepo) Create(ctx context.Context, user *users.User) error {
	query := `
		INSERT INTO users (email, username, password_hash, display_name, user_description, registration_date)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, is_active, created_at, updated_at
	`

	err := r.db.QueryRowContext(ctx, query,
		user.Email, user.Username, user.PasswordHash,
		nullString(user.DisplayName), nullString(user.UserDescription), user.RegistrationDate,
	).Scan(&user.ID, &user.IsActive, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return uniqueUserConflict(err)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *postgresUserRepo) getOne(ctx context.Context, where string, arg any) (*users.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE `+where, arg))
	if err == sql.ErrNoRows {
		return nil, users.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// GetByID retrieves a user by id
func (r *postgresUserRepo) GetByID(ctx context.Context, id string) (*users.User, error) {
	if !validUUID(id) {
		return nil, users.ErrUserNotFound
	}
	return r.getOne(ctx, "id = $1", id)
}

// GetByEmail retrieves a user by email (case-insensitive)
func (r *postgresUserRepo) GetByEmail(ctx context.Context, email string) (*users.User, error) {
	return r.getOne(ctx, "LOWER(email) = LOWER($1)", strings.TrimSpace(email))
}

// GetByUsername retrieves a user by username
func (r *postgresUserRepo) GetByUsername(ctx context.Context, username string) (*users.User, error) {
	return r.getOne(ctx, "username = $1", username)
}

// Update writes the non-nil fields of patch
func (r *postgresUserRepo) Update(ctx context.Context, id string, patch users.Patch) (*users.User, error) {
	if !validUUID(id) {
		return nil, users.ErrUserNotFound
	}

	query := `
		UPDATE users
		SET username = COALESCE($2, username),
		    display_name = COALESCE($3, display_name),
		    user_description = COALESCE($4, user_description),
		    password_hash = COALESCE($5, password_hash),
		    updated_at = NOW()
		WHERE id = $1
		RETURNING ` + userColumns

	user, err := scanUser(r.db.QueryRowContext(ctx, query, id,
		nullString(patch.Username), nullString(patch.DisplayName),
		nullString(patch.UserDescription), nullString(patch.PasswordHash),
	))
	if err == sql.ErrNoRows {
		return nil, users.ErrUserNotFound
	}
	if err != nil {
		if isUniqueViolation(err) {
			return nil, uniqueUserConflict(err)
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return user, nil
}

// SetSession stores the refresh token hash and the active flag
func (r *postgresUserRepo) SetSession(ctx context.Context, id string, refreshTokenHash *string, active bool) error {
	if !validUUID(id) {
		return users.ErrUserNotFound
	}

	query := `
		UPDATE users
		SET refresh_token_hash = $2, is_active = $3, updated_at = NOW()
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query, id, nullString(refreshTokenHash), active)
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if rows == 0 {
		return users.ErrUserNotFound
	}
	return nil
}

// Delete removes the user row; remaining authored rows cascade
func (r *postgresUserRepo) Delete(ctx context.Context, id string) error {
	if !validUUID(id) {
		return users.ErrUserNotFound
	}
	result, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if rows == 0 {
		return users.ErrUserNotFound
	}
	return nil
}

// List returns one page of users and the total number of matches
func (r *postgresUserRepo) List(ctx context.Context, filter users.Filter) ([]*users.User, int, error) {
	var where []string
	var args []any

	if filter.ID != "" {
		if !validUUID(filter.ID) {
			return []*users.User{}, 0, nil
		}
		args = append(args, filter.ID)
		where = append(where, fmt.Sprintf("id = $%d", len(args)))
	}
	if filter.Email != "" {
		args = append(args, filter.Email)
		where = append(where, fmt.Sprintf("LOWER(email) = LOWER($%d)", len(args)))
	}
	if filter.Username != "" {
		args = append(args, filter.Username)
		where = append(where, fmt.Sprintf("username = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+escapeLike(filter.Search)+"%")
		where = append(where, fmt.Sprintf("(username ILIKE $%d OR display_name ILIKE $%d)", len(args), len(args)))
	}

	whereClause := ""
	if len(where) > 0 {
		whereClause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	column, ok := users.SortColumns[filter.SortBy]
	if !ok {
		column = users.SortColumns[users.DefaultSort]
	}
	order := "DESC"
	if filter.SortOrder == listing.Asc {
		order = "ASC"
	}

	args = append(args, filter.Limit, filter.Offset())
	query := `SELECT ` + userColumns + ` FROM users` + whereClause +
		fmt.Sprintf(" ORDER BY %s %s, id %s LIMIT $%d OFFSET $%d", column, order, order, len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	defer closeRows(rows)

	result := []*users.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan user: %w", err)
		}
		result = append(result, user)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating users: %w", err)
	}
	return result, total, nil
}

// escapeLike escapes LIKE wildcards in user input
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "%", `\%`)
	return strings.ReplaceAll(s, "_", `\_`)
}
