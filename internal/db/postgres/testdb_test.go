package postgres

import (
	"database/sql"
	"os"
	"testing"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/require"

	"Inkwell/internal/db/migrations"
)

// setupTestDB connects to TEST_DATABASE_URL and runs migrations.
// Integration tests are skipped when no database is configured.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping integration test")
	}

	db, err := sql.Open("postgres", dsn)
	require.NoError(t, err, "Failed to connect to test database")

	goose.SetBaseFS(migrations.FS)
	require.NoError(t, goose.SetDialect("postgres"))
	require.NoError(t, goose.Up(db, "."), "Failed to run migrations")

	t.Cleanup(func() {
		_, err := db.Exec(`TRUNCATE users, posts, comments, post_attachments, comment_attachments, post_reactions, comment_reactions CASCADE`)
		require.NoError(t, err, "Failed to cleanup test data")
		_ = db.Close()
	})
	return db
}

// createTestUser inserts a minimal user for foreign key constraints
func createTestUser(t *testing.T, db *sql.DB, username string) string {
	t.Helper()
	var id string
	err := db.QueryRow(
		`INSERT INTO users (email, username, password_hash) VALUES ($1, $2, 'x') RETURNING id`,
		username+"@example.com", username,
	).Scan(&id)
	require.NoError(t, err, "Failed to create test user")
	return id
}

func createTestPost(t *testing.T, db *sql.DB, authorID string) string {
	t.Helper()
	var id string
	err := db.QueryRow(
		`INSERT INTO posts (author_id, title, content) VALUES ($1, 'title', 'content') RETURNING id`,
		authorID,
	).Scan(&id)
	require.NoError(t, err, "Failed to create test post")
	return id
}

func createTestComment(t *testing.T, db *sql.DB, authorID, postID string, parentID *string) string {
	t.Helper()
	var id string
	err := db.QueryRow(
		`INSERT INTO comments (author_id, post_id, parent_comment_id, content) VALUES ($1, $2, $3, 'c') RETURNING id`,
		authorID, postID, nullString(parentID),
	).Scan(&id)
	require.NoError(t, err, "Failed to create test comment")
	return id
}
