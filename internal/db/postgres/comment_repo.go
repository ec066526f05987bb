package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"strings"

	"Inkwell/internal/core/apperr"
	"Inkwell/internal/core/comments"
	"Inkwell/internal/core/listing"
	"Inkwell/internal/core/parents"
	"Inkwell/internal/core/uow"
)

type postgresCommentRepo struct {
	db *sql.DB
}

// NewCommentRepository creates a new PostgreSQL comment repository
func NewCommentRepository(db *sql.DB) comments.Repository {
	return &postgresCommentRepo{db: db}
}

const commentSelect = `
	SELECT
		c.id, c.author_id, u.username, c.post_id, c.parent_comment_id, c.content,
		c.likes_count, c.dislikes_count, c.created_at, c.updated_at
	FROM comments c
	JOIN users u ON u.id = c.author_id
`

func scanComment(row rowScanner) (*comments.Comment, error) {
	var c comments.Comment
	var author comments.Author
	var parentID sql.NullString
	err := row.Scan(
		&c.ID, &c.AuthorID, &author.Username, &c.PostID, &parentID, &c.Content,
		&c.LikesCount, &c.DislikesCount, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if parentID.Valid {
		c.ParentCommentID = &parentID.String
	}
	author.ID = c.AuthorID
	c.Author = &author
	return &c, nil
}

// Create inserts a new comment
func (r *postgresCommentRepo) Create(ctx context.Context, tx uow.Tx, c *comments.Comment) error {
	query := `
		INSERT INTO comments (author_id, post_id, parent_comment_id, content)
		VALUES ($1, $2, $3, $4)
		RETURNING id, likes_count, dislikes_count, created_at, updated_at
	`

	var parentID sql.NullString
	if c.ParentCommentID != nil {
		parentID = sql.NullString{String: *c.ParentCommentID, Valid: true}
	}

	err := conn(r.db, tx).QueryRowContext(ctx, query, c.AuthorID, c.PostID, parentID, c.Content).Scan(
		&c.ID, &c.LikesCount, &c.DislikesCount, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			switch constraintName(err) {
			case "comments_post_id_fkey":
				return apperr.NewNotFoundError("post", c.PostID)
			case "comments_parent_comment_id_fkey":
				return apperr.NewNotFoundError("comment", *c.ParentCommentID)
			default:
				return apperr.NewNotFoundError("user", c.AuthorID)
			}
		}
		return fmt.Errorf("failed to insert comment: %w", err)
	}
	return nil
}

// GetByID retrieves a comment with its author
func (r *postgresCommentRepo) GetByID(ctx context.Context, tx uow.Tx, id string) (*comments.Comment, error) {
	if !validUUID(id) {
		return nil, comments.ErrNotFound
	}

	c, err := scanComment(conn(r.db, tx).QueryRowContext(ctx, commentSelect+` WHERE c.id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, comments.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get comment: %w", err)
	}
	return c, nil
}

// Update writes the patched content and bumps updated_at
func (r *postgresCommentRepo) Update(ctx context.Context, tx uow.Tx, id string, patch comments.Patch) error {
	if !validUUID(id) {
		return comments.ErrNotFound
	}

	var content sql.NullString
	if v, ok := patch.Content(); ok {
		content = sql.NullString{String: v, Valid: true}
	}

	query := `
		UPDATE comments
		SET content = COALESCE($2, content),
		    updated_at = NOW()
		WHERE id = $1
	`
	result, err := conn(r.db, tx).ExecContext(ctx, query, id, content)
	if err != nil {
		return fmt.Errorf("failed to update comment: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if rows == 0 {
		return comments.ErrNotFound
	}
	return nil
}

// Delete removes the comment; replies cascade through parent_comment_id
func (r *postgresCommentRepo) Delete(ctx context.Context, tx uow.Tx, id string) error {
	if !validUUID(id) {
		return comments.ErrNotFound
	}
	result, err := conn(r.db, tx).ExecContext(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if rows == 0 {
		return comments.ErrNotFound
	}
	return nil
}

// LockSubtree walks the reply tree below id, root first, and locks every row
// FOR UPDATE. A reply's foreign key check blocks on a locked parent, so the
// walk repeats until a pass finds no reply committed since the previous one.
func (r *postgresCommentRepo) LockSubtree(ctx context.Context, tx uow.Tx, id string) ([]string, error) {
	if !validUUID(id) {
		return nil, nil
	}
	query := `
		WITH RECURSIVE subtree AS (
			SELECT id, 0 AS depth FROM comments WHERE id = $1
			UNION ALL
			SELECT c.id, s.depth + 1
			FROM comments c
			JOIN subtree s ON c.parent_comment_id = s.id
		)
		SELECT c.id FROM comments c
		JOIN subtree s ON s.id = c.id
		ORDER BY s.depth, c.id
		FOR UPDATE OF c
	`
	var locked []string
	for {
		ids, err := queryIDs(ctx, conn(r.db, tx), query, id)
		if err != nil {
			return nil, fmt.Errorf("failed to lock comment subtree: %w", err)
		}
		if len(ids) == len(locked) && slices.Equal(ids, locked) {
			return ids, nil
		}
		locked = ids
	}
}

// IDsByPost returns the ids of all comments on a post.
// The post row is locked first so no comment can be added until tx ends.
func (r *postgresCommentRepo) IDsByPost(ctx context.Context, tx uow.Tx, postID string) ([]string, error) {
	if !validUUID(postID) {
		return nil, nil
	}
	q := conn(r.db, tx)
	if _, err := q.ExecContext(ctx, `SELECT 1 FROM posts WHERE id = $1 FOR UPDATE`, postID); err != nil {
		return nil, fmt.Errorf("failed to lock post: %w", err)
	}
	return queryIDs(ctx, q, `SELECT id FROM comments WHERE post_id = $1 ORDER BY created_at`, postID)
}

// IDsByAuthor returns the ids of all comments written by authorID, oldest first
func (r *postgresCommentRepo) IDsByAuthor(ctx context.Context, tx uow.Tx, authorID string) ([]string, error) {
	if !validUUID(authorID) {
		return nil, nil
	}
	return queryIDs(ctx, conn(r.db, tx), `SELECT id FROM comments WHERE author_id = $1 ORDER BY created_at`, authorID)
}

// List returns one page of comments and the total number of matches
func (r *postgresCommentRepo) List(ctx context.Context, filter comments.Filter) ([]*comments.Comment, int, error) {
	var where []string
	var args []any

	for _, f := range []struct {
		value  string
		column string
	}{
		{filter.ID, "c.id"},
		{filter.AuthorID, "c.author_id"},
		{filter.PostID, "c.post_id"},
	} {
		if f.value == "" {
			continue
		}
		if !validUUID(f.value) {
			return []*comments.Comment{}, 0, nil
		}
		args = append(args, f.value)
		where = append(where, fmt.Sprintf("%s = $%d", f.column, len(args)))
	}

	if filter.ID == "" {
		if filter.ParentCommentID == nil {
			where = append(where, "c.parent_comment_id IS NULL")
		} else {
			if !validUUID(*filter.ParentCommentID) {
				return []*comments.Comment{}, 0, nil
			}
			args = append(args, *filter.ParentCommentID)
			where = append(where, fmt.Sprintf("c.parent_comment_id = $%d", len(args)))
		}
	}

	if tsQuery := listing.PrefixTSQuery(filter.Search); tsQuery != "" {
		args = append(args, tsQuery)
		where = append(where, fmt.Sprintf(`(
			setweight(to_tsvector('english', c.content), 'A') ||
			setweight(to_tsvector('english', coalesce(u.username, '')), 'B')
		) @@ to_tsquery('english', $%d)`, len(args)))
	}

	whereClause := ""
	if len(where) > 0 {
		whereClause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM comments c JOIN users u ON u.id = c.author_id` + whereClause
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count comments: %w", err)
	}

	column, ok := comments.SortColumns[filter.SortBy]
	if !ok {
		column = comments.SortColumns[comments.DefaultSort]
	}
	order := "DESC"
	if filter.SortOrder == listing.Asc {
		order = "ASC"
	}

	args = append(args, filter.Limit, filter.Offset())
	query := commentSelect + whereClause +
		fmt.Sprintf(" ORDER BY c.%s %s, c.id %s LIMIT $%d OFFSET $%d", column, order, order, len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list comments: %w", err)
	}
	defer closeRows(rows)

	result := []*comments.Comment{}
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan comment: %w", err)
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating comments: %w", err)
	}
	return result, total, nil
}

// Exists implements parents.Target
func (r *postgresCommentRepo) Exists(ctx context.Context, tx uow.Tx, id string) (bool, error) {
	return rowExists(ctx, conn(r.db, tx), "comments", id)
}

// Increment implements parents.Target
func (r *postgresCommentRepo) Increment(ctx context.Context, tx uow.Tx, id string, counter parents.Counter, delta int) error {
	return incrementCounter(ctx, conn(r.db, tx), "comments", commentCounterColumns, id, counter, delta)
}
