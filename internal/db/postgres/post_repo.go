package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"Inkwell/internal/core/apperr"
	"Inkwell/internal/core/listing"
	"Inkwell/internal/core/parents"
	"Inkwell/internal/core/posts"
	"Inkwell/internal/core/uow"
)

type postgresPostRepo struct {
	db *sql.DB
}

// NewPostRepository creates a new PostgreSQL post repository
func NewPostRepository(db *sql.DB) posts.Repository {
	return &postgresPostRepo{db: db}
}

const postSelect = `
	SELECT
		p.id, p.author_id, u.username, p.title, p.content,
		p.views_count, p.likes_count, p.dislikes_count, p.comments_count,
		p.created_at, p.updated_at
	FROM posts p
	JOIN users u ON u.id = p.author_id
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (*posts.Post, error) {
	var post posts.Post
	var author posts.Author
	err := row.Scan(
		&post.ID, &post.AuthorID, &author.Username, &post.Title, &post.Content,
		&post.ViewsCount, &post.LikesCount, &post.DislikesCount, &post.CommentsCount,
		&post.CreatedAt, &post.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	author.ID = post.AuthorID
	post.Author = &author
	return &post, nil
}

// Create inserts a new post into the posts table
func (r *postgresPostRepo) Create(ctx context.Context, tx uow.Tx, post *posts.Post) error {
	query := `
		INSERT INTO posts (author_id, title, content)
		VALUES ($1, $2, $3)
		RETURNING id, views_count, likes_count, dislikes_count, comments_count, created_at, updated_at
	`

	err := conn(r.db, tx).QueryRowContext(ctx, query, post.AuthorID, post.Title, post.Content).Scan(
		&post.ID, &post.ViewsCount, &post.LikesCount, &post.DislikesCount, &post.CommentsCount,
		&post.CreatedAt, &post.UpdatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperr.NewNotFoundError("user", post.AuthorID)
		}
		return fmt.Errorf("failed to insert post: %w", err)
	}
	return nil
}

// GetByID retrieves a post with its author
func (r *postgresPostRepo) GetByID(ctx context.Context, tx uow.Tx, id string) (*posts.Post, error) {
	if !validUUID(id) {
		return nil, posts.ErrNotFound
	}

	post, err := scanPost(conn(r.db, tx).QueryRowContext(ctx, postSelect+` WHERE p.id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, posts.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get post: %w", err)
	}
	return post, nil
}

// Update writes the patched fields and bumps updated_at
func (r *postgresPostRepo) Update(ctx context.Context, tx uow.Tx, id string, patch posts.Patch) error {
	if !validUUID(id) {
		return posts.ErrNotFound
	}

	var title, content sql.NullString
	if v, ok := patch.Title(); ok {
		title = sql.NullString{String: v, Valid: true}
	}
	if v, ok := patch.Content(); ok {
		content = sql.NullString{String: v, Valid: true}
	}

	query := `
		UPDATE posts
		SET title = COALESCE($2, title),
		    content = COALESCE($3, content),
		    updated_at = NOW()
		WHERE id = $1
	`
	result, err := conn(r.db, tx).ExecContext(ctx, query, id, title, content)
	if err != nil {
		return fmt.Errorf("failed to update post: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if rows == 0 {
		return posts.ErrNotFound
	}
	return nil
}

// Delete removes the post; comments, attachments and reactions cascade
func (r *postgresPostRepo) Delete(ctx context.Context, tx uow.Tx, id string) error {
	if !validUUID(id) {
		return posts.ErrNotFound
	}
	result, err := conn(r.db, tx).ExecContext(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if rows == 0 {
		return posts.ErrNotFound
	}
	return nil
}

// List returns one page of posts and the total number of matches
func (r *postgresPostRepo) List(ctx context.Context, filter posts.Filter) ([]*posts.Post, int, error) {
	var where []string
	var args []any

	if filter.ID != "" {
		if !validUUID(filter.ID) {
			return []*posts.Post{}, 0, nil
		}
		args = append(args, filter.ID)
		where = append(where, fmt.Sprintf("p.id = $%d", len(args)))
	}
	if filter.AuthorID != "" {
		if !validUUID(filter.AuthorID) {
			return []*posts.Post{}, 0, nil
		}
		args = append(args, filter.AuthorID)
		where = append(where, fmt.Sprintf("p.author_id = $%d", len(args)))
	}
	if tsQuery := listing.PrefixTSQuery(filter.Search); tsQuery != "" {
		args = append(args, tsQuery)
		where = append(where, fmt.Sprintf(`(
			setweight(to_tsvector('english', p.title), 'A') ||
			setweight(to_tsvector('english', p.content), 'B') ||
			setweight(to_tsvector('english', coalesce(u.username, '')), 'C')
		) @@ to_tsquery('english', $%d)`, len(args)))
	}

	whereClause := ""
	if len(where) > 0 {
		whereClause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM posts p JOIN users u ON u.id = p.author_id` + whereClause
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count posts: %w", err)
	}

	column, ok := posts.SortColumns[filter.SortBy]
	if !ok {
		column = posts.SortColumns[posts.DefaultSort]
	}
	order := "DESC"
	if filter.SortOrder == listing.Asc {
		order = "ASC"
	}

	args = append(args, filter.Limit, filter.Offset())
	query := postSelect + whereClause +
		fmt.Sprintf(" ORDER BY p.%s %s, p.id %s LIMIT $%d OFFSET $%d", column, order, order, len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list posts: %w", err)
	}
	defer closeRows(rows)

	result := []*posts.Post{}
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan post: %w", err)
		}
		result = append(result, post)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating posts: %w", err)
	}
	return result, total, nil
}

// IDsByAuthor returns the ids of every post written by authorID
func (r *postgresPostRepo) IDsByAuthor(ctx context.Context, tx uow.Tx, authorID string) ([]string, error) {
	if !validUUID(authorID) {
		return nil, nil
	}
	return queryIDs(ctx, conn(r.db, tx), `SELECT id FROM posts WHERE author_id = $1 ORDER BY created_at`, authorID)
}

// Exists implements parents.Target
func (r *postgresPostRepo) Exists(ctx context.Context, tx uow.Tx, id string) (bool, error) {
	return rowExists(ctx, conn(r.db, tx), "posts", id)
}

// Increment implements parents.Target
func (r *postgresPostRepo) Increment(ctx context.Context, tx uow.Tx, id string, counter parents.Counter, delta int) error {
	return incrementCounter(ctx, conn(r.db, tx), "posts", postCounterColumns, id, counter, delta)
}

func queryIDs(ctx context.Context, q dbtx, query string, args ...any) ([]string, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query ids: %w", err)
	}
	defer closeRows(rows)

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ids: %w", err)
	}
	return ids, nil
}
