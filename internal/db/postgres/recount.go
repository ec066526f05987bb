package postgres

import (
	"context"
	"fmt"

	"Inkwell/internal/core/uow"
)

// RecountResult reports how many rows had a counter that disagreed with the reaction
// and comment tables
type RecountResult struct {
	Posts    int64
	Comments int64
}

// recountStatements rewrite derived counters from source rows.
// Only rows whose stored value drifted are touched.
var recountStatements = []struct {
	table string
	query string
}{
	{
		table: "posts",
		query: `
			UPDATE posts p SET
				likes_count = c.likes,
				dislikes_count = c.dislikes,
				comments_count = c.comments
			FROM (
				SELECT p2.id,
					(SELECT COUNT(*) FROM post_reactions r WHERE r.post_id = p2.id AND r.type = 'LIKE') AS likes,
					(SELECT COUNT(*) FROM post_reactions r WHERE r.post_id = p2.id AND r.type = 'DISLIKE') AS dislikes,
					(SELECT COUNT(*) FROM comments cm WHERE cm.post_id = p2.id) AS comments
				FROM posts p2
			) c
			WHERE p.id = c.id
			  AND (p.likes_count <> c.likes OR p.dislikes_count <> c.dislikes OR p.comments_count <> c.comments)`,
	},
	{
		table: "comments",
		query: `
			UPDATE comments cm SET
				likes_count = c.likes,
				dislikes_count = c.dislikes
			FROM (
				SELECT c2.id,
					(SELECT COUNT(*) FROM comment_reactions r WHERE r.comment_id = c2.id AND r.type = 'LIKE') AS likes,
					(SELECT COUNT(*) FROM comment_reactions r WHERE r.comment_id = c2.id AND r.type = 'DISLIKE') AS dislikes
				FROM comments c2
			) c
			WHERE cm.id = c.id
			  AND (cm.likes_count <> c.likes OR cm.dislikes_count <> c.dislikes)`,
	},
}

// RecountCounters recomputes likes, dislikes and comment counters from the source rows
// inside tx. Views have no source rows and are left alone.
func (m *TxManager) RecountCounters(ctx context.Context, tx uow.Tx) (RecountResult, error) {
	var result RecountResult
	q := conn(m.db, tx)

	for _, stmt := range recountStatements {
		res, err := q.ExecContext(ctx, stmt.query)
		if err != nil {
			return result, fmt.Errorf("failed to recount %s: %w", stmt.table, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return result, fmt.Errorf("failed to read recount result for %s: %w", stmt.table, err)
		}
		switch stmt.table {
		case "posts":
			result.Posts = n
		case "comments":
			result.Comments = n
		}
	}
	return result, nil
}
