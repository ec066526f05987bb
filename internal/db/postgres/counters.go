package postgres

import (
	"context"
	"fmt"

	"Inkwell/internal/core/parents"
)

var postCounterColumns = map[parents.Counter]string{
	parents.CounterLikes:    "likes_count",
	parents.CounterDislikes: "dislikes_count",
	parents.CounterViews:    "views_count",
	parents.CounterComments: "comments_count",
}

var commentCounterColumns = map[parents.Counter]string{
	parents.CounterLikes:    "likes_count",
	parents.CounterDislikes: "dislikes_count",
}

// incrementCounter adds delta to one counter column in a single statement.
// The column name comes from the whitelist, never from input.
func incrementCounter(ctx context.Context, q dbtx, table string, columns map[parents.Counter]string, id string, counter parents.Counter, delta int) error {
	column, ok := columns[counter]
	if !ok {
		return fmt.Errorf("%w: %s on %s", parents.ErrUnsupportedCounter, counter, table)
	}
	if !validUUID(id) {
		return fmt.Errorf("%s row %s not found", table, id)
	}

	query := fmt.Sprintf(`UPDATE %s SET %s = %s + $1 WHERE id = $2`, table, column, column)
	result, err := q.ExecContext(ctx, query, delta, id)
	if err != nil {
		if pqCode(err) == codeCheckViolation {
			return fmt.Errorf("%s.%s would become negative for %s: %w", table, column, id, err)
		}
		return fmt.Errorf("failed to update %s.%s: %w", table, column, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check counter update: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%s row %s not found", table, id)
	}
	return nil
}

func rowExists(ctx context.Context, q dbtx, table, id string) (bool, error) {
	if !validUUID(id) {
		return false, nil
	}
	var exists bool
	query := fmt.Sprintf(`SELECT EXISTS(SELECT 1 FROM %s WHERE id = $1)`, table)
	if err := q.QueryRowContext(ctx, query, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check %s existence: %w", table, err)
	}
	return exists, nil
}
