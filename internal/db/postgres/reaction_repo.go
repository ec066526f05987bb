package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"Inkwell/internal/core/apperr"
	"Inkwell/internal/core/parents"
	"Inkwell/internal/core/reactions"
	"Inkwell/internal/core/uow"
)

type postgresReactionRepo struct {
	db *sql.DB
}

// NewReactionRepository creates a new PostgreSQL reaction repository
func NewReactionRepository(db *sql.DB) reactions.Repository {
	return &postgresReactionRepo{db: db}
}

type reactionTable struct {
	name      string
	parentCol string
}

func reactionTableFor(kind parents.Kind) (reactionTable, error) {
	switch kind {
	case parents.KindPost:
		return reactionTable{name: "post_reactions", parentCol: "post_id"}, nil
	case parents.KindComment:
		return reactionTable{name: "comment_reactions", parentCol: "comment_id"}, nil
	default:
		return reactionTable{}, fmt.Errorf("%w: %q", parents.ErrUnknownKind, kind)
	}
}

// Get retrieves the user's reaction on ref
func (r *postgresReactionRepo) Get(ctx context.Context, tx uow.Tx, ref parents.Ref, userID string) (*reactions.Reaction, error) {
	table, err := reactionTableFor(ref.Kind)
	if err != nil {
		return nil, err
	}
	if !validUUID(ref.ID) || !validUUID(userID) {
		return nil, reactions.ErrReactionNotFound
	}

	query := fmt.Sprintf(`
		SELECT id, user_id, %s, type, created_at
		FROM %s
		WHERE user_id = $1 AND %s = $2
	`, table.parentCol, table.name, table.parentCol)

	reaction := reactions.Reaction{ParentKind: ref.Kind}
	var reactionType string
	err = conn(r.db, tx).QueryRowContext(ctx, query, userID, ref.ID).Scan(
		&reaction.ID, &reaction.UserID, &reaction.ParentID, &reactionType, &reaction.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, reactions.ErrReactionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get reaction: %w", err)
	}
	reaction.Type = reactions.Type(reactionType)
	return &reaction, nil
}

// Create inserts a reaction. A second row for the same (user, parent) is a conflict.
func (r *postgresReactionRepo) Create(ctx context.Context, tx uow.Tx, reaction *reactions.Reaction) error {
	table, err := reactionTableFor(reaction.ParentKind)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (user_id, %s, type)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`, table.name, table.parentCol)

	err = conn(r.db, tx).QueryRowContext(ctx, query, reaction.UserID, reaction.ParentID, string(reaction.Type)).
		Scan(&reaction.ID, &reaction.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return apperr.NewConflictError("reaction",
				fmt.Sprintf("user already reacted on %s %s (constraint %s)", reaction.ParentKind, reaction.ParentID, constraintName(err)))
		}
		return fmt.Errorf("failed to insert reaction: %w", err)
	}
	return nil
}

// Delete removes one reaction of ref
func (r *postgresReactionRepo) Delete(ctx context.Context, tx uow.Tx, ref parents.Ref, id string) error {
	table, err := reactionTableFor(ref.Kind)
	if err != nil {
		return err
	}
	if !validUUID(id) {
		return reactions.ErrReactionNotFound
	}

	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1 AND %s = $2`, table.name, table.parentCol)
	result, err := conn(r.db, tx).ExecContext(ctx, query, id, ref.ID)
	if err != nil {
		return fmt.Errorf("failed to delete reaction: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if rows == 0 {
		return reactions.ErrReactionNotFound
	}
	return nil
}

// DeleteAllForParents removes every reaction on the given parents
func (r *postgresReactionRepo) DeleteAllForParents(ctx context.Context, tx uow.Tx, kind parents.Kind, ids []string) (int64, error) {
	table, err := reactionTableFor(kind)
	if err != nil {
		return 0, err
	}
	ids = validUUIDs(ids)
	if len(ids) == 0 {
		return 0, nil
	}

	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = ANY($1)`, table.name, table.parentCol)
	result, err := conn(r.db, tx).ExecContext(ctx, query, pq.Array(ids))
	if err != nil {
		return 0, fmt.Errorf("failed to delete reactions: %w", err)
	}
	return result.RowsAffected()
}

// ListByUser returns every reaction the user has left
func (r *postgresReactionRepo) ListByUser(ctx context.Context, tx uow.Tx, userID string) ([]*reactions.Reaction, error) {
	if !validUUID(userID) {
		return nil, nil
	}

	query := `
		SELECT id, user_id, 'post' AS kind, post_id AS parent_id, type, created_at
		FROM post_reactions WHERE user_id = $1
		UNION ALL
		SELECT id, user_id, 'comment' AS kind, comment_id AS parent_id, type, created_at
		FROM comment_reactions WHERE user_id = $1
		ORDER BY created_at
	`
	rows, err := conn(r.db, tx).QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reactions: %w", err)
	}
	defer closeRows(rows)

	var result []*reactions.Reaction
	for rows.Next() {
		var reaction reactions.Reaction
		var kind, reactionType string
		if err := rows.Scan(&reaction.ID, &reaction.UserID, &kind, &reaction.ParentID, &reactionType, &reaction.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan reaction: %w", err)
		}
		reaction.ParentKind = parents.Kind(kind)
		reaction.Type = reactions.Type(reactionType)
		result = append(result, &reaction)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reactions: %w", err)
	}
	return result, nil
}
