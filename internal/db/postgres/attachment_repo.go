package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"Inkwell/internal/core/attachments"
	"Inkwell/internal/core/parents"
	"Inkwell/internal/core/uow"
)

type postgresAttachmentRepo struct {
	db *sql.DB
}

// NewAttachmentRepository creates a new PostgreSQL attachment repository.
// Post and comment attachments live in separate tables.
func NewAttachmentRepository(db *sql.DB) attachments.Repository {
	return &postgresAttachmentRepo{db: db}
}

type attachmentTable struct {
	name      string
	parentCol string
}

func attachmentTableFor(kind parents.Kind) (attachmentTable, error) {
	switch kind {
	case parents.KindPost:
		return attachmentTable{name: "post_attachments", parentCol: "post_id"}, nil
	case parents.KindComment:
		return attachmentTable{name: "comment_attachments", parentCol: "comment_id"}, nil
	default:
		return attachmentTable{}, fmt.Errorf("%w: %q", parents.ErrUnknownKind, kind)
	}
}

func (t attachmentTable) selectClause() string {
	return fmt.Sprintf(`SELECT id, %s, url, public_id, description, created_at, updated_at FROM %s`, t.parentCol, t.name)
}

func scanAttachment(row rowScanner, kind parents.Kind) (*attachments.Attachment, error) {
	a := attachments.Attachment{ParentKind: kind}
	var description sql.NullString
	if err := row.Scan(&a.ID, &a.ParentID, &a.URL, &a.PublicID, &description, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	if description.Valid {
		a.Description = &description.String
	}
	return &a, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// Create inserts the attachment row
func (r *postgresAttachmentRepo) Create(ctx context.Context, tx uow.Tx, a *attachments.Attachment) error {
	table, err := attachmentTableFor(a.ParentKind)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (%s, url, public_id, description)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`, table.name, table.parentCol)

	err = conn(r.db, tx).QueryRowContext(ctx, query, a.ParentID, a.URL, a.PublicID, nullString(a.Description)).
		Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert attachment: %w", err)
	}
	return nil
}

// GetForParent retrieves an attachment only if it belongs to ref
func (r *postgresAttachmentRepo) GetForParent(ctx context.Context, tx uow.Tx, ref parents.Ref, id string) (*attachments.Attachment, error) {
	table, err := attachmentTableFor(ref.Kind)
	if err != nil {
		return nil, err
	}
	if !validUUID(id) || !validUUID(ref.ID) {
		return nil, attachments.ErrAttachmentNotFound
	}

	query := table.selectClause() + fmt.Sprintf(` WHERE id = $1 AND %s = $2`, table.parentCol)
	a, err := scanAttachment(conn(r.db, tx).QueryRowContext(ctx, query, id, ref.ID), ref.Kind)
	if err == sql.ErrNoRows {
		return nil, attachments.ErrAttachmentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get attachment: %w", err)
	}
	return a, nil
}

// UpdateDescription sets the description of an attachment owned by ref
func (r *postgresAttachmentRepo) UpdateDescription(ctx context.Context, tx uow.Tx, ref parents.Ref, id string, description *string) (*attachments.Attachment, error) {
	table, err := attachmentTableFor(ref.Kind)
	if err != nil {
		return nil, err
	}
	if !validUUID(id) || !validUUID(ref.ID) {
		return nil, attachments.ErrAttachmentNotFound
	}

	query := fmt.Sprintf(`
		UPDATE %s SET description = $3, updated_at = NOW()
		WHERE id = $1 AND %s = $2
		RETURNING id, %s, url, public_id, description, created_at, updated_at
	`, table.name, table.parentCol, table.parentCol)

	a, err := scanAttachment(conn(r.db, tx).QueryRowContext(ctx, query, id, ref.ID, nullString(description)), ref.Kind)
	if err == sql.ErrNoRows {
		return nil, attachments.ErrAttachmentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update attachment: %w", err)
	}
	return a, nil
}

// Delete removes an attachment row owned by ref
func (r *postgresAttachmentRepo) Delete(ctx context.Context, tx uow.Tx, ref parents.Ref, id string) error {
	table, err := attachmentTableFor(ref.Kind)
	if err != nil {
		return err
	}
	if !validUUID(id) || !validUUID(ref.ID) {
		return attachments.ErrAttachmentNotFound
	}

	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1 AND %s = $2`, table.name, table.parentCol)
	result, err := conn(r.db, tx).ExecContext(ctx, query, id, ref.ID)
	if err != nil {
		return fmt.Errorf("failed to delete attachment: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if rows == 0 {
		return attachments.ErrAttachmentNotFound
	}
	return nil
}

// ListByParent returns the attachments of one parent, oldest first
func (r *postgresAttachmentRepo) ListByParent(ctx context.Context, tx uow.Tx, ref parents.Ref) ([]*attachments.Attachment, error) {
	return r.ListByParents(ctx, tx, ref.Kind, []string{ref.ID})
}

// ListByParents returns the attachments of many parents of one kind
func (r *postgresAttachmentRepo) ListByParents(ctx context.Context, tx uow.Tx, kind parents.Kind, ids []string) ([]*attachments.Attachment, error) {
	table, err := attachmentTableFor(kind)
	if err != nil {
		return nil, err
	}
	ids = validUUIDs(ids)
	if len(ids) == 0 {
		return []*attachments.Attachment{}, nil
	}

	query := table.selectClause() + fmt.Sprintf(` WHERE %s = ANY($1) ORDER BY created_at, id`, table.parentCol)
	rows, err := conn(r.db, tx).QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to list attachments: %w", err)
	}
	defer closeRows(rows)

	result := []*attachments.Attachment{}
	for rows.Next() {
		a, err := scanAttachment(rows, kind)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attachment: %w", err)
		}
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating attachments: %w", err)
	}
	return result, nil
}
