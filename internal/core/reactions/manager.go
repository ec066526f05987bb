package reactions

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"Inkwell/internal/core/apperr"
	"Inkwell/internal/core/parents"
	"Inkwell/internal/core/uow"
)

type manager struct {
	repo    Repository
	targets parents.Targets
	logger  *slog.Logger
}

// NewManager creates a reaction manager.
// If logger is nil, slog.Default() is used.
func NewManager(repo Repository, targets parents.Targets, logger *slog.Logger) Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &manager{repo: repo, targets: targets, logger: logger}
}

// AddOrUpdate removes any prior reaction (undoing its counter) and then, unless
// t is nil, records the new one. Counters only move through atomic increments.
func (m *manager) AddOrUpdate(ctx context.Context, tx uow.Tx, ref parents.Ref, userID string, t *Type) (*Reaction, error) {
	if userID == "" {
		return nil, apperr.NewValidationError("userId", "user id is required")
	}
	if t != nil && !t.Valid() {
		return nil, apperr.NewValidationError("type", "must be LIKE, DISLIKE or null")
	}

	target, err := m.targets.For(ref.Kind)
	if err != nil {
		return nil, err
	}

	exists, err := target.Exists(ctx, tx, ref.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", ref, err)
	}
	if !exists {
		return nil, apperr.NewNotFoundError(string(ref.Kind), ref.ID)
	}

	existing, err := m.repo.Get(ctx, tx, ref, userID)
	switch {
	case errors.Is(err, ErrReactionNotFound):
		existing = nil
	case err != nil:
		return nil, fmt.Errorf("failed to look up reaction: %w", err)
	}

	if existing != nil {
		if err := m.repo.Delete(ctx, tx, ref, existing.ID); err != nil {
			// Another request by the same user replaced the row after our lookup
			if errors.Is(err, ErrReactionNotFound) {
				m.logger.Warn("concurrent reaction change detected",
					"parent", ref.String(), "user_id", userID)
				return nil, apperr.NewConflictError("reaction", "reaction changed concurrently, retry the request")
			}
			return nil, fmt.Errorf("failed to delete previous reaction: %w", err)
		}
		if err := target.Increment(ctx, tx, ref.ID, existing.Type.Counter(), -1); err != nil {
			return nil, fmt.Errorf("failed to decrement %s on %s: %w", existing.Type.Counter(), ref, err)
		}
	}

	if t == nil {
		return nil, nil
	}

	r := &Reaction{
		UserID:     userID,
		ParentKind: ref.Kind,
		ParentID:   ref.ID,
		Type:       *t,
	}
	if err := m.repo.Create(ctx, tx, r); err != nil {
		if apperr.IsConflict(err) {
			m.logger.Warn("concurrent reaction insert rejected",
				"parent", ref.String(), "user_id", userID)
			return nil, err
		}
		return nil, fmt.Errorf("failed to create reaction: %w", err)
	}
	if err := target.Increment(ctx, tx, ref.ID, t.Counter(), 1); err != nil {
		return nil, fmt.Errorf("failed to increment %s on %s: %w", t.Counter(), ref, err)
	}

	return r, nil
}

func (m *manager) RemoveAllForParent(ctx context.Context, tx uow.Tx, ref parents.Ref) error {
	return m.RemoveAllForParents(ctx, tx, ref.Kind, []string{ref.ID})
}

func (m *manager) RemoveAllForParents(ctx context.Context, tx uow.Tx, kind parents.Kind, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if !kind.Valid() {
		return fmt.Errorf("%w: %q", parents.ErrUnknownKind, kind)
	}
	removed, err := m.repo.DeleteAllForParents(ctx, tx, kind, ids)
	if err != nil {
		return fmt.Errorf("failed to remove %s reactions: %w", kind, err)
	}
	m.logger.Debug("removed reactions", "kind", string(kind), "parents", len(ids), "removed", removed)
	return nil
}
