package reactions

import (
	"context"
	"fmt"

	"Inkwell/internal/core/apperr"
	"Inkwell/internal/core/uow"
)

// UserRetractor withdraws all reactions of a user before the account is removed,
// so the counters of the reacted parents stay accurate.
type UserRetractor struct {
	txm     uow.Manager
	repo    Repository
	manager Manager
}

// NewUserRetractor creates a retractor
func NewUserRetractor(txm uow.Manager, repo Repository, manager Manager) *UserRetractor {
	return &UserRetractor{txm: txm, repo: repo, manager: manager}
}

// RemoveAllByAuthor retracts every reaction of userID in one unit of work
func (r *UserRetractor) RemoveAllByAuthor(ctx context.Context, userID string) error {
	return r.txm.WithinTx(ctx, func(ctx context.Context, tx uow.Tx) error {
		list, err := r.repo.ListByUser(ctx, tx, userID)
		if err != nil {
			return fmt.Errorf("failed to list reactions of user: %w", err)
		}
		for _, existing := range list {
			if _, err := r.manager.AddOrUpdate(ctx, tx, existing.Parent(), userID, nil); err != nil && !apperr.IsNotFound(err) {
				return err
			}
		}
		return nil
	})
}
