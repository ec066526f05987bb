package attachments

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"Inkwell/internal/core/apperr"
	"Inkwell/internal/core/media"
	"Inkwell/internal/core/parents"
	"Inkwell/internal/core/uow"
)

// maxConcurrentTransfers bounds the remote calls in flight for one batch
const maxConcurrentTransfers = 8

type manager struct {
	repo   Repository
	store  media.Store
	logger *slog.Logger
}

// NewManager creates an attachment manager.
// If logger is nil, slog.Default() is used.
func NewManager(repo Repository, store media.Store, logger *slog.Logger) Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &manager{repo: repo, store: store, logger: logger}
}

func (m *manager) Create(ctx context.Context, tx uow.Tx, ref parents.Ref, in CreateInput) (*Attachment, error) {
	created, err := m.CreateMany(ctx, tx, ref, []CreateInput{in})
	if err != nil {
		return nil, err
	}
	return created[0], nil
}

func (m *manager) CreateMany(ctx context.Context, tx uow.Tx, ref parents.Ref, inputs []CreateInput) ([]*Attachment, error) {
	if len(inputs) == 0 {
		return nil, nil
	}

	payloads := make([][]byte, len(inputs))
	for i, in := range inputs {
		if err := in.Validate(); err != nil {
			return nil, err
		}
		data, err := media.DecodeContent(in.Content)
		if err != nil {
			return nil, apperr.NewValidationError("fileContent", err.Error())
		}
		payloads[i] = data
	}

	locators := make([]*media.Locator, len(payloads))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentTransfers)
	for i, data := range payloads {
		g.Go(func() error {
			loc, err := m.store.Upload(gctx, data)
			if err != nil {
				return err
			}
			locators[i] = loc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		m.discardUploads(ctx, ref, locators)
		if !media.IsUploadError(err) {
			err = &media.UploadError{Err: err}
		}
		return nil, err
	}

	created := make([]*Attachment, 0, len(inputs))
	for i, in := range inputs {
		a := &Attachment{
			ParentKind:  ref.Kind,
			ParentID:    ref.ID,
			URL:         locators[i].URL,
			PublicID:    locators[i].PublicID,
			Description: in.Description,
		}
		if err := m.repo.Create(ctx, tx, a); err != nil {
			m.discardUploads(ctx, ref, locators)
			return nil, fmt.Errorf("failed to save attachment for %s: %w", ref, err)
		}
		created = append(created, a)
	}

	return created, nil
}

// discardUploads removes blobs uploaded by a batch that will not be persisted.
// Failures are logged only; the blobs are leaked.
func (m *manager) discardUploads(ctx context.Context, ref parents.Ref, locators []*media.Locator) {
	ctx = context.WithoutCancel(ctx)
	for _, loc := range locators {
		if loc == nil {
			continue
		}
		if err := m.store.Delete(ctx, loc.PublicID); err != nil {
			m.logger.Error("failed to discard uploaded blob",
				"error", err, "parent", ref.String(), "public_id", loc.PublicID)
		}
	}
}

func (m *manager) Update(ctx context.Context, tx uow.Tx, ref parents.Ref, in UpdateInput) (*Attachment, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	existing, err := m.repo.GetForParent(ctx, tx, ref, in.ID)
	if errors.Is(err, ErrAttachmentNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load attachment %s: %w", in.ID, err)
	}

	if in.Delete {
		return nil, m.deleteAll(ctx, tx, []*Attachment{existing})
	}

	description := existing.Description
	if in.Description != nil {
		description = in.Description
	}
	updated, err := m.repo.UpdateDescription(ctx, tx, ref, existing.ID, description)
	if err != nil {
		return nil, fmt.Errorf("failed to update attachment %s: %w", existing.ID, err)
	}
	return updated, nil
}

func (m *manager) Delete(ctx context.Context, tx uow.Tx, ref parents.Ref, id string) error {
	return m.DeleteMany(ctx, tx, ref, []string{id})
}

func (m *manager) DeleteMany(ctx context.Context, tx uow.Tx, ref parents.Ref, ids []string) error {
	targets := make([]*Attachment, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true

		a, err := m.repo.GetForParent(ctx, tx, ref, id)
		if errors.Is(err, ErrAttachmentNotFound) {
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to load attachment %s: %w", id, err)
		}
		targets = append(targets, a)
	}
	return m.deleteAll(ctx, tx, targets)
}

func (m *manager) DeleteAllForParents(ctx context.Context, tx uow.Tx, refs []parents.Ref) error {
	byKind := make(map[parents.Kind][]string)
	for _, ref := range refs {
		byKind[ref.Kind] = append(byKind[ref.Kind], ref.ID)
	}

	var targets []*Attachment
	for _, kind := range []parents.Kind{parents.KindPost, parents.KindComment} {
		ids := byKind[kind]
		if len(ids) == 0 {
			continue
		}
		found, err := m.repo.ListByParents(ctx, tx, kind, ids)
		if err != nil {
			return fmt.Errorf("failed to list %s attachments: %w", kind, err)
		}
		targets = append(targets, found...)
	}
	return m.deleteAll(ctx, tx, targets)
}

// deleteAll deletes every remote blob concurrently, and only when all of them
// are confirmed gone removes the rows.
func (m *manager) deleteAll(ctx context.Context, tx uow.Tx, targets []*Attachment) error {
	if len(targets) == 0 {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentTransfers)
	for _, a := range targets {
		g.Go(func() error {
			return m.deleteRemote(gctx, a)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, a := range targets {
		if err := m.repo.Delete(ctx, tx, a.Parent(), a.ID); err != nil {
			return fmt.Errorf("failed to delete attachment row %s: %w", a.ID, err)
		}
	}
	return nil
}

func (m *manager) deleteRemote(ctx context.Context, a *Attachment) error {
	var err error
	if a.PublicID != "" {
		err = m.store.Delete(ctx, a.PublicID)
	} else {
		err = media.DeleteByURL(ctx, m.store, a.URL)
	}
	if err != nil {
		m.logger.Error("failed to delete attachment blob",
			"error", err, "attachment_id", a.ID, "parent", a.Parent().String())
		return &AttachmentDeletionError{AttachmentID: a.ID, Err: err}
	}
	return nil
}

func (m *manager) FindByParent(ctx context.Context, tx uow.Tx, ref parents.Ref) ([]*Attachment, error) {
	list, err := m.repo.ListByParent(ctx, tx, ref)
	if err != nil {
		return nil, fmt.Errorf("failed to list attachments for %s: %w", ref, err)
	}
	return list, nil
}
