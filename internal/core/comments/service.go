package comments

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"Inkwell/internal/core/apperr"
	"Inkwell/internal/core/attachments"
	"Inkwell/internal/core/listing"
	"Inkwell/internal/core/parents"
	"Inkwell/internal/core/reactions"
	"Inkwell/internal/core/uow"
)

type commentService struct {
	txm         uow.Manager
	repo        Repository
	posts       parents.Target
	loader      AttachmentLoader
	attachments attachments.Manager
	reactions   reactions.Manager
	logger      *slog.Logger
}

// NewService creates a new comment service.
// posts resolves the commented post and maintains its comment counter.
// If logger is nil, slog.Default() is used.
func NewService(
	txm uow.Manager,
	repo Repository,
	posts parents.Target,
	loader AttachmentLoader,
	attachmentManager attachments.Manager,
	reactionManager reactions.Manager,
	logger *slog.Logger,
) Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &commentService{
		txm:         txm,
		repo:        repo,
		posts:       posts,
		loader:      loader,
		attachments: attachmentManager,
		reactions:   reactionManager,
		logger:      logger,
	}
}

// Create inserts the comment, uploads its attachments and bumps the post's
// comment counter as one unit.
func (s *commentService) Create(ctx context.Context, authorID string, req CreateRequest) (*Comment, error) {
	if authorID == "" {
		return nil, apperr.NewValidationError("authorId", "author is required")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	parentID := NormalizeParentID(req.ParentCommentID)

	var created *Comment
	err := s.txm.WithinTx(ctx, func(ctx context.Context, tx uow.Tx) error {
		exists, err := s.posts.Exists(ctx, tx, req.PostID)
		if err != nil {
			return fmt.Errorf("failed to resolve post: %w", err)
		}
		if !exists {
			return apperr.NewNotFoundError("post", req.PostID)
		}

		if parentID != nil {
			parent, err := s.repo.GetByID(ctx, tx, *parentID)
			if errors.Is(err, ErrNotFound) {
				return apperr.NewNotFoundError("comment", *parentID)
			}
			if err != nil {
				return fmt.Errorf("failed to resolve parent comment: %w", err)
			}
			if parent.PostID != req.PostID {
				return apperr.NewValidationError("parentCommentId", ErrParentPostMismatch.Error())
			}
		}

		c := &Comment{
			AuthorID:        authorID,
			PostID:          req.PostID,
			ParentCommentID: parentID,
			Content:         req.Content,
		}
		if err := s.repo.Create(ctx, tx, c); err != nil {
			return fmt.Errorf("failed to insert comment: %w", err)
		}

		saved, err := s.attachments.CreateMany(ctx, tx, parents.Comment(c.ID), req.Attachments)
		if err != nil {
			return err
		}
		c.Attachments = nonNil(saved)

		if err := s.posts.Increment(ctx, tx, req.PostID, parents.CounterComments, 1); err != nil {
			return fmt.Errorf("failed to bump comment count: %w", err)
		}

		created = c
		return nil
	})
	if err != nil {
		if !apperr.IsNotFound(err) && !apperr.IsValidationError(err) {
			s.logger.Error("failed to create comment", "error", err, "post_id", req.PostID, "author_id", authorID)
		}
		return nil, apperr.AtBoundary("create comment", err)
	}

	return created, nil
}

// Update applies attachment changes in the order new, updated, deleted, then
// writes the content patch and returns the comment as persisted.
func (s *commentService) Update(ctx context.Context, id, currentUserID string, req UpdateRequest) (*Comment, error) {
	patch, err := NewPatch(req)
	if err != nil {
		return nil, err
	}

	var updated *Comment
	err = s.txm.WithinTx(ctx, func(ctx context.Context, tx uow.Tx) error {
		c, err := s.loadOwned(ctx, tx, id, currentUserID)
		if err != nil {
			return err
		}
		ref := parents.Comment(c.ID)

		if _, err := s.attachments.CreateMany(ctx, tx, ref, req.NewAttachments); err != nil {
			return err
		}
		for _, in := range req.UpdatedAttachments {
			if _, err := s.attachments.Update(ctx, tx, ref, in); err != nil {
				return err
			}
		}
		if err := s.attachments.DeleteMany(ctx, tx, ref, req.DeletedAttachmentIDs); err != nil {
			return err
		}

		current, err := s.attachments.FindByParent(ctx, tx, ref)
		if err != nil {
			return err
		}

		if err := s.repo.Update(ctx, tx, c.ID, patch); err != nil {
			return fmt.Errorf("failed to save comment: %w", err)
		}

		fresh, err := s.repo.GetByID(ctx, tx, c.ID)
		if err != nil {
			return fmt.Errorf("failed to reload comment: %w", err)
		}
		fresh.Attachments = nonNil(current)
		updated = fresh
		return nil
	})
	if err != nil {
		if !apperr.IsNotFound(err) && !apperr.IsForbidden(err) {
			s.logger.Error("failed to update comment", "error", err, "comment_id", id)
		}
		return nil, apperr.AtBoundary("update comment", err)
	}

	return updated, nil
}

// Remove deletes the comment with its reply subtree. Attachments of every
// comment in the subtree are deleted remotely first; any failure keeps them all.
func (s *commentService) Remove(ctx context.Context, id, currentUserID string) error {
	err := s.txm.WithinTx(ctx, func(ctx context.Context, tx uow.Tx) error {
		c, err := s.loadOwned(ctx, tx, id, currentUserID)
		if err != nil {
			return err
		}

		subtree, err := s.repo.LockSubtree(ctx, tx, c.ID)
		if err != nil {
			return fmt.Errorf("failed to resolve replies: %w", err)
		}
		if len(subtree) == 0 {
			return apperr.NewNotFoundError("comment", c.ID)
		}

		refs := make([]parents.Ref, len(subtree))
		for i, commentID := range subtree {
			refs[i] = parents.Comment(commentID)
		}
		if err := s.attachments.DeleteAllForParents(ctx, tx, refs); err != nil {
			return err
		}
		if err := s.reactions.RemoveAllForParents(ctx, tx, parents.KindComment, subtree); err != nil {
			return err
		}

		if err := s.posts.Increment(ctx, tx, c.PostID, parents.CounterComments, -len(subtree)); err != nil {
			return fmt.Errorf("failed to lower comment count: %w", err)
		}

		if err := s.repo.Delete(ctx, tx, c.ID); err != nil {
			return fmt.Errorf("failed to delete comment: %w", err)
		}
		return nil
	})
	if err != nil {
		if !apperr.IsNotFound(err) && !apperr.IsForbidden(err) {
			s.logger.Error("failed to remove comment", "error", err, "comment_id", id)
		}
		return apperr.AtBoundary("remove comment", err)
	}
	return nil
}

func (s *commentService) Find(ctx context.Context, filter Filter) (listing.Page[*Comment], error) {
	filter.Query = filter.Query.Normalize(SortColumns, DefaultSort)
	filter.ParentCommentID = NormalizeParentID(filter.ParentCommentID)

	list, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return listing.Page[*Comment]{}, fmt.Errorf("failed to list comments: %w", err)
	}
	if err := s.loadAttachments(ctx, list); err != nil {
		return listing.Page[*Comment]{}, err
	}

	return listing.NewPage(list, total, filter.Query), nil
}

func (s *commentService) loadAttachments(ctx context.Context, list []*Comment) error {
	if len(list) == 0 {
		return nil
	}
	ids := make([]string, len(list))
	byID := make(map[string]*Comment, len(list))
	for i, c := range list {
		ids[i] = c.ID
		byID[c.ID] = c
		c.Attachments = []*attachments.Attachment{}
	}

	found, err := s.loader.ListByParents(ctx, nil, parents.KindComment, ids)
	if err != nil {
		return fmt.Errorf("failed to load comment attachments: %w", err)
	}
	for _, a := range found {
		if c, ok := byID[a.ParentID]; ok {
			c.Attachments = append(c.Attachments, a)
		}
	}
	return nil
}

// React records, changes or retracts the caller's reaction on a comment
func (s *commentService) React(ctx context.Context, userID string, in reactions.Input) (*reactions.Reaction, error) {
	if in.ParentID == "" {
		return nil, apperr.NewValidationError("parentId", "comment id is required")
	}
	t, err := reactions.ParseType(in.Type)
	if err != nil {
		return nil, err
	}

	var result *reactions.Reaction
	err = s.txm.WithinTx(ctx, func(ctx context.Context, tx uow.Tx) error {
		r, err := s.reactions.AddOrUpdate(ctx, tx, parents.Comment(in.ParentID), userID, t)
		if err != nil {
			return err
		}
		result = r
		return nil
	})
	if err != nil {
		return nil, apperr.AtBoundary("react to comment", err)
	}
	return result, nil
}

func (s *commentService) loadOwned(ctx context.Context, tx uow.Tx, id, userID string) (*Comment, error) {
	c, err := s.repo.GetByID(ctx, tx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, apperr.NewNotFoundError("comment", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load comment: %w", err)
	}
	if c.AuthorID != userID {
		return nil, apperr.NewForbiddenError("comment", id)
	}
	return c, nil
}

func nonNil(list []*attachments.Attachment) []*attachments.Attachment {
	if list == nil {
		return []*attachments.Attachment{}
	}
	return list
}

// RemoveAllByAuthor removes the author's comments. A comment already removed
// as a reply of an earlier one is skipped.
func (s *commentService) RemoveAllByAuthor(ctx context.Context, authorID string) error {
	ids, err := s.repo.IDsByAuthor(ctx, nil, authorID)
	if err != nil {
		return fmt.Errorf("failed to list comments of author: %w", err)
	}
	for _, id := range ids {
		if err := s.Remove(ctx, id, authorID); err != nil && !apperr.IsNotFound(err) {
			return err
		}
	}
	return nil
}
