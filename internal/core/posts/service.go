package posts

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

type postService struct {
	txm         uow.Manager
	repo        Repository
	comments    CommentIndex
	loader      AttachmentLoader
	attachments attachments.Manager
	reactions   reactions.Manager
	logger      *slog.Logger
}

// NewService creates a new post service.
// If logger is nil, slog.Default() is used.
func NewService(
	txm uow.Manager,
	repo Repository,
	comments CommentIndex,
	loader AttachmentLoader,
	attachmentManager attachments.Manager,
	reactionManager reactions.Manager,
	logger *slog.Logger,
) Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &postService{
		txm:         txm,
		repo:        repo,
		comments:    comments,
		loader:      loader,
		attachments: attachmentManager,
		reactions:   reactionManager,
		logger:      logger,
	}
}

// Create inserts the post and uploads its attachments as one unit.
// A failed upload leaves neither the post nor any attachment behind.
func (s *postService) Create(ctx context.Context, authorID string, req CreateRequest) (*Post, error) {
	if authorID == "" {
		return nil, apperr.NewValidationError("authorId", "author is required")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var created *Post
	err := s.txm.WithinTx(ctx, func(ctx context.Context, tx uow.Tx) error {
		post := &Post{
			AuthorID: authorID,
			Title:    req.Title,
			Content:  req.Content,
		}
		if err := s.repo.Create(ctx, tx, post); err != nil {
			return fmt.Errorf("failed to insert post: %w", err)
		}

		saved, err := s.attachments.CreateMany(ctx, tx, parents.Post(post.ID), req.Attachments)
		if err != nil {
			return err
		}
		post.Attachments = nonNil(saved)
		created = post
		return nil
	})
	if err != nil {
		s.logger.Error("failed to create post", "error", err, "author_id", authorID)
		return nil, apperr.AtBoundary("create post", err)
	}

	return created, nil
}

// Update applies attachment changes in the order new, updated, deleted, then
// writes the scalar patch and returns the post as persisted.
func (s *postService) Update(ctx context.Context, id, currentUserID string, req UpdateRequest) (*Post, error) {
	patch, err := NewPatch(req)
	if err != nil {
		return nil, err
	}

	var updated *Post
	err = s.txm.WithinTx(ctx, func(ctx context.Context, tx uow.Tx) error {
		post, err := s.loadOwned(ctx, tx, id, currentUserID)
		if err != nil {
			return err
		}
		ref := parents.Post(post.ID)

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

		if err := s.repo.Update(ctx, tx, post.ID, patch); err != nil {
			return fmt.Errorf("failed to save post: %w", err)
		}

		fresh, err := s.repo.GetByID(ctx, tx, post.ID)
		if err != nil {
			return fmt.Errorf("failed to reload post: %w", err)
		}
		fresh.Attachments = nonNil(current)
		updated = fresh
		return nil
	})
	if err != nil {
		if !apperr.IsNotFound(err) && !apperr.IsForbidden(err) {
			s.logger.Error("failed to update post", "error", err, "post_id", id)
		}
		return nil, apperr.AtBoundary("update post", err)
	}

	return updated, nil
}

// Remove deletes the post after its attachments, and those of every comment
// cascaded with it, are gone from the media store.
func (s *postService) Remove(ctx context.Context, id, currentUserID string) error {
	err := s.txm.WithinTx(ctx, func(ctx context.Context, tx uow.Tx) error {
		post, err := s.loadOwned(ctx, tx, id, currentUserID)
		if err != nil {
			return err
		}

		commentIDs, err := s.comments.IDsByPost(ctx, tx, post.ID)
		if err != nil {
			return fmt.Errorf("failed to list comments of post: %w", err)
		}

		refs := make([]parents.Ref, 0, len(commentIDs)+1)
		refs = append(refs, parents.Post(post.ID))
		for _, commentID := range commentIDs {
			refs = append(refs, parents.Comment(commentID))
		}
		if err := s.attachments.DeleteAllForParents(ctx, tx, refs); err != nil {
			return err
		}

		if err := s.reactions.RemoveAllForParents(ctx, tx, parents.KindComment, commentIDs); err != nil {
			return err
		}
		if err := s.reactions.RemoveAllForParent(ctx, tx, parents.Post(post.ID)); err != nil {
			return err
		}

		if err := s.repo.Delete(ctx, tx, post.ID); err != nil {
			return fmt.Errorf("failed to delete post: %w", err)
		}
		return nil
	})
	if err != nil {
		if !apperr.IsNotFound(err) && !apperr.IsForbidden(err) {
			s.logger.Error("failed to remove post", "error", err, "post_id", id)
		}
		return apperr.AtBoundary("remove post", err)
	}
	return nil
}

// Find lists posts. A result of exactly one post counts as a view of it;
// the returned post carries the count from before the view.
func (s *postService) Find(ctx context.Context, filter Filter) (listing.Page[*Post], error) {
	filter.Query = filter.Query.Normalize(SortColumns, DefaultSort)

	list, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return listing.Page[*Post]{}, fmt.Errorf("failed to list posts: %w", err)
	}
	if err := s.loadAttachments(ctx, list); err != nil {
		return listing.Page[*Post]{}, err
	}

	if len(list) == 1 {
		s.recordView(ctx, list[0].ID)
	}

	return listing.NewPage(list, total, filter.Query), nil
}

// recordView increments views_count outside any unit of work.
// Failure is logged and never fails the read.
func (s *postService) recordView(ctx context.Context, id string) {
	if err := s.repo.Increment(context.WithoutCancel(ctx), nil, id, parents.CounterViews, 1); err != nil {
		s.logger.Warn("failed to record post view", "error", err, "post_id", id)
	}
}

func (s *postService) loadAttachments(ctx context.Context, list []*Post) error {
	if len(list) == 0 {
		return nil
	}
	ids := make([]string, len(list))
	byID := make(map[string]*Post, len(list))
	for i, p := range list {
		ids[i] = p.ID
		byID[p.ID] = p
		p.Attachments = []*attachments.Attachment{}
	}

	found, err := s.loader.ListByParents(ctx, nil, parents.KindPost, ids)
	if err != nil {
		return fmt.Errorf("failed to load post attachments: %w", err)
	}
	for _, a := range found {
		if p, ok := byID[a.ParentID]; ok {
			p.Attachments = append(p.Attachments, a)
		}
	}
	return nil
}

// React records, changes or retracts the caller's reaction on a post
func (s *postService) React(ctx context.Context, userID string, in reactions.Input) (*reactions.Reaction, error) {
	if in.ParentID == "" {
		return nil, apperr.NewValidationError("parentId", "post id is required")
	}
	t, err := reactions.ParseType(in.Type)
	if err != nil {
		return nil, err
	}

	var result *reactions.Reaction
	err = s.txm.WithinTx(ctx, func(ctx context.Context, tx uow.Tx) error {
		r, err := s.reactions.AddOrUpdate(ctx, tx, parents.Post(in.ParentID), userID, t)
		if err != nil {
			return err
		}
		result = r
		return nil
	})
	if err != nil {
		return nil, apperr.AtBoundary("react to post", err)
	}
	return result, nil
}

// loadOwned loads the post inside tx and checks that userID is its author
func (s *postService) loadOwned(ctx context.Context, tx uow.Tx, id, userID string) (*Post, error) {
	post, err := s.repo.GetByID(ctx, tx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, apperr.NewNotFoundError("post", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load post: %w", err)
	}
	if post.AuthorID != userID {
		return nil, apperr.NewForbiddenError("post", id)
	}
	return post, nil
}

func nonNil(list []*attachments.Attachment) []*attachments.Attachment {
	if list == nil {
		return []*attachments.Attachment{}
	}
	return list
}

func (s *postService) RemoveAllByAuthor(ctx context.Context, authorID string) error {
	ids, err := s.repo.IDsByAuthor(ctx, nil, authorID)
	if err != nil {
		return fmt.Errorf("failed to list posts of author: %w", err)
	}
	for _, id := range ids {
		if err := s.Remove(ctx, id, authorID); err != nil && !apperr.IsNotFound(err) {
			return err
		}
	}
	return nil
}
