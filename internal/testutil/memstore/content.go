package memstore

import (
	"context"
	"fmt"

	"Inkwell/internal/core/comments"
	"Inkwell/internal/core/listing"
	"Inkwell/internal/core/parents"
	"Inkwell/internal/core/posts"
	"Inkwell/internal/core/uow"
)

type postRepo struct{ s *Store }

func (r *postRepo) withAuthor(p posts.Post) *posts.Post {
	p.Author = &posts.Author{ID: p.AuthorID, Username: username(r.s.data, p.AuthorID)}
	return &p
}

func (r *postRepo) Create(ctx context.Context, tx uow.Tx, post *posts.Post) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.data.users[post.AuthorID]; !ok {
		return fmt.Errorf("author not found: %s", post.AuthorID)
	}
	seq, now := r.s.next()
	post.ID = newID()
	post.CreatedAt, post.UpdatedAt = now, now
	post.ViewsCount, post.LikesCount, post.DislikesCount, post.CommentsCount = 0, 0, 0, 0
	stored := *post
	stored.Attachments = nil
	r.s.data.posts[post.ID] = row[posts.Post]{value: stored, seq: seq}
	return nil
}

func (r *postRepo) GetByID(ctx context.Context, tx uow.Tx, id string) (*posts.Post, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.data.posts[id]
	if !ok {
		return nil, posts.ErrNotFound
	}
	return r.withAuthor(p.value), nil
}

func (r *postRepo) Update(ctx context.Context, tx uow.Tx, id string, patch posts.Patch) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.data.posts[id]
	if !ok {
		return posts.ErrNotFound
	}
	p.value = patch.Apply(p.value)
	p.value.UpdatedAt = r.s.now().UTC()
	r.s.data.posts[id] = p
	return nil
}

func (r *postRepo) Delete(ctx context.Context, tx uow.Tx, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.data.posts[id]; !ok {
		return posts.ErrNotFound
	}
	r.s.deletePostLocked(id)
	return nil
}

// List filters by id, author and a case-insensitive substring search.
// Results are ordered by creation; sortBy is not honored.
func (r *postRepo) List(ctx context.Context, filter posts.Filter) ([]*posts.Post, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var matched []row[posts.Post]
	for id, p := range r.s.data.posts {
		if filter.ID != "" && id != filter.ID {
			continue
		}
		if filter.AuthorID != "" && p.value.AuthorID != filter.AuthorID {
			continue
		}
		if filter.Search != "" && !containsFold(p.value.Title+" "+p.value.Content, filter.Search) {
			continue
		}
		matched = append(matched, p)
	}
	sortRows(matched)
	if filter.SortOrder != listing.Asc {
		reverse(matched)
	}

	out := []*posts.Post{}
	for _, p := range paginate(matched, filter.Limit, filter.Offset()) {
		out = append(out, r.withAuthor(p.value))
	}
	return out, len(matched), nil
}

func (r *postRepo) IDsByAuthor(ctx context.Context, tx uow.Tx, authorID string) ([]string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var list []row[posts.Post]
	for _, p := range r.s.data.posts {
		if p.value.AuthorID == authorID {
			list = append(list, p)
		}
	}
	sortRows(list)
	ids := make([]string, len(list))
	for i, p := range list {
		ids[i] = p.value.ID
	}
	return ids, nil
}

func (r *postRepo) Exists(ctx context.Context, tx uow.Tx, id string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	_, ok := r.s.data.posts[id]
	return ok, nil
}

func (r *postRepo) Increment(ctx context.Context, tx uow.Tx, id string, counter parents.Counter, delta int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.data.posts[id]
	if !ok {
		return fmt.Errorf("posts row %s not found", id)
	}
	var field *int
	switch counter {
	case parents.CounterLikes:
		field = &p.value.LikesCount
	case parents.CounterDislikes:
		field = &p.value.DislikesCount
	case parents.CounterViews:
		field = &p.value.ViewsCount
	case parents.CounterComments:
		field = &p.value.CommentsCount
	default:
		return fmt.Errorf("%w: %s on posts", parents.ErrUnsupportedCounter, counter)
	}
	if err := increment(field, delta, "posts."+string(counter)); err != nil {
		return err
	}
	r.s.data.posts[id] = p
	return nil
}

type commentRepo struct{ s *Store }

func (r *commentRepo) withAuthor(c comments.Comment) *comments.Comment {
	c.Author = &comments.Author{ID: c.AuthorID, Username: username(r.s.data, c.AuthorID)}
	return &c
}

func (r *commentRepo) Create(ctx context.Context, tx uow.Tx, c *comments.Comment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.data.posts[c.PostID]; !ok {
		return fmt.Errorf("post not found: %s", c.PostID)
	}
	if c.ParentCommentID != nil {
		if _, ok := r.s.data.comments[*c.ParentCommentID]; !ok {
			return fmt.Errorf("parent comment not found: %s", *c.ParentCommentID)
		}
	}
	seq, now := r.s.next()
	c.ID = newID()
	c.CreatedAt, c.UpdatedAt = now, now
	c.LikesCount, c.DislikesCount = 0, 0
	stored := *c
	stored.Attachments = nil
	r.s.data.comments[c.ID] = row[comments.Comment]{value: stored, seq: seq}
	return nil
}

func (r *commentRepo) GetByID(ctx context.Context, tx uow.Tx, id string) (*comments.Comment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.data.comments[id]
	if !ok {
		return nil, comments.ErrNotFound
	}
	return r.withAuthor(c.value), nil
}

func (r *commentRepo) Update(ctx context.Context, tx uow.Tx, id string, patch comments.Patch) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.data.comments[id]
	if !ok {
		return comments.ErrNotFound
	}
	c.value = patch.Apply(c.value)
	c.value.UpdatedAt = r.s.now().UTC()
	r.s.data.comments[id] = c
	return nil
}

func (r *commentRepo) Delete(ctx context.Context, tx uow.Tx, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.data.comments[id]; !ok {
		return comments.ErrNotFound
	}
	r.s.deleteCommentLocked(id)
	return nil
}

// LockSubtree needs no row locks; units of work are serialized
func (r *commentRepo) LockSubtree(ctx context.Context, tx uow.Tx, id string) ([]string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.data.comments[id]; !ok {
		return nil, nil
	}
	ids := []string{id}
	for i := 0; i < len(ids); i++ {
		var children []row[comments.Comment]
		for _, c := range r.s.data.comments {
			if c.value.ParentCommentID != nil && *c.value.ParentCommentID == ids[i] {
				children = append(children, c)
			}
		}
		sortRows(children)
		for _, c := range children {
			ids = append(ids, c.value.ID)
		}
	}
	return ids, nil
}

func (r *commentRepo) IDsByPost(ctx context.Context, tx uow.Tx, postID string) ([]string, error) {
	return r.idsWhere(func(c comments.Comment) bool { return c.PostID == postID }), nil
}

func (r *commentRepo) IDsByAuthor(ctx context.Context, tx uow.Tx, authorID string) ([]string, error) {
	return r.idsWhere(func(c comments.Comment) bool { return c.AuthorID == authorID }), nil
}

func (r *commentRepo) idsWhere(match func(comments.Comment) bool) []string {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var list []row[comments.Comment]
	for _, c := range r.s.data.comments {
		if match(c.value) {
			list = append(list, c)
		}
	}
	sortRows(list)
	ids := make([]string, len(list))
	for i, c := range list {
		ids[i] = c.value.ID
	}
	return ids
}

// List applies the same parent rule as the SQL repository: a nil parent
// filter selects top-level comments unless ID is set.
func (r *commentRepo) List(ctx context.Context, filter comments.Filter) ([]*comments.Comment, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var matched []row[comments.Comment]
	for id, c := range r.s.data.comments {
		v := c.value
		if filter.ID != "" && id != filter.ID {
			continue
		}
		if filter.ID == "" {
			switch {
			case filter.ParentCommentID == nil && v.ParentCommentID != nil:
				continue
			case filter.ParentCommentID != nil && (v.ParentCommentID == nil || *v.ParentCommentID != *filter.ParentCommentID):
				continue
			}
		}
		if filter.AuthorID != "" && v.AuthorID != filter.AuthorID {
			continue
		}
		if filter.PostID != "" && v.PostID != filter.PostID {
			continue
		}
		if filter.Search != "" && !containsFold(v.Content, filter.Search) {
			continue
		}
		matched = append(matched, c)
	}
	sortRows(matched)
	if filter.SortOrder != listing.Asc {
		reverse(matched)
	}

	out := []*comments.Comment{}
	for _, c := range paginate(matched, filter.Limit, filter.Offset()) {
		out = append(out, r.withAuthor(c.value))
	}
	return out, len(matched), nil
}

func (r *commentRepo) Exists(ctx context.Context, tx uow.Tx, id string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	_, ok := r.s.data.comments[id]
	return ok, nil
}

func (r *commentRepo) Increment(ctx context.Context, tx uow.Tx, id string, counter parents.Counter, delta int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.data.comments[id]
	if !ok {
		return fmt.Errorf("comments row %s not found", id)
	}
	var field *int
	switch counter {
	case parents.CounterLikes:
		field = &c.value.LikesCount
	case parents.CounterDislikes:
		field = &c.value.DislikesCount
	default:
		return fmt.Errorf("%w: %s on comments", parents.ErrUnsupportedCounter, counter)
	}
	if err := increment(field, delta, "comments."+string(counter)); err != nil {
		return err
	}
	r.s.data.comments[id] = c
	return nil
}

func reverse[T any](list []T) {
	for i, j := 0, len(list)-1; i < j; i, j = i+1, j-1 {
		list[i], list[j] = list[j], list[i]
	}
}
