package memstore

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"Inkwell/internal/core/apperr"
	"Inkwell/internal/core/attachments"
	"Inkwell/internal/core/listing"
	"Inkwell/internal/core/parents"
	"Inkwell/internal/core/reactions"
	"Inkwell/internal/core/uow"
	"Inkwell/internal/core/users"
)

func newID() string { return uuid.NewString() }

type attachmentRepo struct{ s *Store }

func (r *attachmentRepo) parentExistsLocked(ref parents.Ref) bool {
	switch ref.Kind {
	case parents.KindPost:
		_, ok := r.s.data.posts[ref.ID]
		return ok
	case parents.KindComment:
		_, ok := r.s.data.comments[ref.ID]
		return ok
	}
	return false
}

func (r *attachmentRepo) Create(ctx context.Context, tx uow.Tx, a *attachments.Attachment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if !r.parentExistsLocked(a.Parent()) {
		return apperr.NewNotFoundError(string(a.ParentKind), a.ParentID)
	}
	seq, now := r.s.next()
	a.ID = newID()
	a.CreatedAt, a.UpdatedAt = now, now
	r.s.data.attachments[a.ID] = row[attachments.Attachment]{value: *a, seq: seq}
	return nil
}

func (r *attachmentRepo) GetForParent(ctx context.Context, tx uow.Tx, ref parents.Ref, id string) (*attachments.Attachment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.data.attachments[id]
	if !ok || a.value.Parent() != ref {
		return nil, attachments.ErrAttachmentNotFound
	}
	v := a.value
	return &v, nil
}

func (r *attachmentRepo) UpdateDescription(ctx context.Context, tx uow.Tx, ref parents.Ref, id string, description *string) (*attachments.Attachment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.data.attachments[id]
	if !ok || a.value.Parent() != ref {
		return nil, attachments.ErrAttachmentNotFound
	}
	if description != nil {
		d := *description
		description = &d
	}
	a.value.Description = description
	a.value.UpdatedAt = r.s.now().UTC()
	r.s.data.attachments[id] = a
	v := a.value
	return &v, nil
}

func (r *attachmentRepo) Delete(ctx context.Context, tx uow.Tx, ref parents.Ref, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.data.attachments[id]
	if !ok || a.value.Parent() != ref {
		return attachments.ErrAttachmentNotFound
	}
	delete(r.s.data.attachments, id)
	return nil
}

func (r *attachmentRepo) ListByParent(ctx context.Context, tx uow.Tx, ref parents.Ref) ([]*attachments.Attachment, error) {
	return r.ListByParents(ctx, tx, ref.Kind, []string{ref.ID})
}

func (r *attachmentRepo) ListByParents(ctx context.Context, tx uow.Tx, kind parents.Kind, ids []string) ([]*attachments.Attachment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	wanted := make(map[string]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	var list []row[attachments.Attachment]
	for _, a := range r.s.data.attachments {
		if a.value.ParentKind == kind && wanted[a.value.ParentID] {
			list = append(list, a)
		}
	}
	sortRows(list)
	out := make([]*attachments.Attachment, len(list))
	for i, a := range list {
		v := a.value
		out[i] = &v
	}
	return out, nil
}

type reactionRepo struct{ s *Store }

func (r *reactionRepo) findLocked(ref parents.Ref, userID string) (row[reactions.Reaction], bool) {
	for _, rr := range r.s.data.reactions {
		if rr.value.Parent() == ref && rr.value.UserID == userID {
			return rr, true
		}
	}
	return row[reactions.Reaction]{}, false
}

func (r *reactionRepo) Get(ctx context.Context, tx uow.Tx, ref parents.Ref, userID string) (*reactions.Reaction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rr, ok := r.findLocked(ref, userID)
	if !ok {
		return nil, reactions.ErrReactionNotFound
	}
	v := rr.value
	return &v, nil
}

// Create enforces the (user, parent) uniqueness the SQL schema declares
func (r *reactionRepo) Create(ctx context.Context, tx uow.Tx, reaction *reactions.Reaction) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, dup := r.findLocked(reaction.Parent(), reaction.UserID); dup {
		return apperr.NewConflictError("reaction", "user already reacted on "+reaction.Parent().String())
	}
	seq, now := r.s.next()
	reaction.ID = newID()
	reaction.CreatedAt = now
	r.s.data.reactions[reaction.ID] = row[reactions.Reaction]{value: *reaction, seq: seq}
	return nil
}

func (r *reactionRepo) Delete(ctx context.Context, tx uow.Tx, ref parents.Ref, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rr, ok := r.s.data.reactions[id]
	if !ok || rr.value.Parent() != ref {
		return reactions.ErrReactionNotFound
	}
	delete(r.s.data.reactions, id)
	return nil
}

func (r *reactionRepo) DeleteAllForParents(ctx context.Context, tx uow.Tx, kind parents.Kind, ids []string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	wanted := make(map[string]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	var n int64
	for id, rr := range r.s.data.reactions {
		if rr.value.ParentKind == kind && wanted[rr.value.ParentID] {
			delete(r.s.data.reactions, id)
			n++
		}
	}
	return n, nil
}

func (r *reactionRepo) ListByUser(ctx context.Context, tx uow.Tx, userID string) ([]*reactions.Reaction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var list []row[reactions.Reaction]
	for _, rr := range r.s.data.reactions {
		if rr.value.UserID == userID {
			list = append(list, rr)
		}
	}
	sortRows(list)
	out := make([]*reactions.Reaction, len(list))
	for i, rr := range list {
		v := rr.value
		out[i] = &v
	}
	return out, nil
}

type userRepo struct{ s *Store }

func (r *userRepo) conflictLocked(id, email, username string) error {
	for otherID, u := range r.s.data.users {
		if otherID == id {
			continue
		}
		if email != "" && strings.EqualFold(u.value.Email, email) {
			return apperr.NewConflictError("user", users.ErrEmailTaken.Error())
		}
		if username != "" && u.value.Username == username {
			return apperr.NewConflictError("user", users.ErrUsernameTaken.Error())
		}
	}
	return nil
}

func (r *userRepo) Create(ctx context.Context, user *users.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.conflictLocked("", user.Email, user.Username); err != nil {
		return err
	}
	seq, now := r.s.next()
	user.ID = newID()
	user.CreatedAt, user.UpdatedAt = now, now
	if user.RegistrationDate.IsZero() {
		user.RegistrationDate = now
	}
	r.s.data.users[user.ID] = row[users.User]{value: *user, seq: seq}
	return nil
}

func (r *userRepo) find(match func(users.User) bool) (*users.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.data.users {
		if match(u.value) {
			v := u.value
			return &v, nil
		}
	}
	return nil, users.ErrUserNotFound
}

func (r *userRepo) GetByID(ctx context.Context, id string) (*users.User, error) {
	return r.find(func(u users.User) bool { return u.ID == id })
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*users.User, error) {
	return r.find(func(u users.User) bool { return strings.EqualFold(u.Email, strings.TrimSpace(email)) })
}

func (r *userRepo) GetByUsername(ctx context.Context, username string) (*users.User, error) {
	return r.find(func(u users.User) bool { return u.Username == username })
}

func (r *userRepo) Update(ctx context.Context, id string, patch users.Patch) (*users.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.data.users[id]
	if !ok {
		return nil, users.ErrUserNotFound
	}
	if patch.Username != nil {
		if err := r.conflictLocked(id, "", *patch.Username); err != nil {
			return nil, err
		}
		u.value.Username = *patch.Username
	}
	if patch.DisplayName != nil {
		u.value.DisplayName = patch.DisplayName
	}
	if patch.UserDescription != nil {
		u.value.UserDescription = patch.UserDescription
	}
	if patch.PasswordHash != nil {
		u.value.PasswordHash = *patch.PasswordHash
	}
	u.value.UpdatedAt = r.s.now().UTC()
	r.s.data.users[id] = u
	v := u.value
	return &v, nil
}

func (r *userRepo) SetSession(ctx context.Context, id string, refreshTokenHash *string, active bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.data.users[id]
	if !ok {
		return users.ErrUserNotFound
	}
	u.value.RefreshTokenHash = refreshTokenHash
	u.value.IsActive = active
	r.s.data.users[id] = u
	return nil
}

// Delete cascades to everything the user authored, like the SQL foreign keys
func (r *userRepo) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.data.users[id]; !ok {
		return users.ErrUserNotFound
	}
	for postID, p := range r.s.data.posts {
		if p.value.AuthorID == id {
			r.s.deletePostLocked(postID)
		}
	}
	for commentID, c := range r.s.data.comments {
		if c.value.AuthorID == id {
			r.s.deleteCommentLocked(commentID)
		}
	}
	for rid, rr := range r.s.data.reactions {
		if rr.value.UserID == id {
			delete(r.s.data.reactions, rid)
		}
	}
	delete(r.s.data.users, id)
	return nil
}

func (r *userRepo) List(ctx context.Context, filter users.Filter) ([]*users.User, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var matched []row[users.User]
	for id, u := range r.s.data.users {
		v := u.value
		if filter.ID != "" && id != filter.ID {
			continue
		}
		if filter.Email != "" && !strings.EqualFold(v.Email, filter.Email) {
			continue
		}
		if filter.Username != "" && v.Username != filter.Username {
			continue
		}
		if filter.Search != "" && !containsFold(v.Username, filter.Search) {
			continue
		}
		matched = append(matched, u)
	}
	sortRows(matched)
	if filter.SortOrder != listing.Asc {
		reverse(matched)
	}
	out := []*users.User{}
	for _, u := range paginate(matched, filter.Limit, filter.Offset()) {
		v := u.value
		out = append(out, &v)
	}
	return out, len(matched), nil
}
