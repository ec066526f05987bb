// Package memstore is an in-memory implementation of the repositories and
// the unit of work, used by service tests.
//
// Transactions are serialized. A failed unit of work restores the snapshot
// taken when it began, so rollback semantics match PostgreSQL closely enough
// for the all-or-nothing properties the services promise.
package memstore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"Inkwell/internal/core/attachments"
	"Inkwell/internal/core/comments"
	"Inkwell/internal/core/parents"
	"Inkwell/internal/core/posts"
	"Inkwell/internal/core/reactions"
	"Inkwell/internal/core/uow"
	"Inkwell/internal/core/users"
)

// ErrNegativeCounter mirrors the CHECK (>= 0) constraints on counter columns
var ErrNegativeCounter = errors.New("counter would become negative")

type row[T any] struct {
	value T
	seq   int
}

type state struct {
	users       map[string]row[users.User]
	posts       map[string]row[posts.Post]
	comments    map[string]row[comments.Comment]
	attachments map[string]row[attachments.Attachment]
	reactions   map[string]row[reactions.Reaction]
}

func newState() state {
	return state{
		users:       map[string]row[users.User]{},
		posts:       map[string]row[posts.Post]{},
		comments:    map[string]row[comments.Comment]{},
		attachments: map[string]row[attachments.Attachment]{},
		reactions:   map[string]row[reactions.Reaction]{},
	}
}

func cloneMap[T any](m map[string]row[T]) map[string]row[T] {
	out := make(map[string]row[T], len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s state) clone() state {
	return state{
		users:       cloneMap(s.users),
		posts:       cloneMap(s.posts),
		comments:    cloneMap(s.comments),
		attachments: cloneMap(s.attachments),
		reactions:   cloneMap(s.reactions),
	}
}

type memTx struct{ id string }

func (t *memTx) ID() string { return t.id }

// Store holds every table in memory
type Store struct {
	data state
	now  func() time.Time
	txMu sync.Mutex
	mu   sync.Mutex
	seq  int

	// Commits and Rollbacks count finished units of work
	Commits   int
	Rollbacks int
}

// New creates an empty store
func New() *Store {
	return &Store{data: newState(), now: time.Now}
}

var _ uow.Manager = (*Store)(nil)

// WithinTx implements uow.Manager
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx uow.Tx) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	snapshot := s.data.clone()
	s.mu.Unlock()

	if err := fn(ctx, &memTx{id: uuid.NewString()}); err != nil {
		s.mu.Lock()
		s.data = snapshot
		s.Rollbacks++
		s.mu.Unlock()
		return err
	}

	s.mu.Lock()
	s.Commits++
	s.mu.Unlock()
	return nil
}

func (s *Store) next() (int, time.Time) {
	s.seq++
	return s.seq, s.now().UTC()
}

// Posts returns the post repository
func (s *Store) Posts() posts.Repository { return &postRepo{s: s} }

// Comments returns the comment repository
func (s *Store) Comments() comments.Repository { return &commentRepo{s: s} }

// Attachments returns the attachment repository
func (s *Store) Attachments() attachments.Repository { return &attachmentRepo{s: s} }

// Reactions returns the reaction repository
func (s *Store) Reactions() reactions.Repository { return &reactionRepo{s: s} }

// Users returns the user repository
func (s *Store) Users() users.UserRepository { return &userRepo{s: s} }

// Targets returns the parent targets backed by this store
func (s *Store) Targets() parents.Targets {
	return parents.Targets{Post: s.Posts(), Comment: s.Comments()}
}

// AddUser inserts a user directly and returns its id
func (s *Store) AddUser(username string) string {
	u := &users.User{
		Email:        username + "@example.com",
		Username:     username,
		PasswordHash: "hash",
	}
	if err := s.Users().Create(context.Background(), u); err != nil {
		panic(err)
	}
	return u.ID
}

// Post returns a copy of the stored post
func (s *Store) Post(id string) (posts.Post, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.data.posts[id]
	return r.value, ok
}

// Comment returns a copy of the stored comment
func (s *Store) Comment(id string) (comments.Comment, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.data.comments[id]
	return r.value, ok
}

// CountReactions counts the reaction rows of type t on ref
func (s *Store) CountReactions(ref parents.Ref, t reactions.Type) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, r := range s.data.reactions {
		if r.value.Parent() == ref && r.value.Type == t {
			n++
		}
	}
	return n
}

// ReactionRows returns the number of reaction rows of userID on ref
func (s *Store) ReactionRows(ref parents.Ref, userID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, r := range s.data.reactions {
		if r.value.Parent() == ref && r.value.UserID == userID {
			n++
		}
	}
	return n
}

// AttachmentRows returns the attachment rows of ref, oldest first
func (s *Store) AttachmentRows(ref parents.Ref) []attachments.Attachment {
	s.mu.Lock()
	defer s.mu.Unlock()
	var list []row[attachments.Attachment]
	for _, r := range s.data.attachments {
		if r.value.Parent() == ref {
			list = append(list, r)
		}
	}
	sortRows(list)
	out := make([]attachments.Attachment, len(list))
	for i, r := range list {
		out[i] = r.value
	}
	return out
}

// TotalAttachments returns the number of attachment rows of any parent
func (s *Store) TotalAttachments() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data.attachments)
}

func sortRows[T any](list []row[T]) {
	sort.Slice(list, func(i, j int) bool { return list[i].seq < list[j].seq })
}

// cascade helpers; callers hold s.mu

func (s *Store) deleteCommentLocked(id string) {
	for childID, c := range s.data.comments {
		if c.value.ParentCommentID != nil && *c.value.ParentCommentID == id {
			s.deleteCommentLocked(childID)
		}
	}
	delete(s.data.comments, id)
	s.deleteChildrenLocked(parents.Comment(id))
}

func (s *Store) deletePostLocked(id string) {
	for commentID, c := range s.data.comments {
		if c.value.PostID == id {
			s.deleteCommentLocked(commentID)
		}
	}
	delete(s.data.posts, id)
	s.deleteChildrenLocked(parents.Post(id))
}

func (s *Store) deleteChildrenLocked(ref parents.Ref) {
	for aid, a := range s.data.attachments {
		if a.value.Parent() == ref {
			delete(s.data.attachments, aid)
		}
	}
	for rid, r := range s.data.reactions {
		if r.value.Parent() == ref {
			delete(s.data.reactions, rid)
		}
	}
}

func username(st state, id string) string {
	return st.users[id].value.Username
}

func increment(value *int, delta int, what string) error {
	if *value+delta < 0 {
		return fmt.Errorf("%s: %w", what, ErrNegativeCounter)
	}
	*value += delta
	return nil
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func paginate[T any](list []T, limit, offset int) []T {
	if offset >= len(list) {
		return []T{}
	}
	end := offset + limit
	if limit <= 0 || end > len(list) {
		end = len(list)
	}
	return list[offset:end]
}
