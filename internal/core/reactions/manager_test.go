package reactions_test

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Inkwell/internal/core/apperr"
	"Inkwell/internal/core/comments"
	"Inkwell/internal/core/parents"
	"Inkwell/internal/core/posts"
	"Inkwell/internal/core/reactions"
	"Inkwell/internal/core/uow"
	"Inkwell/internal/testutil/memstore"
)

type fixture struct {
	store   *memstore.Store
	manager reactions.Manager
	post    parents.Ref
	comment parents.Ref
}

func setup(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memstore.New()

	authorID := store.AddUser("author")
	p := &posts.Post{AuthorID: authorID, Title: "title"}
	require.NoError(t, store.Posts().Create(ctx, nil, p))
	c := &comments.Comment{AuthorID: authorID, PostID: p.ID, Content: "hi"}
	require.NoError(t, store.Comments().Create(ctx, nil, c))

	return &fixture{
		store:   store,
		manager: reactions.NewManager(store.Reactions(), store.Targets(), nil),
		post:    parents.Post(p.ID),
		comment: parents.Comment(c.ID),
	}
}

func typ(t reactions.Type) *reactions.Type { return &t }

// react runs AddOrUpdate in its own unit of work
func (f *fixture) react(t *testing.T, ref parents.Ref, userID string, rt *reactions.Type) (*reactions.Reaction, error) {
	t.Helper()
	var out *reactions.Reaction
	err := f.store.WithinTx(context.Background(), func(ctx context.Context, tx uow.Tx) error {
		r, err := f.manager.AddOrUpdate(ctx, tx, ref, userID, rt)
		out = r
		return err
	})
	return out, err
}

func (f *fixture) counters(ref parents.Ref) (likes, dislikes int) {
	if ref.Kind == parents.KindPost {
		p, _ := f.store.Post(ref.ID)
		return p.LikesCount, p.DislikesCount
	}
	c, _ := f.store.Comment(ref.ID)
	return c.LikesCount, c.DislikesCount
}

func TestAddOrUpdate_LikeSwitchRetract(t *testing.T) {
	for _, which := range []string{"post", "comment"} {
		t.Run(which, func(t *testing.T) {
			f := setup(t)
			ref := f.post
			if which == "comment" {
				ref = f.comment
			}
			userID := f.store.AddUser("reader")

			r, err := f.react(t, ref, userID, typ(reactions.Like))
			require.NoError(t, err)
			require.NotNil(t, r)
			assert.Equal(t, reactions.Like, r.Type)
			likes, dislikes := f.counters(ref)
			assert.Equal(t, 1, likes)
			assert.Equal(t, 0, dislikes)

			r, err = f.react(t, ref, userID, typ(reactions.Dislike))
			require.NoError(t, err)
			assert.Equal(t, reactions.Dislike, r.Type)
			likes, dislikes = f.counters(ref)
			assert.Equal(t, 0, likes)
			assert.Equal(t, 1, dislikes)
			assert.Equal(t, 1, f.store.ReactionRows(ref, userID))

			r, err = f.react(t, ref, userID, nil)
			require.NoError(t, err)
			assert.Nil(t, r)
			likes, dislikes = f.counters(ref)
			assert.Equal(t, 0, likes)
			assert.Equal(t, 0, dislikes)
			assert.Zero(t, f.store.ReactionRows(ref, userID))
		})
	}
}

func TestAddOrUpdate_RetractWithoutReactionIsNoop(t *testing.T) {
	f := setup(t)
	userID := f.store.AddUser("reader")

	for i := 0; i < 2; i++ {
		r, err := f.react(t, f.post, userID, nil)
		require.NoError(t, err)
		assert.Nil(t, r)
	}
	likes, dislikes := f.counters(f.post)
	assert.Zero(t, likes)
	assert.Zero(t, dislikes)
}

func TestAddOrUpdate_SameTypeTwiceCountsOnce(t *testing.T) {
	f := setup(t)
	userID := f.store.AddUser("reader")

	_, err := f.react(t, f.comment, userID, typ(reactions.Like))
	require.NoError(t, err)
	_, err = f.react(t, f.comment, userID, typ(reactions.Like))
	require.NoError(t, err)

	likes, _ := f.counters(f.comment)
	assert.Equal(t, 1, likes)
	assert.Equal(t, 1, f.store.ReactionRows(f.comment, userID))
}

func TestAddOrUpdate_MissingParent(t *testing.T) {
	f := setup(t)
	userID := f.store.AddUser("reader")

	_, err := f.react(t, parents.Post("missing"), userID, typ(reactions.Like))
	require.Error(t, err)
	assert.True(t, apperr.IsNotFound(err))
}

func TestAddOrUpdate_RejectsInvalidInput(t *testing.T) {
	f := setup(t)

	_, err := f.react(t, f.post, "", typ(reactions.Like))
	assert.True(t, apperr.IsValidationError(err))

	_, err = f.react(t, f.post, "someone", typ(reactions.Type("LOVE")))
	assert.True(t, apperr.IsValidationError(err))

	_, err = f.react(t, parents.Ref{Kind: "story", ID: "x"}, "someone", typ(reactions.Like))
	assert.ErrorIs(t, err, parents.ErrUnknownKind)
}

func TestAddOrUpdate_ReactionsAreIsolatedPerParent(t *testing.T) {
	f := setup(t)
	userID := f.store.AddUser("reader")

	_, err := f.react(t, f.post, userID, typ(reactions.Like))
	require.NoError(t, err)
	_, err = f.react(t, f.comment, userID, typ(reactions.Dislike))
	require.NoError(t, err)

	postLikes, postDislikes := f.counters(f.post)
	commentLikes, commentDislikes := f.counters(f.comment)
	assert.Equal(t, []int{1, 0, 0, 1}, []int{postLikes, postDislikes, commentLikes, commentDislikes})
}

// Counters always equal the number of reaction rows of each type, whatever
// sequence of reactions users send.
func TestAddOrUpdate_CountersMatchRows(t *testing.T) {
	f := setup(t)
	userIDs := []string{f.store.AddUser("u1"), f.store.AddUser("u2"), f.store.AddUser("u3"), f.store.AddUser("u4")}
	refs := []parents.Ref{f.post, f.comment}
	choices := []*reactions.Type{nil, typ(reactions.Like), typ(reactions.Dislike)}

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 300; i++ {
		ref := refs[rng.Intn(len(refs))]
		userID := userIDs[rng.Intn(len(userIDs))]
		_, err := f.react(t, ref, userID, choices[rng.Intn(len(choices))])
		require.NoError(t, err)

		for _, r := range refs {
			likes, dislikes := f.counters(r)
			require.Equal(t, f.store.CountReactions(r, reactions.Like), likes, "likes on %s after step %d", r, i)
			require.Equal(t, f.store.CountReactions(r, reactions.Dislike), dislikes, "dislikes on %s after step %d", r, i)
		}
		for _, u := range userIDs {
			require.LessOrEqual(t, f.store.ReactionRows(ref, u), 1)
		}
	}
}

func TestRemoveAllForParents_LeavesCountersAlone(t *testing.T) {
	f := setup(t)
	userID := f.store.AddUser("reader")
	_, err := f.react(t, f.comment, userID, typ(reactions.Like))
	require.NoError(t, err)

	require.NoError(t, f.manager.RemoveAllForParents(context.Background(), nil, parents.KindComment, []string{f.comment.ID}))
	assert.Zero(t, f.store.ReactionRows(f.comment, userID))
	likes, _ := f.counters(f.comment)
	assert.Equal(t, 1, likes)

	assert.NoError(t, f.manager.RemoveAllForParents(context.Background(), nil, parents.KindComment, nil))
}

func TestUserRetractor_RestoresCounters(t *testing.T) {
	f := setup(t)
	leaving := f.store.AddUser("leaving")
	staying := f.store.AddUser("staying")

	_, err := f.react(t, f.post, leaving, typ(reactions.Like))
	require.NoError(t, err)
	_, err = f.react(t, f.comment, leaving, typ(reactions.Dislike))
	require.NoError(t, err)
	_, err = f.react(t, f.post, staying, typ(reactions.Like))
	require.NoError(t, err)

	retractor := reactions.NewUserRetractor(f.store, f.store.Reactions(), f.manager)
	require.NoError(t, retractor.RemoveAllByAuthor(context.Background(), leaving))

	postLikes, _ := f.counters(f.post)
	_, commentDislikes := f.counters(f.comment)
	assert.Equal(t, 1, postLikes)
	assert.Zero(t, commentDislikes)
	assert.Zero(t, f.store.ReactionRows(f.post, leaving))
	assert.Equal(t, 1, f.store.ReactionRows(f.post, staying))
}

func TestParseType(t *testing.T) {
	s := func(v string) *string { return &v }
	tests := []struct {
		name    string
		raw     *string
		want    *reactions.Type
		wantErr bool
	}{
		{name: "nil", raw: nil},
		{name: "empty", raw: s("")},
		{name: "null literal", raw: s("null")},
		{name: "like", raw: s("LIKE"), want: typ(reactions.Like)},
		{name: "lower dislike", raw: s("dislike"), want: typ(reactions.Dislike)},
		{name: "invalid", raw: s("LOVE"), wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := reactions.ParseType(tt.raw)
			if tt.wantErr {
				assert.True(t, apperr.IsValidationError(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// racingRepo behaves as if another request of the same user removed the row
// between the lookup and the delete
type racingRepo struct {
	reactions.Repository
}

func (r racingRepo) Delete(ctx context.Context, tx uow.Tx, ref parents.Ref, id string) error {
	return reactions.ErrReactionNotFound
}

func TestAddOrUpdate_LostDeleteRaceIsConflict(t *testing.T) {
	f := setup(t)
	userID := f.store.AddUser("reader")
	_, err := f.react(t, f.post, userID, typ(reactions.Like))
	require.NoError(t, err)

	f.manager = reactions.NewManager(racingRepo{Repository: f.store.Reactions()}, f.store.Targets(), nil)

	_, err = f.react(t, f.post, userID, typ(reactions.Dislike))
	require.Error(t, err)
	assert.True(t, apperr.IsConflict(err), "expected conflict, got %v", err)
	assert.False(t, apperr.IsInternal(apperr.AtBoundary("react", err)))

	likes, dislikes := f.counters(f.post)
	assert.Equal(t, 1, likes)
	assert.Equal(t, 0, dislikes)
}
