package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Inkwell/internal/core/apperr"
	"Inkwell/internal/core/parents"
	"Inkwell/internal/core/reactions"
)

func TestReactionRepo_CreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewReactionRepository(db)
	ctx := context.Background()

	userID := createTestUser(t, db, "reactor1")
	postID := createTestPost(t, db, userID)

	reaction := &reactions.Reaction{
		UserID:     userID,
		ParentKind: parents.KindPost,
		ParentID:   postID,
		Type:       reactions.Like,
	}
	require.NoError(t, repo.Create(ctx, nil, reaction))
	assert.NotEmpty(t, reaction.ID)
	assert.False(t, reaction.CreatedAt.IsZero())

	got, err := repo.Get(ctx, nil, parents.Post(postID), userID)
	require.NoError(t, err)
	assert.Equal(t, reaction.ID, got.ID)
	assert.Equal(t, reactions.Like, got.Type)
	assert.Equal(t, parents.KindPost, got.ParentKind)
}

func TestReactionRepo_DuplicateIsConflict(t *testing.T) {
	db := setupTestDB(t)
	repo := NewReactionRepository(db)
	ctx := context.Background()

	userID := createTestUser(t, db, "reactor2")
	postID := createTestPost(t, db, userID)
	commentID := createTestComment(t, db, userID, postID, nil)

	first := &reactions.Reaction{UserID: userID, ParentKind: parents.KindComment, ParentID: commentID, Type: reactions.Like}
	require.NoError(t, repo.Create(ctx, nil, first))

	second := &reactions.Reaction{UserID: userID, ParentKind: parents.KindComment, ParentID: commentID, Type: reactions.Dislike}
	err := repo.Create(ctx, nil, second)
	require.Error(t, err)
	assert.True(t, apperr.IsConflict(err), "expected conflict, got %v", err)
}

func TestReactionRepo_GetMissing(t *testing.T) {
	db := setupTestDB(t)
	repo := NewReactionRepository(db)

	_, err := repo.Get(context.Background(), nil, parents.Post("not-a-uuid"), "also-not")
	assert.ErrorIs(t, err, reactions.ErrReactionNotFound)
}

func TestReactionRepo_ListByUserAndDeleteAll(t *testing.T) {
	db := setupTestDB(t)
	repo := NewReactionRepository(db)
	ctx := context.Background()

	userID := createTestUser(t, db, "reactor3")
	postID := createTestPost(t, db, userID)
	commentID := createTestComment(t, db, userID, postID, nil)

	require.NoError(t, repo.Create(ctx, nil, &reactions.Reaction{UserID: userID, ParentKind: parents.KindPost, ParentID: postID, Type: reactions.Dislike}))
	require.NoError(t, repo.Create(ctx, nil, &reactions.Reaction{UserID: userID, ParentKind: parents.KindComment, ParentID: commentID, Type: reactions.Like}))

	list, err := repo.ListByUser(ctx, nil, userID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	kinds := []parents.Kind{list[0].ParentKind, list[1].ParentKind}
	assert.ElementsMatch(t, []parents.Kind{parents.KindPost, parents.KindComment}, kinds)

	n, err := repo.DeleteAllForParents(ctx, nil, parents.KindComment, []string{commentID, "garbage"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	list, err = repo.ListByUser(ctx, nil, userID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, parents.KindPost, list[0].ParentKind)
}
