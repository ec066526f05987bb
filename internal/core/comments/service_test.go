package comments_test

import (
	"context"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Inkwell/internal/core/apperr"
	"Inkwell/internal/core/attachments"
	"Inkwell/internal/core/comments"
	"Inkwell/internal/core/parents"
	"Inkwell/internal/core/posts"
	"Inkwell/internal/core/reactions"
	"Inkwell/internal/testutil/fakemedia"
	"Inkwell/internal/testutil/memstore"
)

type fixture struct {
	store    *memstore.Store
	media    *fakemedia.Store
	service  comments.Service
	authorID string
	postID   string
}

func setup(t *testing.T) *fixture {
	t.Helper()
	store := memstore.New()
	blobs := fakemedia.New()
	attachmentManager := attachments.NewManager(store.Attachments(), blobs, nil)
	reactionManager := reactions.NewManager(store.Reactions(), store.Targets(), nil)

	authorID := store.AddUser("author")
	p := &posts.Post{AuthorID: authorID, Title: "title"}
	require.NoError(t, store.Posts().Create(context.Background(), nil, p))

	return &fixture{
		store:    store,
		media:    blobs,
		service:  comments.NewService(store, store.Comments(), store.Posts(), store.Attachments(), attachmentManager, reactionManager, nil),
		authorID: authorID,
		postID:   p.ID,
	}
}

func file(s string) attachments.CreateInput {
	return attachments.CreateInput{Content: base64.StdEncoding.EncodeToString([]byte(s))}
}

func strPtr(s string) *string { return &s }

func (f *fixture) comment(t *testing.T, parentID *string, files ...string) *comments.Comment {
	t.Helper()
	req := comments.CreateRequest{PostID: f.postID, ParentCommentID: parentID, Content: "text"}
	for _, name := range files {
		req.Attachments = append(req.Attachments, file(name))
	}
	c, err := f.service.Create(context.Background(), f.authorID, req)
	require.NoError(t, err)
	return c
}

func (f *fixture) commentsCount(t *testing.T) int {
	t.Helper()
	p, ok := f.store.Post(f.postID)
	require.True(t, ok)
	return p.CommentsCount
}

func TestCreate_TopLevelAndReply(t *testing.T) {
	f := setup(t)

	top := f.comment(t, nil, "img")
	assert.Nil(t, top.ParentCommentID)
	require.Len(t, top.Attachments, 1)

	reply := f.comment(t, &top.ID)
	require.NotNil(t, reply.ParentCommentID)
	assert.Equal(t, top.ID, *reply.ParentCommentID)
	assert.Equal(t, 2, f.commentsCount(t))
}

func TestCreate_NullParentIsTopLevel(t *testing.T) {
	f := setup(t)
	c := f.comment(t, strPtr("null"))
	assert.Nil(t, c.ParentCommentID)
}

func TestCreate_AttachmentOnlyComment(t *testing.T) {
	f := setup(t)
	c, err := f.service.Create(context.Background(), f.authorID, comments.CreateRequest{
		PostID:      f.postID,
		Attachments: []attachments.CreateInput{file("only")},
	})
	require.NoError(t, err)
	assert.Empty(t, c.Content)
	assert.Len(t, c.Attachments, 1)
}

func TestCreate_Rejections(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.service.Create(ctx, f.authorID, comments.CreateRequest{PostID: f.postID})
	assert.True(t, apperr.IsValidationError(err), "empty comment")

	_, err = f.service.Create(ctx, f.authorID, comments.CreateRequest{PostID: "missing", Content: "x"})
	assert.True(t, apperr.IsNotFound(err), "missing post")

	_, err = f.service.Create(ctx, f.authorID, comments.CreateRequest{PostID: f.postID, ParentCommentID: strPtr("missing"), Content: "x"})
	assert.True(t, apperr.IsNotFound(err), "missing parent")

	otherPost := &posts.Post{AuthorID: f.authorID, Title: "other"}
	require.NoError(t, f.store.Posts().Create(ctx, nil, otherPost))
	foreign, err := f.service.Create(ctx, f.authorID, comments.CreateRequest{PostID: otherPost.ID, Content: "x"})
	require.NoError(t, err)

	_, err = f.service.Create(ctx, f.authorID, comments.CreateRequest{PostID: f.postID, ParentCommentID: &foreign.ID, Content: "x"})
	assert.True(t, apperr.IsValidationError(err), "parent on another post")
	assert.Zero(t, f.commentsCount(t))
}

func TestCreate_FailedUploadLeavesNothing(t *testing.T) {
	f := setup(t)
	f.media.FailUploadOn = func([]byte) bool { return true }

	_, err := f.service.Create(context.Background(), f.authorID, comments.CreateRequest{
		PostID:      f.postID,
		Content:     "with file",
		Attachments: []attachments.CreateInput{file("x")},
	})
	require.Error(t, err)

	page, err := f.service.Find(context.Background(), comments.Filter{PostID: f.postID})
	require.NoError(t, err)
	assert.Zero(t, page.Total)
	assert.Zero(t, f.commentsCount(t))
}

func TestUpdate(t *testing.T) {
	f := setup(t)
	c := f.comment(t, nil, "old")

	updated, err := f.service.Update(context.Background(), c.ID, f.authorID, comments.UpdateRequest{
		Content:              strPtr("edited"),
		NewAttachments:       []attachments.CreateInput{file("new")},
		DeletedAttachmentIDs: []string{c.Attachments[0].ID},
	})
	require.NoError(t, err)
	assert.Equal(t, "edited", updated.Content)
	require.Len(t, updated.Attachments, 1)
	assert.NotEqual(t, c.Attachments[0].ID, updated.Attachments[0].ID)
	assert.False(t, f.media.Has(c.Attachments[0].PublicID))

	_, err = f.service.Update(context.Background(), c.ID, f.store.AddUser("other"), comments.UpdateRequest{Content: strPtr("x")})
	assert.True(t, apperr.IsForbidden(err))
}

func TestRemove_DeletesSubtree(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	root := f.comment(t, nil, "root-file")
	child := f.comment(t, &root.ID, "child-file")
	grandchild := f.comment(t, &child.ID)
	sibling := f.comment(t, nil)
	require.Equal(t, 4, f.commentsCount(t))

	reader := f.store.AddUser("reader")
	_, err := f.service.React(ctx, reader, reactions.Input{ParentID: grandchild.ID, Type: strPtr("LIKE")})
	require.NoError(t, err)

	require.NoError(t, f.service.Remove(ctx, root.ID, f.authorID))

	for _, id := range []string{root.ID, child.ID, grandchild.ID} {
		_, ok := f.store.Comment(id)
		assert.False(t, ok, "comment %s should be gone", id)
	}
	_, ok := f.store.Comment(sibling.ID)
	assert.True(t, ok)
	assert.Equal(t, 1, f.commentsCount(t))
	assert.Zero(t, f.media.Len())
	assert.Zero(t, f.store.ReactionRows(parents.Comment(grandchild.ID), reader))
}

func TestRemove_FailedRemoteDeleteKeepsSubtree(t *testing.T) {
	f := setup(t)
	root := f.comment(t, nil)
	child := f.comment(t, &root.ID, "child-file")
	f.media.FailDelete[child.Attachments[0].PublicID] = true

	err := f.service.Remove(context.Background(), root.ID, f.authorID)
	require.Error(t, err)
	assert.True(t, attachments.IsDeletionError(err))

	_, ok := f.store.Comment(child.ID)
	assert.True(t, ok)
	assert.Equal(t, 2, f.commentsCount(t))
}

func TestFind_ParentFilter(t *testing.T) {
	f := setup(t)
	top := f.comment(t, nil)
	reply := f.comment(t, &top.ID)

	page, err := f.service.Find(context.Background(), comments.Filter{PostID: f.postID})
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, top.ID, page.Data[0].ID)

	page, err = f.service.Find(context.Background(), comments.Filter{ParentCommentID: &top.ID})
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, reply.ID, page.Data[0].ID)

	page, err = f.service.Find(context.Background(), comments.Filter{ID: reply.ID})
	require.NoError(t, err)
	require.Len(t, page.Data, 1, "id lookup ignores the top-level default")
	assert.NotNil(t, page.Data[0].Attachments)
}

func TestReact(t *testing.T) {
	f := setup(t)
	c := f.comment(t, nil)
	reader := f.store.AddUser("reader")

	_, err := f.service.React(context.Background(), reader, reactions.Input{ParentID: c.ID, Type: strPtr("LIKE")})
	require.NoError(t, err)
	stored, _ := f.store.Comment(c.ID)
	assert.Equal(t, 1, stored.LikesCount)

	_, err = f.service.React(context.Background(), reader, reactions.Input{ParentID: c.ID, Type: strPtr("MEH")})
	assert.True(t, apperr.IsValidationError(err))

	_, err = f.service.React(context.Background(), reader, reactions.Input{Type: strPtr("LIKE")})
	assert.True(t, apperr.IsValidationError(err))
}

func TestRemoveAllByAuthor_HandlesNestedReplies(t *testing.T) {
	f := setup(t)
	root := f.comment(t, nil, "a")
	f.comment(t, &root.ID, "b")

	require.NoError(t, f.service.RemoveAllByAuthor(context.Background(), f.authorID))
	assert.Zero(t, f.commentsCount(t))
	assert.Zero(t, f.media.Len())
}

func TestNormalizeParentID(t *testing.T) {
	assert.Nil(t, comments.NormalizeParentID(nil))
	assert.Nil(t, comments.NormalizeParentID(strPtr("")))
	assert.Nil(t, comments.NormalizeParentID(strPtr("NULL")))
	assert.Equal(t, "abc", *comments.NormalizeParentID(strPtr(" abc ")))
}
