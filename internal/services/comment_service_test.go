package services

import (
	"errors"
	"strings"
	"testing"

	"comicnest/internal/apperr"
	"comicnest/internal/models"
	"comicnest/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)
	_, otherChapter := testutil.CreateChapter(t, f.db, "ch-y")
	foreign, err := f.svc.Create(f.ctx, CreateCommentInput{
		ChapterExternalID: otherChapter.ExternalID,
		AuthorID:          f.alice.ID,
		Content:           "elsewhere",
	})
	require.NoError(t, err)

	missing := uint(777)
	tests := []struct {
		name   string
		in     CreateCommentInput
		kind   error
		status int
	}{
		{
			name:   "empty content",
			in:     CreateCommentInput{ChapterExternalID: "ch-x", AuthorID: f.alice.ID, Content: "   "},
			kind:   apperr.ErrValidation,
			status: 400,
		},
		{
			name:   "content too long",
			in:     CreateCommentInput{ChapterExternalID: "ch-x", AuthorID: f.alice.ID, Content: strings.Repeat("字", 201)},
			kind:   apperr.ErrValidation,
			status: 400,
		},
		{
			name:   "unknown chapter",
			in:     CreateCommentInput{ChapterExternalID: "nope", AuthorID: f.alice.ID, Content: "hi"},
			kind:   apperr.ErrNotFound,
			status: 404,
		},
		{
			name:   "unknown author",
			in:     CreateCommentInput{ChapterExternalID: "ch-x", AuthorID: 9999, Content: "hi"},
			kind:   apperr.ErrUnauthorized,
			status: 401,
		},
		{
			name:   "unknown parent",
			in:     CreateCommentInput{ChapterExternalID: "ch-x", AuthorID: f.alice.ID, Content: "hi", ParentID: &missing},
			kind:   apperr.ErrValidation,
			status: 400,
		},
		{
			name:   "parent on another chapter",
			in:     CreateCommentInput{ChapterExternalID: "ch-x", AuthorID: f.alice.ID, Content: "hi", ParentID: &foreign.ID},
			kind:   apperr.ErrValidation,
			status: 400,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Create(f.ctx, tt.in)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.kind), "got %v", err)
			assert.Equal(t, tt.status, apperr.Status(err))
		})
	}

	// 失败的创建不会留下任何副作用
	chapter, _ := f.commentCount(t)
	assert.Equal(t, 0, chapter)
	assert.Len(t, f.refs(t, f.alice), 1)
}

func TestCreateTrimsContent(t *testing.T) {
	f := newFixture(t)
	c := f.post(t, f.alice, "  Hello \n")
	assert.Equal(t, "Hello", c.Content)
	assert.True(t, c.IsRoot())
}

// 发表、回复、点赞、越权删除、删除的完整流程
func TestCommentLifecycle(t *testing.T) {
	f := newFixture(t)

	hello := f.post(t, f.alice, "Hello")
	chapter, comic := f.commentCount(t)
	assert.Equal(t, 1, chapter)
	assert.Equal(t, 1, comic)

	roots, err := f.svc.ListChapter(f.ctx, f.chapter.ExternalID)
	require.NoError(t, err)
	require.Len(t, roots, 1)
	assert.Equal(t, "Hello", roots[0].Content)
	assert.Empty(t, roots[0].Replies)

	hi := f.reply(t, f.bob, hello, "Hi")
	children, err := NewCommentStore(f.db).ChildIDs(f.ctx, hello.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{hi.ID}, children)
	chapter, _ = f.commentCount(t)
	assert.Equal(t, 2, chapter)

	// 缓存在回复后已失效
	roots, err = f.svc.ListChapter(f.ctx, f.chapter.ExternalID)
	require.NoError(t, err)
	require.Len(t, roots, 1)
	require.Len(t, roots[0].Replies, 1)
	assert.Equal(t, "Hi", roots[0].Replies[0].Content)

	res, err := f.svc.ToggleLike(f.ctx, hi.ID, f.alice.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Likes)
	res, err = f.svc.ToggleDislike(f.ctx, hi.ID, f.alice.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Likes)
	assert.Equal(t, 1, res.Dislikes)

	_, err = f.svc.Delete(f.ctx, hello.ID, f.bob.ID)
	require.Error(t, err)
	assert.EqualValues(t, 2, f.rowCount(t, &models.Comment{}))

	_, err = f.svc.Delete(f.ctx, hello.ID, f.alice.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 0, f.rowCount(t, &models.Comment{}))
	chapter, comic = f.commentCount(t)
	assert.Equal(t, 0, chapter)
	assert.Equal(t, 0, comic)
	assert.NotContains(t, f.refs(t, f.bob), hi.ID)

	roots, err = f.svc.ListChapter(f.ctx, f.chapter.ExternalID)
	require.NoError(t, err)
	assert.Empty(t, roots)
}

func TestListChapterUsesCache(t *testing.T) {
	f := newFixture(t)
	hello := f.post(t, f.alice, "Hello")

	_, err := f.svc.ListChapter(f.ctx, f.chapter.ExternalID)
	require.NoError(t, err)
	assert.NotNil(t, f.cache.Get(treeCacheKey(f.chapter.ID)))

	_, err = f.svc.ToggleLike(f.ctx, hello.ID, f.bob.ID)
	require.NoError(t, err)
	assert.Nil(t, f.cache.Get(treeCacheKey(f.chapter.ID)))
}

func TestListChapterUnknown(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.ListChapter(f.ctx, "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}

func TestListChapterDoesNotCacheTreeBuiltBeforeWrite(t *testing.T) {
	f := newFixture(t)
	f.post(t, f.alice, "first")

	// 构建树时刚读完评论行，另一个请求提交了新评论
	f.afterCommentQuery(t, func() {
		f.post(t, f.bob, "second")
	})

	roots, err := f.svc.ListChapter(f.ctx, f.chapter.ExternalID)
	require.NoError(t, err)
	assert.Len(t, roots, 1, "the in-flight read saw only the first comment")
	assert.Nil(t, f.cache.Get(treeCacheKey(f.chapter.ID)))

	roots, err = f.svc.ListChapter(f.ctx, f.chapter.ExternalID)
	require.NoError(t, err)
	require.Len(t, roots, 2)
	assert.Equal(t, "second", roots[1].Content)
}

func TestListChapterDoesNotCacheTreeAcrossDelete(t *testing.T) {
	f := newFixture(t)
	gone := f.post(t, f.alice, "gone")
	f.post(t, f.bob, "stays")

	f.afterCommentQuery(t, func() {
		_, err := f.svc.Delete(f.ctx, gone.ID, f.alice.ID)
		require.NoError(t, err)
	})

	_, err := f.svc.ListChapter(f.ctx, f.chapter.ExternalID)
	require.NoError(t, err)

	roots, err := f.svc.ListChapter(f.ctx, f.chapter.ExternalID)
	require.NoError(t, err)
	require.Len(t, roots, 1)
	assert.Equal(t, "stays", roots[0].Content)
}
