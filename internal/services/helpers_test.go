package services

import (
	"context"
	"sync/atomic"
	"testing"

	"comicnest/internal/models"
	"comicnest/internal/testutil"
	"comicnest/internal/utils"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	ctx        context.Context
	db         *gorm.DB
	svc        *CommentService
	cache      *utils.GlobalCache
	comic      *models.Comic
	chapter    *models.Chapter
	alice      *models.User
	bob        *models.User
	reconciler *CounterReconciler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gdb := testutil.NewDB(t)
	cache, err := utils.NewCache(100)
	require.NoError(t, err)

	comic, chapter := testutil.CreateChapter(t, gdb, "ch-x")
	reconciler := NewCounterReconciler(gdb)
	return &fixture{
		ctx:   context.Background(),
		db:    gdb,
		cache: cache,
		svc: NewCommentService(gdb, CommentOptions{
			MaxContentLength: 200,
			Cache:            cache,
			Reconciler:       reconciler,
		}),
		comic:      comic,
		chapter:    chapter,
		alice:      testutil.CreateUser(t, gdb, "alice"),
		bob:        testutil.CreateUser(t, gdb, "bob"),
		reconciler: reconciler,
	}
}

func (f *fixture) post(t *testing.T, author *models.User, content string) *models.Comment {
	t.Helper()
	c, err := f.svc.Create(f.ctx, CreateCommentInput{
		ChapterExternalID: f.chapter.ExternalID,
		AuthorID:          author.ID,
		Content:           content,
	})
	require.NoError(t, err)
	return c
}

func (f *fixture) reply(t *testing.T, author *models.User, parent *models.Comment, content string) *models.Comment {
	t.Helper()
	parentID := parent.ID
	c, err := f.svc.Create(f.ctx, CreateCommentInput{
		ChapterExternalID: f.chapter.ExternalID,
		AuthorID:          author.ID,
		Content:           content,
		ParentID:          &parentID,
	})
	require.NoError(t, err)
	return c
}

func (f *fixture) commentCount(t *testing.T) (chapter, comic int) {
	t.Helper()
	ch := testutil.Reload[models.Chapter](t, f.db, f.chapter.ID)
	co := testutil.Reload[models.Comic](t, f.db, f.comic.ID)
	return ch.CommentCount, co.TotalComments
}

func (f *fixture) refs(t *testing.T, user *models.User) []uint {
	t.Helper()
	ids, err := NewUserDirectory(f.db).CommentRefs(f.ctx, user.ID)
	require.NoError(t, err)
	return ids
}

func (f *fixture) rowCount(t *testing.T, model interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(model).Count(&n).Error)
	return n
}

// afterCommentQuery runs fn once, right after the next SELECT on the comments table has
// read its rows. It lets a test commit a concurrent write in the middle of a read.
func (f *fixture) afterCommentQuery(t *testing.T, fn func()) {
	t.Helper()
	const name = "test:after_comment_query"
	var fired atomic.Bool
	require.NoError(t, f.db.Callback().Query().After("gorm:query").Register(name, func(tx *gorm.DB) {
		if tx.Statement.Table != "comments" || !fired.CompareAndSwap(false, true) {
			return
		}
		fn()
	}))
	t.Cleanup(func() { _ = f.db.Callback().Query().Remove(name) })
}
