package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"comicnest/internal/apperr"
	"comicnest/internal/models"
	"comicnest/internal/utils"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type CommentOptions struct {
	MaxContentLength int
	TreeCacheTTL     time.Duration
	Cache            *utils.GlobalCache
	Reconciler       *CounterReconciler
}

// CommentService 评论子系统入口：发表、回复、列表、点赞/点踩、级联删除
type CommentService struct {
	db         *gorm.DB
	opts       CommentOptions
	tree       *TreeBuilder
	reactions  *ReactionToggler
	deleter    *CascadeDeleter
	cache      *utils.GlobalCache
	reconciler *CounterReconciler

	// 每个章节的树缓存版本号，写操作递增；构建期间版本变了的树不写回缓存
	genMu sync.Mutex
	gens  map[uint]uint64
}

func NewCommentService(db *gorm.DB, opts CommentOptions) *CommentService {
	if opts.MaxContentLength <= 0 {
		opts.MaxContentLength = 5000
	}
	if opts.TreeCacheTTL <= 0 {
		opts.TreeCacheTTL = 2 * time.Minute
	}
	return &CommentService{
		db:         db,
		opts:       opts,
		tree:       NewTreeBuilder(db),
		reactions:  NewReactionToggler(db),
		deleter:    NewCascadeDeleter(db),
		cache:      opts.Cache,
		reconciler: opts.Reconciler,
		gens:       make(map[uint]uint64),
	}
}

type CreateCommentInput struct {
	ChapterExternalID string
	AuthorID          uint
	Content           string
	ParentID          *uint
}

func treeCacheKey(chapterID uint) string {
	return fmt.Sprintf("comment:tree:%d", chapterID)
}

// invalidateTree 在写操作提交之后调用
func (s *CommentService) invalidateTree(chapterID uint) {
	s.genMu.Lock()
	s.gens[chapterID]++
	s.cache.Delete(treeCacheKey(chapterID))
	s.genMu.Unlock()
}

func (s *CommentService) treeGeneration(chapterID uint) uint64 {
	s.genMu.Lock()
	defer s.genMu.Unlock()
	return s.gens[chapterID]
}

// storeTree caches roots only if no write committed since gen was read.
func (s *CommentService) storeTree(chapterID uint, gen uint64, roots []*CommentNode) bool {
	s.genMu.Lock()
	defer s.genMu.Unlock()
	if s.gens[chapterID] != gen {
		return false
	}
	s.cache.Set(treeCacheKey(chapterID), roots, s.opts.TreeCacheTTL)
	return true
}

// Create stores a root comment or, when ParentID is set, a reply.
// The comment row, the author's reference and both counters are written in one transaction.
func (s *CommentService) Create(ctx context.Context, in CreateCommentInput) (*models.Comment, error) {
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, apperr.Validation("Content is required")
	}
	if utf8.RuneCountInString(content) > s.opts.MaxContentLength {
		return nil, apperr.Validation(fmt.Sprintf("Content must be at most %d characters", s.opts.MaxContentLength))
	}

	var comment models.Comment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		chapters := NewChapterDirectory(tx)
		users := NewUserDirectory(tx)
		store := NewCommentStore(tx)

		// 章节不存在按 404 处理，和列表接口一致；父评论不存在才是请求参数错误
		chapter, err := chapters.ResolveExternal(ctx, in.ChapterExternalID)
		if err != nil {
			return err
		}

		exists, err := users.Exists(ctx, in.AuthorID)
		if err != nil {
			return err
		}
		if !exists {
			return apperr.Unauthorized("User not found")
		}

		if in.ParentID != nil {
			parent, err := store.Get(ctx, *in.ParentID)
			if err != nil {
				if errors.Is(err, apperr.ErrNotFound) {
					return apperr.Validation("Parent comment not found")
				}
				return err
			}
			if parent.ChapterID != chapter.ID {
				return apperr.Validation("Parent comment belongs to another chapter")
			}
		}

		comment = models.Comment{
			ChapterID: chapter.ID,
			UserID:    in.AuthorID,
			ParentID:  in.ParentID,
			Content:   content,
		}
		if err := store.Create(ctx, &comment); err != nil {
			return err
		}
		if err := users.AppendCommentRef(ctx, in.AuthorID, comment.ID); err != nil {
			return err
		}
		return chapters.AdjustCommentCount(ctx, chapter, 1)
	})
	if err != nil {
		return nil, err
	}

	s.invalidateTree(comment.ChapterID)
	kind := "root"
	if !comment.IsRoot() {
		kind = "reply"
	}
	commentsCreated.WithLabelValues(kind).Inc()
	log.Debug().Uint("comment_id", comment.ID).Uint("chapter_id", comment.ChapterID).Str("kind", kind).Msg("comment created")

	return &comment, nil
}

// ListChapter returns every root comment of the chapter with nested replies.
func (s *CommentService) ListChapter(ctx context.Context, chapterExternalID string) ([]*CommentNode, error) {
	chapter, err := NewChapterDirectory(s.db).ResolveExternal(ctx, chapterExternalID)
	if err != nil {
		return nil, err
	}

	if cached, ok := s.cache.Get(treeCacheKey(chapter.ID)).([]*CommentNode); ok {
		treeCacheLookups.WithLabelValues("hit").Inc()
		return cached, nil
	}
	treeCacheLookups.WithLabelValues("miss").Inc()

	gen := s.treeGeneration(chapter.ID)
	roots, err := s.tree.BuildChapter(ctx, chapter)
	if err != nil {
		return nil, err
	}
	if !s.storeTree(chapter.ID, gen, roots) {
		log.Debug().Uint("chapter_id", chapter.ID).Msg("comment tree changed while building, not cached")
	}
	return roots, nil
}

// Thread returns the tree rooted at a single comment.
func (s *CommentService) Thread(ctx context.Context, commentID uint) (*CommentNode, error) {
	return s.tree.Build(ctx, commentID)
}

func (s *CommentService) ToggleLike(ctx context.Context, commentID, userID uint) (*ReactionResult, error) {
	return s.toggle(ctx, commentID, userID, ActionLike)
}

func (s *CommentService) ToggleDislike(ctx context.Context, commentID, userID uint) (*ReactionResult, error) {
	return s.toggle(ctx, commentID, userID, ActionDislike)
}

func (s *CommentService) toggle(ctx context.Context, commentID, userID uint, action ReactionAction) (*ReactionResult, error) {
	res, err := s.reactions.Toggle(ctx, commentID, userID, action)
	if err != nil {
		return nil, err
	}
	s.invalidateTree(res.ChapterID)
	state := string(res.State)
	if state == "" {
		state = "none"
	}
	reactionsToggled.WithLabelValues(string(action), state).Inc()
	return res, nil
}

// Delete removes the comment and its whole reply subtree; only the author may do this.
func (s *CommentService) Delete(ctx context.Context, commentID, requesterID uint) (*DeleteResult, error) {
	res, err := s.deleter.Delete(ctx, commentID, requesterID)
	if err != nil {
		return nil, err
	}

	s.invalidateTree(res.ChapterID)
	if res.Deleted > 0 {
		commentsDeleted.Add(float64(res.Deleted))
		s.reconciler.ScheduleUpdate(res.ChapterID)
	}
	log.Info().
		Uint("comment_id", commentID).
		Uint("user_id", requesterID).
		Int64("deleted", res.Deleted).
		Msg("comment thread deleted")
	return res, nil
}
