package services

import (
	"context"
	"sync"
	"time"

	"comicnest/internal/models"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// CounterReconciler 异步重算章节评论数和漫画评论总数。
// 级联删除在事务里已经调整过计数；这里按评论表实际行数再校正一次，
// 用来修复进程在步骤之间崩溃留下的陈旧计数。
type CounterReconciler struct {
	db      *gorm.DB
	queue   chan uint // 待校正的章节 ID
	pending map[uint]bool
	mu      sync.Mutex
}

func NewCounterReconciler(db *gorm.DB) *CounterReconciler {
	return &CounterReconciler{
		db:      db,
		queue:   make(chan uint, 1000),
		pending: make(map[uint]bool),
	}
}

// Start runs the background worker until ctx is cancelled.
func (s *CounterReconciler) Start(ctx context.Context) {
	go s.worker(ctx)
}

// ScheduleUpdate 将章节加入校正队列，短时间内重复提交的同一章节只处理一次
func (s *CounterReconciler) ScheduleUpdate(chapterID uint) {
	if s == nil {
		return
	}
	s.mu.Lock()
	if s.pending[chapterID] {
		s.mu.Unlock()
		return
	}
	s.pending[chapterID] = true
	s.mu.Unlock()

	select {
	case s.queue <- chapterID:
	default:
		// 队列满了，移除 pending 标记
		s.mu.Lock()
		delete(s.pending, chapterID)
		s.mu.Unlock()
		log.Warn().Uint("chapter_id", chapterID).Msg("counter reconcile queue full, skipping")
	}
}

func (s *CounterReconciler) worker(ctx context.Context) {
	batch := make([]uint, 0, 50)
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if len(batch) > 0 {
				s.processBatch(context.Background(), batch)
			}
			return
		case chapterID := <-s.queue:
			batch = append(batch, chapterID)
			if len(batch) >= 50 {
				s.processBatch(ctx, batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				s.processBatch(ctx, batch)
				batch = batch[:0]
			}
		}
	}
}

func (s *CounterReconciler) processBatch(ctx context.Context, chapterIDs []uint) {
	for _, chapterID := range chapterIDs {
		if err := s.Reconcile(ctx, chapterID); err != nil {
			log.Error().Err(err).Uint("chapter_id", chapterID).Msg("failed to reconcile comment counters")
		}

		s.mu.Lock()
		delete(s.pending, chapterID)
		s.mu.Unlock()
	}
}

// Reconcile sets the chapter's comment_count to the number of comments the tree shows and
// recomputes the owning comic's total from its chapters.
func (s *CounterReconciler) Reconcile(ctx context.Context, chapterID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var chapter models.Chapter
		found := tx.Where("id = ?", chapterID).Limit(1).Find(&chapter)
		if found.Error != nil {
			return found.Error
		}
		if found.RowsAffected == 0 {
			return nil
		}

		if err := reconcileChapter(tx, chapterID); err != nil {
			return err
		}
		return reconcileComic(tx, chapter.ComicID)
	})
}

// ReconcileAll 全量校正，供 migrate --reconcile 使用
func (s *CounterReconciler) ReconcileAll(ctx context.Context) (int, error) {
	var comicIDs []uint
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var chapterIDs []uint
		if err := tx.Model(&models.Chapter{}).Pluck("id", &chapterIDs).Error; err != nil {
			return err
		}
		for _, id := range chapterIDs {
			if err := reconcileChapter(tx, id); err != nil {
				return err
			}
		}
		if err := tx.Model(&models.Comic{}).Pluck("id", &comicIDs).Error; err != nil {
			return err
		}
		for _, id := range comicIDs {
			if err := reconcileComic(tx, id); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	log.Info().Int("comics", len(comicIDs)).Msg("comment counters reconciled")
	return len(comicIDs), nil
}

type commentLink struct {
	ID       uint
	ParentID *uint
}

// visibleCount 统计从根评论可达的评论数。父评论已被删除的回复在树里不显示，这里也不计
func visibleCount(tx *gorm.DB, chapterID uint) (int, error) {
	var links []commentLink
	if err := tx.Model(&models.Comment{}).
		Select("id, parent_id").
		Where("chapter_id = ?", chapterID).
		Find(&links).Error; err != nil {
		return 0, err
	}

	children := make(map[uint][]uint, len(links))
	stack := make([]uint, 0)
	for _, l := range links {
		if l.ParentID == nil {
			stack = append(stack, l.ID)
			continue
		}
		children[*l.ParentID] = append(children[*l.ParentID], l.ID)
	}

	count := 0
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		count++
		stack = append(stack, children[id]...)
	}
	return count, nil
}

func reconcileChapter(tx *gorm.DB, chapterID uint) error {
	n, err := visibleCount(tx, chapterID)
	if err != nil {
		return err
	}
	return tx.Model(&models.Chapter{}).
		Where("id = ?", chapterID).
		UpdateColumn("comment_count", n).Error
}

func reconcileComic(tx *gorm.DB, comicID uint) error {
	return tx.Exec(
		"UPDATE comics SET total_comments = (SELECT COALESCE(SUM(comment_count), 0) FROM chapters WHERE chapters.comic_id = comics.id) WHERE id = ?",
		comicID,
	).Error
}
