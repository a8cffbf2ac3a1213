package services

import (
	"context"
	"errors"
	"time"

	"comicnest/internal/apperr"
	"comicnest/internal/models"
	"comicnest/internal/utils"

	"gorm.io/gorm"
)

type UserSummary struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar,omitempty"`
}

type ParentSummary struct {
	ID   uint         `json:"id"`
	User *UserSummary `json:"user"`
}

type ChapterSummary struct {
	ID            uint    `json:"id"`
	ExternalID    string  `json:"external_id"`
	ChapterNumber float64 `json:"chapter_number"`
}

// CommentNode 一条评论及其完整回复子树，供前端直接渲染
type CommentNode struct {
	ID          uint           `json:"id"`
	Chapter     ChapterSummary `json:"chapter"`
	User        *UserSummary   `json:"user"`
	Parent      *ParentSummary `json:"parent"`
	Content     string         `json:"content"`
	ContentHTML string         `json:"content_html"`
	Likes       int            `json:"likes"`
	Dislikes    int            `json:"dislikes"`
	LikedBy     []uint         `json:"liked_by"`
	DislikedBy  []uint         `json:"disliked_by"`
	Replies     []*CommentNode `json:"replies"`
	CreatedAt   time.Time      `json:"created_at"`
}

// TreeBuilder assembles nested comment trees from the flat, id-indexed store.
// Construction is iterative: every node is materialised first, then attached to
// its parent in creation order, so reply depth never grows the call stack.
type TreeBuilder struct {
	db     *gorm.DB
	render func(string) string
}

func NewTreeBuilder(db *gorm.DB) *TreeBuilder {
	return &TreeBuilder{db: db, render: utils.RenderComment}
}

// BuildChapter returns every root comment of the chapter with its full reply tree.
func (b *TreeBuilder) BuildChapter(ctx context.Context, chapter *models.Chapter) ([]*CommentNode, error) {
	comments, err := NewCommentStore(b.db).ListByChapter(ctx, chapter.ID)
	if err != nil {
		return nil, err
	}

	rootIDs := make([]uint, 0)
	for _, c := range comments {
		if c.ParentID == nil {
			rootIDs = append(rootIDs, c.ID)
		}
	}

	nodes, err := b.assemble(ctx, chapter, comments)
	if err != nil {
		return nil, err
	}

	roots := make([]*CommentNode, 0, len(rootIDs))
	for _, id := range rootIDs {
		roots = append(roots, nodes[id])
	}
	return roots, nil
}

// Build returns the tree rooted at any comment, reply or root.
func (b *TreeBuilder) Build(ctx context.Context, commentID uint) (*CommentNode, error) {
	store := NewCommentStore(b.db)
	target, err := store.Get(ctx, commentID)
	if err != nil {
		return nil, err
	}

	descendants, err := store.Descendants(ctx, target.ID)
	if err != nil {
		return nil, err
	}

	chapter, err := NewChapterDirectory(b.db).Get(ctx, target.ChapterID)
	if err != nil {
		if !errors.Is(err, apperr.ErrNotFound) {
			return nil, err
		}
		chapter = &models.Chapter{ID: target.ChapterID}
	}

	comments := append([]models.Comment{*target}, descendants...)
	nodes, err := b.assemble(ctx, chapter, comments)
	if err != nil {
		return nil, err
	}
	root := nodes[target.ID]

	// 目标本身是回复时，父评论不在子树里，单独补上父评论作者
	if target.ParentID != nil {
		parent, err := store.Get(ctx, *target.ParentID)
		switch {
		case err == nil:
			users, err := NewUserDirectory(b.db).Lookup(ctx, []uint{parent.UserID})
			if err != nil {
				return nil, err
			}
			root.Parent = &ParentSummary{ID: parent.ID, User: summarize(users, parent.UserID)}
		case errors.Is(err, apperr.ErrNotFound):
			root.Parent = &ParentSummary{ID: *target.ParentID}
		default:
			return nil, err
		}
	}
	return root, nil
}

// assemble turns a flat slice (parents before children, creation order) into linked nodes.
func (b *TreeBuilder) assemble(ctx context.Context, chapter *models.Chapter, comments []models.Comment) (map[uint]*CommentNode, error) {
	ids := make([]uint, 0, len(comments))
	authorSet := make(map[uint]struct{})
	authorIDs := make([]uint, 0)
	for _, c := range comments {
		ids = append(ids, c.ID)
		if _, ok := authorSet[c.UserID]; !ok {
			authorSet[c.UserID] = struct{}{}
			authorIDs = append(authorIDs, c.UserID)
		}
	}

	users, err := NewUserDirectory(b.db).Lookup(ctx, authorIDs)
	if err != nil {
		return nil, err
	}
	reactions, err := NewCommentStore(b.db).Reactions(ctx, ids)
	if err != nil {
		return nil, err
	}

	chapterInfo := ChapterSummary{
		ID:            chapter.ID,
		ExternalID:    chapter.ExternalID,
		ChapterNumber: chapter.ChapterNumber,
	}

	nodes := make(map[uint]*CommentNode, len(comments))
	for _, c := range comments {
		nodes[c.ID] = &CommentNode{
			ID:          c.ID,
			Chapter:     chapterInfo,
			User:        summarize(users, c.UserID),
			Content:     c.Content,
			ContentHTML: b.render(c.Content),
			Likes:       c.Likes,
			Dislikes:    c.Dislikes,
			LikedBy:     make([]uint, 0),
			DislikedBy:  make([]uint, 0),
			Replies:     make([]*CommentNode, 0),
			CreatedAt:   c.CreatedAt,
		}
	}

	for _, r := range reactions {
		node, ok := nodes[r.CommentID]
		if !ok {
			continue
		}
		switch r.State {
		case models.ReactionLiked:
			node.LikedBy = append(node.LikedBy, r.UserID)
		case models.ReactionDisliked:
			node.DislikedBy = append(node.DislikedBy, r.UserID)
		}
	}

	for _, c := range comments {
		if c.ParentID == nil {
			continue
		}
		parent, ok := nodes[*c.ParentID]
		if !ok {
			// 父评论已被删除（与删除并发创建的回复），不挂到任何树上
			continue
		}
		node := nodes[c.ID]
		node.Parent = &ParentSummary{ID: parent.ID, User: parent.User}
		parent.Replies = append(parent.Replies, node)
	}
	return nodes, nil
}

func summarize(users map[uint]models.User, id uint) *UserSummary {
	u, ok := users[id]
	if !ok {
		return &UserSummary{ID: id}
	}
	return &UserSummary{ID: u.ID, Username: u.Username, Avatar: u.Avatar}
}
