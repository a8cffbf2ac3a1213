package handlers

import (
	"net/http"

	"comicnest/internal/middleware"
	"comicnest/internal/services"

	"github.com/gin-gonic/gin"
)

type CommentHandler struct {
	comments *services.CommentService
}

func NewCommentHandler(comments *services.CommentService) *CommentHandler {
	return &CommentHandler{comments: comments}
}

type createCommentRequest struct {
	Content string `json:"content" binding:"required"`
}

type replyRequest struct {
	ParentID uint   `json:"parentId" binding:"required"`
	Content  string `json:"content" binding:"required"`
}

// Create 发表根评论 POST /comment/:chapterId
func (h *CommentHandler) Create(c *gin.Context) {
	var req createCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BindError(c, err)
		return
	}

	comment, err := h.comments.Create(c.Request.Context(), services.CreateCommentInput{
		ChapterExternalID: c.Param("chapterId"),
		AuthorID:          middleware.CurrentUserID(c),
		Content:           req.Content,
	})
	if err != nil {
		RenderError(c, err)
		return
	}
	Success(c, http.StatusCreated, gin.H{"comment": comment})
}

// Reply 回复评论 POST /comment/reply/:chapterId
func (h *CommentHandler) Reply(c *gin.Context) {
	var req replyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BindError(c, err)
		return
	}

	parentID := req.ParentID
	comment, err := h.comments.Create(c.Request.Context(), services.CreateCommentInput{
		ChapterExternalID: c.Param("chapterId"),
		AuthorID:          middleware.CurrentUserID(c),
		Content:           req.Content,
		ParentID:          &parentID,
	})
	if err != nil {
		RenderError(c, err)
		return
	}
	Success(c, http.StatusCreated, gin.H{"comment": comment})
}

// List 章节下全部评论树 GET /comment/:chapterId
func (h *CommentHandler) List(c *gin.Context) {
	roots, err := h.comments.ListChapter(c.Request.Context(), c.Param("chapterId"))
	if err != nil {
		RenderError(c, err)
		return
	}
	Success(c, http.StatusOK, gin.H{"comments": roots})
}

// Thread 以任意评论为根的子树 GET /comment/thread/:commentId
func (h *CommentHandler) Thread(c *gin.Context) {
	id, ok := pathID(c, "commentId")
	if !ok {
		return
	}
	node, err := h.comments.Thread(c.Request.Context(), id)
	if err != nil {
		RenderError(c, err)
		return
	}
	Success(c, http.StatusOK, gin.H{"comment": node})
}

func (h *CommentHandler) Like(c *gin.Context) {
	id, ok := pathID(c, "commentId")
	if !ok {
		return
	}
	res, err := h.comments.ToggleLike(c.Request.Context(), id, middleware.CurrentUserID(c))
	if err != nil {
		RenderError(c, err)
		return
	}
	Success(c, http.StatusOK, gin.H{"likes": res.Likes, "dislikes": res.Dislikes, "reaction": res.State})
}

func (h *CommentHandler) Dislike(c *gin.Context) {
	id, ok := pathID(c, "commentId")
	if !ok {
		return
	}
	res, err := h.comments.ToggleDislike(c.Request.Context(), id, middleware.CurrentUserID(c))
	if err != nil {
		RenderError(c, err)
		return
	}
	Success(c, http.StatusOK, gin.H{"likes": res.Likes, "dislikes": res.Dislikes, "reaction": res.State})
}

// Delete 删除评论及其全部回复 DELETE /comment/:commentId
func (h *CommentHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "commentId")
	if !ok {
		return
	}
	res, err := h.comments.Delete(c.Request.Context(), id, middleware.CurrentUserID(c))
	if err != nil {
		RenderError(c, err)
		return
	}
	Success(c, http.StatusOK, gin.H{
		"message": "Comment and its replies deleted successfully",
		"deleted": res.Deleted,
	})
}
