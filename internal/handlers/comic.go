package handlers

import (
	"net/http"

	"comicnest/internal/middleware"
	"comicnest/internal/services"

	"github.com/gin-gonic/gin"
)

type ComicHandler struct {
	comics *services.ComicService
}

func NewComicHandler(comics *services.ComicService) *ComicHandler {
	return &ComicHandler{comics: comics}
}

type followRequest struct {
	ComicID uint `json:"comicId" binding:"required"`
}

// ViewComic 增加漫画浏览量，登录用户顺带写入阅读历史
func (h *ComicHandler) ViewComic(c *gin.Context) {
	comic, err := h.comics.RecordComicView(c.Request.Context(), c.Param("slug"), middleware.CurrentUserID(c))
	if err != nil {
		RenderError(c, err)
		return
	}
	Success(c, http.StatusOK, gin.H{"views": comic.Views})
}

func (h *ComicHandler) ViewChapter(c *gin.Context) {
	views, err := h.comics.RecordChapterView(c.Request.Context(), c.Param("externalId"))
	if err != nil {
		RenderError(c, err)
		return
	}
	Success(c, http.StatusOK, gin.H{"views": views})
}

// Follow 关注/取消关注
func (h *ComicHandler) Follow(c *gin.Context) {
	var req followRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BindError(c, err)
		return
	}

	res, err := h.comics.ToggleFollow(c.Request.Context(), middleware.CurrentUserID(c), req.ComicID)
	if err != nil {
		RenderError(c, err)
		return
	}
	if res.Followed {
		Success(c, http.StatusCreated, gin.H{
			"message":   "Followed successfully.",
			"follow":    res.Follow,
			"followers": res.Followers,
		})
		return
	}
	Success(c, http.StatusOK, gin.H{"message": "Unfollowed successfully.", "followers": res.Followers})
}

func (h *ComicHandler) TopComics(c *gin.Context) {
	comics, err := h.comics.TopComics(c.Request.Context(), c.Query("period"))
	if err != nil {
		RenderError(c, err)
		return
	}
	Success(c, http.StatusOK, gin.H{"result": comics})
}

func (h *ComicHandler) Metrics(c *gin.Context) {
	m, err := h.comics.Metrics(c.Request.Context(), c.Param("slug"), middleware.CurrentUserID(c))
	if err != nil {
		RenderError(c, err)
		return
	}
	Success(c, http.StatusOK, gin.H{"result": m})
}
