package handlers

import (
	"net/http"

	"comicnest/internal/middleware"
	"comicnest/internal/services"
	"comicnest/internal/utils"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	users *services.UserService
}

func NewUserHandler(users *services.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// Wishlists 追更列表 GET /user/wishlists?page=&items=
func (h *UserHandler) Wishlists(c *gin.Context) {
	page, items := utils.ParsePaging(c.Query("page"), c.Query("items"))
	comics, pagination, err := h.users.Wishlist(c.Request.Context(), middleware.CurrentUserID(c), page, items)
	if err != nil {
		RenderError(c, err)
		return
	}
	Success(c, http.StatusOK, gin.H{"result": comics, "pagination": pagination})
}

// History 阅读历史 GET /user/history?page=&items=
func (h *UserHandler) History(c *gin.Context) {
	page, items := utils.ParsePaging(c.Query("page"), c.Query("items"))
	comics, pagination, err := h.users.History(c.Request.Context(), middleware.CurrentUserID(c), page, items)
	if err != nil {
		RenderError(c, err)
		return
	}
	Success(c, http.StatusOK, gin.H{"result": comics, "pagination": pagination})
}

func (h *UserHandler) Comments(c *gin.Context) {
	ids, err := h.users.Comments(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		RenderError(c, err)
		return
	}
	Success(c, http.StatusOK, gin.H{"result": ids, "total": len(ids)})
}
