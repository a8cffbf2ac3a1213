package handlers

import (
	"net/http"
	"time"

	"comicnest/internal/middleware"
	"comicnest/internal/services"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type AuthHandler struct {
	auth         *services.AuthService
	secureCookie bool
}

func NewAuthHandler(auth *services.AuthService, secureCookie bool) *AuthHandler {
	return &AuthHandler{auth: auth, secureCookie: secureCookie}
}

type registerRequest struct {
	Username string `json:"username" binding:"required,min=2,max=32"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6,max=72"`
	Avatar   string `json:"avatar" binding:"max=255"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BindError(c, err)
		return
	}

	user, err := h.auth.Register(c.Request.Context(), services.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Avatar:   req.Avatar,
	})
	if err != nil {
		RenderError(c, err)
		return
	}
	Success(c, http.StatusCreated, gin.H{
		"message": "Registered successfully",
		"result":  user,
	})
}

// Login 校验密码后签发 token：响应体、token cookie、session 三处都写，前端任选其一
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BindError(c, err)
		return
	}

	user, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		RenderError(c, err)
		return
	}

	token, expiresAt, err := h.auth.IssueToken(user.ID)
	if err != nil {
		RenderError(c, err)
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.TokenCookie, token, int(time.Until(expiresAt).Seconds()), "/", "", h.secureCookie, true)

	session := sessions.Default(c)
	session.Set(middleware.SessionUserKey, user.ID)
	if err := session.Save(); err != nil {
		log.Warn().Err(err).Uint("user_id", user.ID).Msg("failed to save session")
	}

	Success(c, http.StatusOK, gin.H{
		"message": "Successfully login user",
		"token":   token,
		"result": gin.H{
			"id":       user.ID,
			"username": user.Username,
			"email":    user.Email,
			"avatar":   user.Avatar,
		},
	})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	c.SetCookie(middleware.TokenCookie, "", -1, "/", "", h.secureCookie, true)

	session := sessions.Default(c)
	session.Clear()
	_ = session.Save()

	Success(c, http.StatusOK, gin.H{"message": "Successfully logout user"})
}

// Me 当前登录用户
func (h *AuthHandler) Me(c *gin.Context) {
	user, err := h.auth.CurrentUser(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		RenderError(c, err)
		return
	}
	Success(c, http.StatusOK, gin.H{"result": user})
}
