package middleware

import (
	"errors"
	"net/http"
	"strings"

	"comicnest/internal/apperr"
	"comicnest/internal/services"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const (
	CheckUserKey   = "user_id"
	TokenCookie    = "token"
	SessionUserKey = "user_id"
)

// resolveUserID 依次尝试 Authorization: Bearer、token cookie、session。
// 没有任何凭证时返回 (0, nil)；有凭证但无效时返回错误。
func resolveUserID(c *gin.Context, auth *services.AuthService) (uint, error) {
	if header := c.GetHeader("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			return 0, apperr.Unauthorized("Invalid authorization header format")
		}
		return auth.ParseToken(strings.TrimSpace(parts[1]))
	}

	if token, err := c.Cookie(TokenCookie); err == nil && token != "" {
		return auth.ParseToken(token)
	}

	switch v := sessions.Default(c).Get(SessionUserKey).(type) {
	case uint:
		return v, nil
	case int:
		if v > 0 {
			return uint(v), nil
		}
	case int64:
		if v > 0 {
			return uint(v), nil
		}
	case float64:
		if v > 0 {
			return uint(v), nil
		}
	}
	return 0, nil
}

// Authenticate 必须登录，且用户仍然存在，否则 401
func Authenticate(auth *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := resolveUserID(c, auth)
		if err != nil {
			abortUnauthorized(c, err)
			return
		}
		if userID == 0 {
			abortUnauthorized(c, apperr.Unauthorized("Not authorized, no token"))
			return
		}
		if _, err := auth.CurrentUser(c.Request.Context(), userID); err != nil {
			abortUnauthorized(c, err)
			return
		}

		c.Set(CheckUserKey, userID)
		c.Next()
	}
}

// OptionalAuth 有合法凭证时注入用户 id，从不拦截请求
func OptionalAuth(auth *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := resolveUserID(c, auth)
		if err == nil && userID != 0 {
			if _, err := auth.CurrentUser(c.Request.Context(), userID); err == nil {
				c.Set(CheckUserKey, userID)
			}
		}
		c.Next()
	}
}

// CurrentUserID 当前请求的用户 id，匿名请求返回 0
func CurrentUserID(c *gin.Context) uint {
	if v, ok := c.Get(CheckUserKey); ok {
		if id, ok := v.(uint); ok {
			return id
		}
	}
	return 0
}

func abortUnauthorized(c *gin.Context, err error) {
	status := http.StatusUnauthorized
	if !errors.Is(err, apperr.ErrUnauthorized) {
		status = apperr.Status(err)
	}
	c.AbortWithStatusJSON(status, gin.H{"message": apperr.Message(err)})
}
