package handler

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/pressroom/internal/service"
	"go.uber.org/zap"
)

const (
	sessionTokenKey    = "admin_token"
	identityContextKey = "admin_identity"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Success bool             `json:"success"`
	Token   string           `json:"token"`
	User    service.Identity `json:"user"`
}

type dashboardStats struct {
	*service.PostStats
	PendingComments   int64 `json:"pending_comments"`
	ActiveSubscribers int64 `json:"active_subscribers"`
}

// Login 校验管理员凭据，返回令牌并写入会话
func (a *API) Login(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req, "Invalid request body") {
		return
	}

	result, err := a.auth.Login(req.Email, req.Password)
	if err != nil {
		a.respondServiceError(c, err)
		return
	}

	session := sessions.Default(c)
	session.Set(sessionTokenKey, result.Token)
	if err := session.Save(); err != nil {
		// 令牌已在响应体中返回，会话仅用于浏览器
		a.log.Warn("save admin session", zap.Error(err))
	}

	c.JSON(http.StatusOK, loginResponse{
		Success: true,
		Token:   result.Token,
		User:    result.User,
	})
}

// Logout 清除会话中的令牌
func (a *API) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	session.Options(sessions.Options{Path: "/", MaxAge: -1})
	if err := session.Save(); err != nil {
		a.log.Warn("clear admin session", zap.Error(err))
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Me returns the identity attached by AuthRequired.
func (a *API) Me(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Unauthorized")
		return
	}
	c.JSON(http.StatusOK, identity)
}

// Stats 汇总后台首页需要的计数
func (a *API) Stats(c *gin.Context) {
	posts, err := a.posts.Stats()
	if err != nil {
		a.respondServiceError(c, err)
		return
	}

	pending, err := a.comments.PendingCount()
	if err != nil {
		a.respondServiceError(c, err)
		return
	}

	subscribers, err := a.subscribers.ActiveCount()
	if err != nil {
		a.respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dashboardStats{
		PostStats:         posts,
		PendingComments:   pending,
		ActiveSubscribers: subscribers,
	})
}

// AuthRequired 校验 Bearer 令牌（或会话中的令牌），失败时直接返回 401
func (a *API) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := a.authenticate(c)
		if !ok {
			respondError(c, http.StatusUnauthorized, "Unauthorized")
			c.Abort()
			return
		}
		c.Set(identityContextKey, identity)
		c.Next()
	}
}

// authenticate resolves the caller's identity. A present Authorization
// header is authoritative; the session is consulted only without one.
func (a *API) authenticate(c *gin.Context) (*service.Identity, bool) {
	var token string
	if header := c.GetHeader("Authorization"); header != "" {
		token = bearerToken(header)
	} else if stored, ok := sessions.Default(c).Get(sessionTokenKey).(string); ok {
		token = stored
	}
	if token == "" {
		return nil, false
	}

	identity, err := a.auth.Validate(token)
	if err != nil {
		return nil, false
	}
	return identity, true
}

func currentIdentity(c *gin.Context) (*service.Identity, bool) {
	value, exists := c.Get(identityContextKey)
	if !exists {
		return nil, false
	}
	identity, ok := value.(*service.Identity)
	return identity, ok
}
