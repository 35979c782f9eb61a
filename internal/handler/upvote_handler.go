package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	visitorCookieName   = "pressroom_visitor"
	visitorCookieMaxAge = 365 * 24 * 60 * 60
)

type toggleUpvoteRequest struct {
	VisitorID string `json:"visitor_id"`
}

// ToggleUpvote 切换访客对文章的点赞状态
func (a *API) ToggleUpvote(c *gin.Context) {
	var req toggleUpvoteRequest
	if !bindOptionalJSON(c, &req, "Invalid request body") {
		return
	}

	visitorID := strings.TrimSpace(req.VisitorID)
	if visitorID == "" {
		visitorID = a.ensureVisitorID(c)
	}

	state, err := a.upvotes.Toggle(c.Param("ref"), visitorID)
	if err != nil {
		a.respondServiceError(c, err)
		return
	}

	label := "off"
	if state.Upvoted {
		label = "on"
	}
	a.metrics.CounterUpvoteToggles.WithLabelValues(label).Inc()
	c.JSON(http.StatusOK, state)
}

// GetUpvoteStatus reports whether the visitor upvoted the post.
func (a *API) GetUpvoteStatus(c *gin.Context) {
	visitorID := strings.TrimSpace(c.Query("visitor_id"))
	if visitorID == "" {
		if cookie, err := c.Cookie(visitorCookieName); err == nil {
			visitorID = cookie
		}
	}

	state, err := a.upvotes.Status(c.Param("ref"), visitorID)
	if err != nil {
		a.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

// ensureVisitorID returns the visitor cookie, issuing a new one when absent.
func (a *API) ensureVisitorID(c *gin.Context) string {
	if id, err := c.Cookie(visitorCookieName); err == nil && strings.TrimSpace(id) != "" {
		return id
	}

	visitorID := uuid.NewString()
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     visitorCookieName,
		Value:    visitorID,
		Path:     "/",
		HttpOnly: true,
		Secure:   c.Request.TLS != nil,
		MaxAge:   visitorCookieMaxAge,
		Expires:  time.Now().Add(365 * 24 * time.Hour),
		SameSite: http.SameSiteLaxMode,
	})
	return visitorID
}
