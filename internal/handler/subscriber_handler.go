package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/pressroom/internal/db"
)

type subscribeRequest struct {
	Email string `json:"email"`
}

// Subscribe 订阅邮件通知
func (a *API) Subscribe(c *gin.Context) {
	var req subscribeRequest
	if !bindJSON(c, &req, "Invalid request body") {
		return
	}

	subscriber, err := a.subscribers.Subscribe(req.Email)
	if err != nil {
		a.respondServiceError(c, err)
		return
	}

	a.metrics.CounterSubscriptions.WithLabelValues("subscribe").Inc()
	c.JSON(http.StatusOK, gin.H{"success": true, "subscriber": subscriber})
}

// Unsubscribe marks the subscriber inactive.
func (a *API) Unsubscribe(c *gin.Context) {
	var req subscribeRequest
	if !bindJSON(c, &req, "Invalid request body") {
		return
	}

	if err := a.subscribers.Unsubscribe(req.Email); err != nil {
		a.respondServiceError(c, err)
		return
	}

	a.metrics.CounterSubscriptions.WithLabelValues("unsubscribe").Inc()
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ListSubscribers returns active subscribers, or every record with ?status=all.
func (a *API) ListSubscribers(c *gin.Context) {
	var (
		subscribers []db.Subscriber
		err         error
	)
	switch strings.ToLower(strings.TrimSpace(c.Query("status"))) {
	case "", "active":
		subscribers, err = a.subscribers.ListActive()
	case "all":
		subscribers, err = a.subscribers.ListAll()
	default:
		respondError(c, http.StatusBadRequest, "status: must be active or all")
		return
	}
	if err != nil {
		a.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, subscribers)
}
