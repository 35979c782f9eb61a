package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pressroom/internal/db"
	"github.com/pressroom/internal/service"
)

type submitCommentRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Content string `json:"content"`
}

type moderateCommentRequest struct {
	Status string `json:"status" binding:"required"`
}

// publicComment omits the commenter's email.
type publicComment struct {
	ID        string    `json:"id"`
	PostID    string    `json:"post_id"`
	Name      string    `json:"name"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// SubmitComment 提交评论，进入待审核队列
func (a *API) SubmitComment(c *gin.Context) {
	var req submitCommentRequest
	if !bindJSON(c, &req, "Invalid request body") {
		return
	}

	if _, err := a.comments.Submit(c.Param("ref"), service.CommentInput{
		Name:    req.Name,
		Email:   req.Email,
		Content: req.Content,
	}); err != nil {
		a.respondServiceError(c, err)
		return
	}

	a.metrics.CounterCommentsSubmitted.Inc()
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Comment submitted for moderation"})
}

// ListComments returns the approved comments of a post.
func (a *API) ListComments(c *gin.Context) {
	comments, err := a.comments.ListPublic(c.Param("ref"))
	if err != nil {
		a.respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, toPublicComments(comments))
}

// ListAdminComments 后台评论列表，可按状态过滤
func (a *API) ListAdminComments(c *gin.Context) {
	comments, err := a.comments.ListAdmin(c.Query("status"))
	if err != nil {
		a.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, comments)
}

// ModerateComment applies a status transition to a comment.
func (a *API) ModerateComment(c *gin.Context) {
	var req moderateCommentRequest
	if !bindJSON(c, &req, "status: is required") {
		return
	}

	comment, err := a.comments.Transition(c.Param("id"), req.Status)
	if err != nil {
		a.respondServiceError(c, err)
		return
	}

	a.metrics.CounterModerations.WithLabelValues(comment.Status).Inc()
	c.JSON(http.StatusOK, gin.H{"success": true, "comment": comment})
}

// DeleteComment 删除任意状态的评论
func (a *API) DeleteComment(c *gin.Context) {
	if err := a.comments.Delete(c.Param("id")); err != nil {
		a.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func toPublicComments(comments []db.Comment) []publicComment {
	out := make([]publicComment, 0, len(comments))
	for _, comment := range comments {
		out = append(out, publicComment{
			ID:        comment.ID,
			PostID:    comment.PostID,
			Name:      comment.Name,
			Content:   comment.Content,
			CreatedAt: comment.CreatedAt,
		})
	}
	return out
}
