package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/pressroom/internal/db"
	"github.com/pressroom/internal/service"
)

type createPostRequest struct {
	Title         string   `json:"title"`
	Slug          string   `json:"slug"`
	Content       string   `json:"content"`
	Excerpt       string   `json:"excerpt"`
	Category      string   `json:"category"`
	Tags          []string `json:"tags"`
	Status        string   `json:"status"`
	FeaturedImage string   `json:"featured_image"`
	AuthorName    string   `json:"author_name"`
}

type updatePostRequest struct {
	Title         *string   `json:"title"`
	Slug          *string   `json:"slug"`
	Content       *string   `json:"content"`
	Excerpt       *string   `json:"excerpt"`
	Category      *string   `json:"category"`
	Tags          *[]string `json:"tags"`
	Status        *string   `json:"status"`
	FeaturedImage *string   `json:"featured_image"`
}

type postListResponse struct {
	Posts []db.Post `json:"posts"`
	Total int64     `json:"total"`
	Limit int       `json:"limit"`
	Skip  int       `json:"skip"`
}

// ListPosts 返回文章列表，非 published 状态需要管理员令牌
func (a *API) ListPosts(c *gin.Context) {
	limit, ok := queryInt(c, "limit")
	if !ok {
		respondError(c, http.StatusBadRequest, "limit: must be an integer")
		return
	}
	skip, ok := queryInt(c, "skip")
	if !ok {
		respondError(c, http.StatusBadRequest, "skip: must be an integer")
		return
	}

	status := strings.ToLower(strings.TrimSpace(c.Query("status")))
	if status == "" {
		status = db.PostStatusPublished
	}
	if status != db.PostStatusPublished {
		if _, ok := a.authenticate(c); !ok {
			respondError(c, http.StatusUnauthorized, "Unauthorized")
			return
		}
	}

	result, err := a.posts.List(service.PostFilter{
		Category: c.Query("category"),
		Tag:      c.Query("tag"),
		Status:   status,
		Limit:    limit,
		Skip:     skip,
	})
	if err != nil {
		a.respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, postListResponse{
		Posts: result.Posts,
		Total: result.Total,
		Limit: result.Limit,
		Skip:  result.Skip,
	})
}

// GetPost returns a post by slug and counts the view.
func (a *API) GetPost(c *gin.Context) {
	post, err := a.posts.GetBySlug(c.Param("ref"))
	if err != nil {
		a.respondServiceError(c, err)
		return
	}

	a.metrics.CounterPostViews.Inc()
	c.JSON(http.StatusOK, post)
}

// CreatePost 创建文章，作者默认为当前管理员
func (a *API) CreatePost(c *gin.Context) {
	var req createPostRequest
	if !bindJSON(c, &req, "Invalid request body") {
		return
	}

	author := strings.TrimSpace(req.AuthorName)
	if author == "" {
		if identity, ok := currentIdentity(c); ok {
			author = identity.Name
		}
	}

	post, err := a.posts.Create(service.PostInput{
		Title:         req.Title,
		Slug:          req.Slug,
		Content:       req.Content,
		Excerpt:       req.Excerpt,
		Category:      req.Category,
		Tags:          req.Tags,
		Status:        req.Status,
		FeaturedImage: req.FeaturedImage,
		AuthorName:    author,
	})
	if err != nil {
		a.respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, post)
}

// UpdatePost merges the provided fields into the post.
func (a *API) UpdatePost(c *gin.Context) {
	var req updatePostRequest
	if !bindJSON(c, &req, "Invalid request body") {
		return
	}

	post, err := a.posts.Update(c.Param("ref"), service.PostPatch{
		Title:         req.Title,
		Slug:          req.Slug,
		Content:       req.Content,
		Excerpt:       req.Excerpt,
		Category:      req.Category,
		Tags:          req.Tags,
		Status:        req.Status,
		FeaturedImage: req.FeaturedImage,
	})
	if err != nil {
		a.respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, post)
}

// DeletePost 删除文章及其评论、点赞
func (a *API) DeletePost(c *gin.Context) {
	if err := a.posts.Delete(c.Param("ref")); err != nil {
		a.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
