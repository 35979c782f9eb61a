package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pressroom/internal/service"
)

type createCategoryRequest struct {
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	Color       string `json:"color"`
	Icon        string `json:"icon"`
	SortOrder   *int   `json:"sort_order"`
}

type createTagRequest struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// ListCategories 按排序值返回分类
func (a *API) ListCategories(c *gin.Context) {
	categories, err := a.categories.List()
	if err != nil {
		a.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, categories)
}

// CreateCategory 创建分类
func (a *API) CreateCategory(c *gin.Context) {
	var req createCategoryRequest
	if !bindJSON(c, &req, "Invalid request body") {
		return
	}

	category, err := a.categories.Create(service.CategoryInput{
		Name:        req.Name,
		Slug:        req.Slug,
		Description: req.Description,
		Color:       req.Color,
		Icon:        req.Icon,
		SortOrder:   req.SortOrder,
	})
	if err != nil {
		a.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, category)
}

// GetTags 返回全部标签
func (a *API) GetTags(c *gin.Context) {
	tags, err := a.tags.List()
	if err != nil {
		a.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, tags)
}

// CreateTag 创建新标签
func (a *API) CreateTag(c *gin.Context) {
	var req createTagRequest
	if !bindJSON(c, &req, "Invalid request body") {
		return
	}

	tag, err := a.tags.Create(service.TagInput{Name: req.Name, Slug: req.Slug})
	if err != nil {
		a.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, tag)
}
