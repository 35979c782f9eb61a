package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/pressroom/internal/service"
	"go.uber.org/zap"
)

// errorMessages maps specific service errors to client-facing messages.
// Order matters: the first match wins.
var errorMessages = []struct {
	err     error
	message string
}{
	{service.ErrPostNotFound, "Post not found"},
	{service.ErrCommentNotFound, "Comment not found"},
	{service.ErrSubscriberNotFound, "Subscriber not found"},
	{service.ErrCategoryNotFound, "Category not found"},
	{service.ErrTagNotFound, "Tag not found"},
	{service.ErrSlugTaken, "Slug already in use"},
	{service.ErrAlreadySubscribed, "Email already subscribed"},
	{service.ErrCategoryExists, "Category already exists"},
	{service.ErrTagExists, "Tag already exists"},
	{service.ErrInvalidCredentials, "Invalid credentials"},
	{service.ErrUnauthorized, "Unauthorized"},
	{service.ErrInvalidTransition, "Invalid status transition"},
	{service.ErrNotFound, "Not found"},
	{service.ErrConflict, "Conflict"},
}

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

func bindJSON(c *gin.Context, dst interface{}, message string) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondError(c, http.StatusBadRequest, message)
		return false
	}
	return true
}

// bindOptionalJSON is bindJSON for requests whose body may be absent.
// An empty body, chunked or not, leaves dst untouched.
func bindOptionalJSON(c *gin.Context, dst interface{}, message string) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		respondError(c, http.StatusBadRequest, message)
		return false
	}
	return true
}

// respondServiceError translates a service error kind into a status code.
func (a *API) respondServiceError(c *gin.Context, err error) {
	var validationErr *service.ValidationError
	if errors.As(err, &validationErr) {
		respondError(c, http.StatusBadRequest, validationErr.Error())
		return
	}

	var status int
	switch {
	case errors.Is(err, service.ErrInvalidCredentials), errors.Is(err, service.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, service.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, service.ErrInvalidTransition), errors.Is(err, service.ErrValidation):
		status = http.StatusBadRequest
	default:
		a.log.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("route", c.FullPath()),
			zap.Error(err),
		)
		_ = c.Error(err)
		respondError(c, http.StatusInternalServerError, "Internal server error")
		return
	}

	respondError(c, status, messageFor(err))
}

func messageFor(err error) string {
	for _, entry := range errorMessages {
		if errors.Is(err, entry.err) {
			return entry.message
		}
	}
	return err.Error()
}

// bearerToken extracts the token from an "Authorization: Bearer <token>" header.
func bearerToken(header string) string {
	header = strings.TrimSpace(header)
	const prefix = "bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

// queryInt parses an optional integer query parameter.
func queryInt(c *gin.Context, key string) (int, bool) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return 0, true
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return value, true
}
