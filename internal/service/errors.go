package service

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds. Handlers map these to HTTP status codes; every
// resource-specific error below wraps exactly one of them.
var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("conflict")
	ErrInvalidTransition  = errors.New("invalid transition")
	ErrValidation         = errors.New("validation failed")
)

var (
	ErrPostNotFound       = fmt.Errorf("post %w", ErrNotFound)
	ErrCommentNotFound    = fmt.Errorf("comment %w", ErrNotFound)
	ErrSubscriberNotFound = fmt.Errorf("subscriber %w", ErrNotFound)
	ErrCategoryNotFound   = fmt.Errorf("category %w", ErrNotFound)
	ErrTagNotFound        = fmt.Errorf("tag %w", ErrNotFound)

	ErrSlugTaken         = fmt.Errorf("slug already in use: %w", ErrConflict)
	ErrAlreadySubscribed = fmt.Errorf("email already subscribed: %w", ErrConflict)
	ErrCategoryExists    = fmt.Errorf("category already exists: %w", ErrConflict)
	ErrTagExists         = fmt.Errorf("tag already exists: %w", ErrConflict)
)

// ValidationError describes a rejected input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

func required(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return invalid(field, "is required")
	}
	return nil
}
