package service

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/pressroom/internal/db"
	"gorm.io/gorm"
)

const (
	// CommentStatusAll disables the status filter in the moderation list.
	CommentStatusAll = "all"

	anonymousCommenter = "Anonymous"
	maxCommentRunes    = 5000
	maxCommenterRunes  = 100
)

// legalSources lists, per target status, the states a comment may move from.
var legalSources = map[string][]string{
	db.CommentStatusApproved: {db.CommentStatusPending},
	db.CommentStatusRejected: {db.CommentStatusPending, db.CommentStatusApproved},
}

// CommentService is the moderation queue for reader comments.
type CommentService struct {
	db *gorm.DB
}

// CommentInput is a reader-submitted comment.
type CommentInput struct {
	Name    string
	Email   string
	Content string
}

// NewCommentService creates a CommentService instance.
func NewCommentService(gdb *gorm.DB) *CommentService {
	return &CommentService{db: gdb}
}

// Submit queues a pending comment on the post identified by id or slug.
func (s *CommentService) Submit(postRef string, input CommentInput) (*db.Comment, error) {
	comment, err := validateCommentInput(input)
	if err != nil {
		return nil, err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		postID, err := lockPostID(tx, postRef)
		if err != nil {
			return err
		}
		comment.PostID = postID
		return tx.Create(comment).Error
	})
	if err != nil {
		return nil, err
	}
	return comment, nil
}

// ListPublic returns the approved comments of a post, oldest first.
func (s *CommentService) ListPublic(postRef string) ([]db.Comment, error) {
	postID, err := resolvePostID(s.db, postRef)
	if err != nil {
		return nil, err
	}

	comments := make([]db.Comment, 0)
	if err := s.db.
		Where("post_id = ? AND status = ?", postID, db.CommentStatusApproved).
		Order("created_at asc").
		Order("id asc").
		Find(&comments).Error; err != nil {
		return nil, err
	}
	return comments, nil
}

// ListAdmin returns comments in the given status (empty or "all" for every
// status), newest first, annotated with the owning post's title and slug.
func (s *CommentService) ListAdmin(status string) ([]db.Comment, error) {
	status = strings.ToLower(strings.TrimSpace(status))

	query := s.db.Model(&db.Comment{}).
		Select("comments.*, posts.title AS post_title, posts.slug AS post_slug").
		Joins("LEFT JOIN posts ON posts.id = comments.post_id")

	if status != "" && status != CommentStatusAll {
		if !isCommentStatus(status) {
			return nil, invalid("status", "must be pending, approved, rejected or all")
		}
		query = query.Where("comments.status = ?", status)
	}

	comments := make([]db.Comment, 0)
	if err := query.
		Order("comments.created_at desc").
		Order("comments.id desc").
		Find(&comments).Error; err != nil {
		return nil, err
	}
	return comments, nil
}

// Transition moves a comment to target if the state machine allows it.
// The status check and the write are one conditional UPDATE.
func (s *CommentService) Transition(id, target string) (*db.Comment, error) {
	target = strings.ToLower(strings.TrimSpace(target))
	if !isCommentStatus(target) {
		return nil, invalid("status", "must be pending, approved or rejected")
	}

	var comment db.Comment
	err := s.db.Transaction(func(tx *gorm.DB) error {
		sources, ok := legalSources[target]
		if ok {
			result := tx.Model(&db.Comment{}).
				Where("id = ? AND status IN ?", id, sources).
				Updates(map[string]interface{}{"status": target, "updated_at": time.Now()})
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 1 {
				return tx.First(&comment, "id = ?", id).Error
			}
		}

		if err := tx.First(&comment, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCommentNotFound
			}
			return err
		}
		return ErrInvalidTransition
	})
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

// Delete permanently removes a comment in any state.
func (s *CommentService) Delete(id string) error {
	result := s.db.Where("id = ?", id).Delete(&db.Comment{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrCommentNotFound
	}
	return nil
}

// PendingCount returns the size of the moderation backlog.
func (s *CommentService) PendingCount() (int64, error) {
	var count int64
	err := s.db.Model(&db.Comment{}).Where("status = ?", db.CommentStatusPending).Count(&count).Error
	return count, err
}

func validateCommentInput(input CommentInput) (*db.Comment, error) {
	content := strings.TrimSpace(input.Content)
	if content == "" {
		return nil, invalid("content", "is required")
	}
	if utf8.RuneCountInString(content) > maxCommentRunes {
		return nil, invalid("content", "is too long")
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		name = anonymousCommenter
	}
	if utf8.RuneCountInString(name) > maxCommenterRunes {
		return nil, invalid("name", "is too long")
	}

	email := strings.TrimSpace(input.Email)
	if email != "" {
		normalized, err := NormalizeEmail(email)
		if err != nil {
			return nil, err
		}
		email = normalized
	}

	return &db.Comment{
		Name:    name,
		Email:   email,
		Content: content,
		Status:  db.CommentStatusPending,
	}, nil
}

func isCommentStatus(status string) bool {
	switch status {
	case db.CommentStatusPending, db.CommentStatusApproved, db.CommentStatusRejected:
		return true
	}
	return false
}
