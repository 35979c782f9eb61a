package service

import (
	"strings"

	"github.com/pressroom/internal/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const maxVisitorIDLength = 128

// UpvoteService 负责访客点赞的切换与查询。
type UpvoteService struct {
	db *gorm.DB
}

// UpvoteState is a visitor's view of a post's upvotes.
type UpvoteState struct {
	Upvoted bool  `json:"upvoted"`
	Count   int64 `json:"count"`
}

// NewUpvoteService creates an UpvoteService instance.
func NewUpvoteService(gdb *gorm.DB) *UpvoteService {
	return &UpvoteService{db: gdb}
}

// Toggle flips the visitor's upvote on a post. Two toggles by the same
// visitor always return the ledger to where it started.
func (s *UpvoteService) Toggle(postRef, visitorID string) (*UpvoteState, error) {
	visitorID, err := normalizeVisitorID(visitorID)
	if err != nil {
		return nil, err
	}

	var state UpvoteState
	err = s.db.Transaction(func(tx *gorm.DB) error {
		postID, err := lockPostID(tx, postRef)
		if err != nil {
			return err
		}

		removed := tx.Where("post_id = ? AND visitor_id = ?", postID, visitorID).Delete(&db.PostUpvote{})
		if removed.Error != nil {
			return removed.Error
		}

		if removed.RowsAffected == 1 {
			if err := tx.Model(&db.Post{}).
				Where("id = ? AND upvote_count > 0", postID).
				UpdateColumn("upvote_count", gorm.Expr("upvote_count - ?", 1)).Error; err != nil {
				return err
			}
			state.Upvoted = false
		} else {
			insert := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "post_id"}, {Name: "visitor_id"}},
				DoNothing: true,
			}).Create(&db.PostUpvote{PostID: postID, VisitorID: visitorID})
			if insert.Error != nil {
				return insert.Error
			}

			// 插入未生效说明并发请求已经点赞，不再重复计数
			if insert.RowsAffected == 1 {
				if err := tx.Model(&db.Post{}).
					Where("id = ?", postID).
					UpdateColumn("upvote_count", gorm.Expr("upvote_count + ?", 1)).Error; err != nil {
					return err
				}
			}
			state.Upvoted = true
		}

		count, err := upvoteCount(tx, postID)
		if err != nil {
			return err
		}
		state.Count = count
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &state, nil
}

// Status reports whether the visitor has upvoted the post and the current count.
func (s *UpvoteService) Status(postRef, visitorID string) (*UpvoteState, error) {
	postID, err := resolvePostID(s.db, postRef)
	if err != nil {
		return nil, err
	}

	state := &UpvoteState{}
	if visitorID = strings.TrimSpace(visitorID); visitorID != "" {
		var n int64
		if err := s.db.Model(&db.PostUpvote{}).
			Where("post_id = ? AND visitor_id = ?", postID, visitorID).
			Count(&n).Error; err != nil {
			return nil, err
		}
		state.Upvoted = n > 0
	}

	count, err := upvoteCount(s.db, postID)
	if err != nil {
		return nil, err
	}
	state.Count = count
	return state, nil
}

func upvoteCount(tx *gorm.DB, postID string) (int64, error) {
	var counts []int64
	if err := tx.Model(&db.Post{}).Where("id = ?", postID).Limit(1).Pluck("upvote_count", &counts).Error; err != nil {
		return 0, err
	}
	if len(counts) == 0 {
		return 0, ErrPostNotFound
	}
	return counts[0], nil
}

func normalizeVisitorID(raw string) (string, error) {
	visitorID := strings.TrimSpace(raw)
	if visitorID == "" {
		return "", invalid("visitor_id", "is required")
	}
	if len(visitorID) > maxVisitorIDLength {
		return "", invalid("visitor_id", "is too long")
	}
	return visitorID, nil
}
