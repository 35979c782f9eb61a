package db

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	CommentStatusPending  = "pending"
	CommentStatusApproved = "approved"
	CommentStatusRejected = "rejected"
)

// Comment 定义了待审核的读者评论
type Comment struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	PostID    string    `gorm:"size:36;index;not null" json:"post_id"`
	Name      string    `gorm:"size:191" json:"name"`
	Email     string    `gorm:"size:191" json:"email"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	Status    string    `gorm:"size:16;index;not null" json:"status"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// 仅在后台列表中通过 JOIN 填充
	PostTitle string `gorm:"->;-:migration" json:"post_title,omitempty"`
	PostSlug  string `gorm:"->;-:migration" json:"post_slug,omitempty"`
}

func (c *Comment) BeforeCreate(*gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}
