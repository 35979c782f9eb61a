package db

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Subscriber 定义了邮件订阅者，Email 以小写形式存储。
type Subscriber struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Email     string    `gorm:"size:191;uniqueIndex;not null" json:"email"`
	Active    bool      `gorm:"index;not null" json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s *Subscriber) BeforeCreate(*gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}
