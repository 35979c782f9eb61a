package db

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Tag 定义了标签目录中的条目
type Tag struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Name      string    `gorm:"size:191;uniqueIndex;not null" json:"name"`
	Slug      string    `gorm:"size:191;index" json:"slug"`
	CreatedAt time.Time `json:"created_at"`

	// 已发布文章的使用次数，仅查询时填充
	PostCount int64 `gorm:"->;-:migration" json:"post_count"`
}

func (t *Tag) BeforeCreate(*gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

// Category 定义了文章分类，SortOrder 决定展示顺序。
type Category struct {
	ID          string `gorm:"primaryKey;size:36" json:"id"`
	Name        string `gorm:"size:191;uniqueIndex;not null" json:"name"`
	Slug        string `gorm:"size:191;index" json:"slug"`
	Description string `gorm:"type:text" json:"description"`
	Color       string `gorm:"size:32" json:"color"`
	Icon        string `gorm:"size:64" json:"icon"`
	SortOrder   int    `gorm:"index;not null;default:0" json:"sort_order"`
	// Seq 按插入顺序递增，用于相同 SortOrder 时的稳定排序
	Seq       int64     `gorm:"uniqueIndex;not null;default:0" json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (c *Category) BeforeCreate(*gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}
