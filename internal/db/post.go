package db

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	PostStatusDraft     = "draft"
	PostStatusPublished = "published"
)

// Post 定义了文章模型
type Post struct {
	ID            string     `gorm:"primaryKey;size:36" json:"id"`
	Title         string     `gorm:"not null" json:"title"`
	Slug          string     `gorm:"size:191;uniqueIndex;not null" json:"slug"`
	Content       string     `gorm:"type:text" json:"content"`
	Excerpt       string     `gorm:"type:text" json:"excerpt"`
	Category      string     `gorm:"size:191;index" json:"category"`
	Status        string     `gorm:"size:16;index;not null" json:"status"`
	FeaturedImage string     `json:"featured_image"`
	AuthorName    string     `json:"author_name"`
	ReadingTime   int        `gorm:"column:reading_time_minutes" json:"reading_time_minutes"`
	ViewCount     int64      `gorm:"not null;default:0" json:"view_count"`
	UpvoteCount   int64      `gorm:"not null;default:0" json:"upvote_count"`
	PublishedAt   *time.Time `json:"published_at"`
	CreatedAt     time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`

	TagLinks []PostTag `gorm:"foreignKey:PostID" json:"-"`
	Tags     []string  `gorm:"-" json:"tags"`
}

// PostTag stores one member of a post's tag set.
type PostTag struct {
	PostID string `gorm:"primaryKey;size:36"`
	Name   string `gorm:"primaryKey;size:191;index"`
}

// TableName 指定自定义表名。
func (PostTag) TableName() string {
	return "post_tags"
}

// BeforeCreate assigns a UUID when the caller did not.
func (p *Post) BeforeCreate(*gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// PopulateDerivedFields 将标签关联展开为有序的字符串集合。
func (p *Post) PopulateDerivedFields() {
	tags := make([]string, 0, len(p.TagLinks))
	for _, link := range p.TagLinks {
		tags = append(tags, link.Name)
	}
	sort.Strings(tags)
	p.Tags = tags
}
