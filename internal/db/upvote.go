package db

import "time"

// PostUpvote 记录访客对文章的点赞，(post_id, visitor_id) 唯一。
type PostUpvote struct {
	PostID    string `gorm:"primaryKey;size:36"`
	VisitorID string `gorm:"primaryKey;size:128"`
	CreatedAt time.Time
}

// TableName 指定自定义表名。
func (PostUpvote) TableName() string {
	return "post_upvotes"
}
