package service

import (
	"errors"
	"strings"

	"github.com/pressroom/internal/db"
	"gorm.io/gorm"
)

// TagService wraps tag related operations.
type TagService struct {
	db *gorm.DB
}

// TagInput is the payload for creating a tag.
type TagInput struct {
	Name string
	Slug string
}

// NewTagService creates a TagService instance.
func NewTagService(gdb *gorm.DB) *TagService {
	return &TagService{db: gdb}
}

// List returns every tag ordered by name, with the number of published posts carrying it.
func (s *TagService) List() ([]db.Tag, error) {
	tags := make([]db.Tag, 0)
	if err := s.db.
		Model(&db.Tag{}).
		Select("tags.*, COUNT(posts.id) AS post_count").
		Joins("LEFT JOIN post_tags ON post_tags.name = tags.name").
		Joins("LEFT JOIN posts ON posts.id = post_tags.post_id AND posts.status = ?", db.PostStatusPublished).
		Group("tags.id").
		Order("tags.name asc").
		Order("tags.id asc").
		Find(&tags).Error; err != nil {
		return nil, err
	}
	return tags, nil
}

// Create inserts a new tag with unique name.
func (s *TagService) Create(input TagInput) (*db.Tag, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, invalid("name", "is required")
	}

	slug := Slugify(input.Slug)
	if slug == "" {
		slug = Slugify(name)
	}

	var existing int64
	if err := s.db.Model(&db.Tag{}).Where("LOWER(name) = ?", strings.ToLower(name)).Count(&existing).Error; err != nil {
		return nil, err
	}
	if existing > 0 {
		return nil, ErrTagExists
	}

	tag := db.Tag{Name: name, Slug: slug}
	if err := s.db.Create(&tag).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrTagExists
		}
		return nil, err
	}
	return &tag, nil
}
