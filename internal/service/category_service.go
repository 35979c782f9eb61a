package service

import (
	"errors"
	"strings"

	"github.com/pressroom/internal/db"
	"gorm.io/gorm"
)

const maxSeqAttempts = 3

// CategoryService wraps category related operations.
type CategoryService struct {
	db *gorm.DB
}

// CategoryInput is the payload for creating a category. A nil SortOrder
// appends the category after the current last one.
type CategoryInput struct {
	Name        string
	Slug        string
	Description string
	Color       string
	Icon        string
	SortOrder   *int
}

// NewCategoryService creates a CategoryService instance.
func NewCategoryService(gdb *gorm.DB) *CategoryService {
	return &CategoryService{db: gdb}
}

// List returns categories by sort order; equal orders keep insertion order.
func (s *CategoryService) List() ([]db.Category, error) {
	categories := make([]db.Category, 0)
	if err := s.db.
		Order("sort_order asc").
		Order("seq asc").
		Order("id asc").
		Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

// Create inserts a category. Names are unique regardless of case.
func (s *CategoryService) Create(input CategoryInput) (*db.Category, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, invalid("name", "is required")
	}

	slug := Slugify(input.Slug)
	if slug == "" {
		slug = Slugify(name)
	}

	category := db.Category{
		Name:        name,
		Slug:        slug,
		Description: strings.TrimSpace(input.Description),
		Color:       strings.TrimSpace(input.Color),
		Icon:        strings.TrimSpace(input.Icon),
	}

	// a concurrent create can claim the same seq between lookup and insert
	var err error
	for attempt := 0; attempt < maxSeqAttempts; attempt++ {
		err = s.db.Transaction(func(tx *gorm.DB) error {
			var existing int64
			if err := tx.Model(&db.Category{}).Where("LOWER(name) = ?", strings.ToLower(name)).Count(&existing).Error; err != nil {
				return err
			}
			if existing > 0 {
				return ErrCategoryExists
			}

			if input.SortOrder != nil {
				category.SortOrder = *input.SortOrder
			} else {
				next, err := nextSortOrder(tx)
				if err != nil {
					return err
				}
				category.SortOrder = next
			}

			seq, err := nextCategorySeq(tx)
			if err != nil {
				return err
			}
			category.Seq = seq

			return tx.Create(&category).Error
		})
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			break
		}
	}
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrCategoryExists
		}
		return nil, err
	}
	return &category, nil
}

func nextSortOrder(tx *gorm.DB) (int, error) {
	var maxSort int
	if err := tx.Model(&db.Category{}).Select("COALESCE(MAX(sort_order), -1)").Scan(&maxSort).Error; err != nil {
		return 0, err
	}
	return maxSort + 1, nil
}

func nextCategorySeq(tx *gorm.DB) (int64, error) {
	var maxSeq int64
	if err := tx.Model(&db.Category{}).Select("COALESCE(MAX(seq), 0)").Scan(&maxSeq).Error; err != nil {
		return 0, err
	}
	return maxSeq + 1, nil
}
