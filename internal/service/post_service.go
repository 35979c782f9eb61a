package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pressroom/internal/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	DefaultPostLimit = 10
	// PostStatusAll disables the status filter when listing.
	PostStatusAll = "all"

	maxSlugAttempts = 5
	fallbackSlug    = "post"
)

// PostService wraps post related database operations.
type PostService struct {
	db *gorm.DB
}

// PostFilter describes filters for listing posts.
type PostFilter struct {
	Category string
	Tag      string
	Status   string
	Limit    int
	Skip     int
}

// PostListResult is one page of posts plus the unpaged match count.
type PostListResult struct {
	Posts []db.Post
	Total int64
	Limit int
	Skip  int
}

// PostInput represents fields accepted when creating a post.
type PostInput struct {
	Title         string
	Slug          string
	Content       string
	Excerpt       string
	Category      string
	Tags          []string
	Status        string
	FeaturedImage string
	AuthorName    string
}

// PostPatch holds the fields of an update; nil means "leave unchanged".
type PostPatch struct {
	Title         *string
	Slug          *string
	Content       *string
	Excerpt       *string
	Category      *string
	Tags          *[]string
	Status        *string
	FeaturedImage *string
}

// PostStats aggregates counters for the admin dashboard.
type PostStats struct {
	Total        int64 `json:"total_posts"`
	Published    int64 `json:"published_posts"`
	Drafts       int64 `json:"draft_posts"`
	TotalViews   int64 `json:"total_views"`
	TotalUpvotes int64 `json:"total_upvotes"`
}

// NewPostService creates a PostService instance.
func NewPostService(gdb *gorm.DB) *PostService {
	return &PostService{db: gdb}
}

// Create validates input, derives a unique slug and persists the post with its tags.
func (s *PostService) Create(input PostInput) (*db.Post, error) {
	if err := validatePostInput(input); err != nil {
		return nil, err
	}

	status, err := normalizePostStatus(input.Status, db.PostStatusDraft)
	if err != nil {
		return nil, err
	}

	base := Slugify(input.Slug)
	if base == "" {
		base = Slugify(input.Title)
	}
	if base == "" {
		base = fallbackSlug
	}

	excerpt := strings.TrimSpace(input.Excerpt)
	if excerpt == "" {
		excerpt = BuildExcerpt(input.Content)
	}

	post := db.Post{
		Title:         strings.TrimSpace(input.Title),
		Content:       input.Content,
		Excerpt:       excerpt,
		Category:      strings.TrimSpace(input.Category),
		Status:        status,
		FeaturedImage: strings.TrimSpace(input.FeaturedImage),
		AuthorName:    strings.TrimSpace(input.AuthorName),
		ReadingTime:   calculateReadingTime(input.Content),
	}
	if status == db.PostStatusPublished {
		now := time.Now()
		post.PublishedAt = &now
	}
	tags := normalizeTags(input.Tags)

	// a concurrent create can claim the same slug between lookup and insert
	for attempt := 0; attempt < maxSlugAttempts; attempt++ {
		err = s.db.Transaction(func(tx *gorm.DB) error {
			slug, err := uniqueSlug(tx, base)
			if err != nil {
				return err
			}
			post.Slug = slug

			if err := tx.Create(&post).Error; err != nil {
				return err
			}
			return replaceTags(tx, post.ID, tags)
		})
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			break
		}
	}
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrSlugTaken
		}
		return nil, err
	}

	return s.Get(post.ID)
}

// Get fetches a post by id with tags populated.
func (s *PostService) Get(id string) (*db.Post, error) {
	return findPost(s.db, "id = ?", id)
}

// Resolve finds a post by id, falling back to slug. It never touches view_count.
func (s *PostService) Resolve(ref string) (*db.Post, error) {
	post, err := findPost(s.db, "id = ?", ref)
	if errors.Is(err, ErrPostNotFound) {
		return findPost(s.db, "slug = ?", ref)
	}
	return post, err
}

// GetBySlug returns the post and increments its view count by exactly one.
// The increment is a single UPDATE so concurrent readers never lose a view.
func (s *PostService) GetBySlug(slug string) (*db.Post, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, ErrPostNotFound
	}

	var post *db.Post
	err := s.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&db.Post{}).
			Where("slug = ?", slug).
			UpdateColumn("view_count", gorm.Expr("view_count + ?", 1))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrPostNotFound
		}

		found, err := findPost(tx, "slug = ?", slug)
		if err != nil {
			return err
		}
		post = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return post, nil
}

// List provides a page of posts ordered newest first, plus the total match count.
func (s *PostService) List(filter PostFilter) (*PostListResult, error) {
	if filter.Limit < 0 {
		return nil, invalid("limit", "must not be negative")
	}
	if filter.Skip < 0 {
		return nil, invalid("skip", "must not be negative")
	}
	if filter.Limit == 0 {
		filter.Limit = DefaultPostLimit
	}

	status := strings.ToLower(strings.TrimSpace(filter.Status))
	if status != "" && status != PostStatusAll {
		normalized, err := normalizePostStatus(status, "")
		if err != nil {
			return nil, err
		}
		status = normalized
	} else {
		status = ""
	}
	filter.Status = status

	result := &PostListResult{Limit: filter.Limit, Skip: filter.Skip}

	if err := s.applyFilters(s.db.Model(&db.Post{}), filter).Count(&result.Total).Error; err != nil {
		return nil, err
	}

	posts := make([]db.Post, 0)
	if err := s.applyFilters(s.db.Model(&db.Post{}).Preload("TagLinks"), filter).
		Order("posts.created_at desc").
		Order("posts.id desc").
		Limit(filter.Limit).
		Offset(filter.Skip).
		Find(&posts).Error; err != nil {
		return nil, err
	}

	for i := range posts {
		posts[i].PopulateDerivedFields()
	}
	result.Posts = posts
	return result, nil
}

// Update merges the provided fields into an existing post.
func (s *PostService) Update(id string, patch PostPatch) (*db.Post, error) {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var existing db.Post
		if err := tx.First(&existing, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPostNotFound
			}
			return err
		}

		now := time.Now()
		updates := map[string]interface{}{"updated_at": now}

		if patch.Title != nil {
			title := strings.TrimSpace(*patch.Title)
			if title == "" {
				return invalid("title", "is required")
			}
			updates["title"] = title
		}

		content := existing.Content
		if patch.Content != nil {
			if strings.TrimSpace(*patch.Content) == "" {
				return invalid("content", "is required")
			}
			content = *patch.Content
			updates["content"] = content
			updates["reading_time_minutes"] = calculateReadingTime(content)
		}

		if patch.Excerpt != nil {
			excerpt := strings.TrimSpace(*patch.Excerpt)
			if excerpt == "" {
				excerpt = BuildExcerpt(content)
			}
			updates["excerpt"] = excerpt
		}

		if patch.Category != nil {
			updates["category"] = strings.TrimSpace(*patch.Category)
		}

		if patch.FeaturedImage != nil {
			updates["featured_image"] = strings.TrimSpace(*patch.FeaturedImage)
		}

		if patch.Status != nil {
			status, err := normalizePostStatus(*patch.Status, "")
			if err != nil {
				return err
			}
			updates["status"] = status
			if status == db.PostStatusPublished && existing.PublishedAt == nil {
				updates["published_at"] = now
			}
		}

		if patch.Slug != nil {
			slug := Slugify(*patch.Slug)
			if slug == "" {
				return invalid("slug", "must contain letters or digits")
			}
			if slug != existing.Slug {
				var taken int64
				if err := tx.Model(&db.Post{}).
					Where("slug = ? AND id <> ?", slug, existing.ID).
					Count(&taken).Error; err != nil {
					return err
				}
				if taken > 0 {
					return ErrSlugTaken
				}
				updates["slug"] = slug
			}
		}

		if err := tx.Model(&db.Post{}).Where("id = ?", existing.ID).Updates(updates).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrSlugTaken
			}
			return err
		}

		if patch.Tags != nil {
			return replaceTags(tx, existing.ID, normalizeTags(*patch.Tags))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.Get(id)
}

// Delete removes a post together with its comments, upvotes and tag links.
func (s *PostService) Delete(id string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var ids []string
		if err := tx.Model(&db.Post{}).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", id).
			Limit(1).
			Pluck("id", &ids).Error; err != nil {
			return err
		}
		if len(ids) == 0 {
			return ErrPostNotFound
		}

		for _, model := range []interface{}{&db.Comment{}, &db.PostUpvote{}, &db.PostTag{}} {
			if err := tx.Where("post_id = ?", id).Delete(model).Error; err != nil {
				return err
			}
		}

		return tx.Where("id = ?", id).Delete(&db.Post{}).Error
	})
}

// Stats returns dashboard counters across all posts.
func (s *PostService) Stats() (*PostStats, error) {
	var row struct {
		Total        int64
		Published    int64
		TotalViews   int64
		TotalUpvotes int64
	}
	if err := s.db.Model(&db.Post{}).
		Select("COUNT(*) AS total, "+
			"COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS published, "+
			"COALESCE(SUM(view_count), 0) AS total_views, "+
			"COALESCE(SUM(upvote_count), 0) AS total_upvotes", db.PostStatusPublished).
		Scan(&row).Error; err != nil {
		return nil, err
	}

	return &PostStats{
		Total:        row.Total,
		Published:    row.Published,
		Drafts:       row.Total - row.Published,
		TotalViews:   row.TotalViews,
		TotalUpvotes: row.TotalUpvotes,
	}, nil
}

func (s *PostService) applyFilters(query *gorm.DB, filter PostFilter) *gorm.DB {
	if filter.Status != "" {
		query = query.Where("posts.status = ?", filter.Status)
	}

	if category := strings.TrimSpace(filter.Category); category != "" {
		query = query.Where("posts.category = ?", category)
	}

	if tag := strings.TrimSpace(filter.Tag); tag != "" {
		subQuery := s.db.Model(&db.PostTag{}).
			Select("post_tags.post_id").
			Where("post_tags.name = ?", tag)
		query = query.Where("posts.id IN (?)", subQuery)
	}

	return query
}

func findPost(gdb *gorm.DB, cond string, value string) (*db.Post, error) {
	var post db.Post
	if err := gdb.Preload("TagLinks").Where(cond, value).First(&post).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	post.PopulateDerivedFields()
	return &post, nil
}

// resolvePostID maps an id-or-slug reference to the post id.
func resolvePostID(tx *gorm.DB, ref string) (string, error) {
	return findPostID(tx, ref, false)
}

// lockPostID is resolvePostID with the post row held FOR UPDATE until tx ends,
// so a concurrent Delete cannot remove the post under a child insert.
func lockPostID(tx *gorm.DB, ref string) (string, error) {
	return findPostID(tx, ref, true)
}

func findPostID(tx *gorm.DB, ref string, lock bool) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", ErrPostNotFound
	}

	for _, column := range []string{"id", "slug"} {
		query := tx.Model(&db.Post{})
		if lock {
			query = query.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		var ids []string
		if err := query.Where(column+" = ?", ref).Limit(1).Pluck("id", &ids).Error; err != nil {
			return "", err
		}
		if len(ids) > 0 {
			return ids[0], nil
		}
	}
	return "", ErrPostNotFound
}

// uniqueSlug returns base, or base-N with the smallest free N.
func uniqueSlug(tx *gorm.DB, base string) (string, error) {
	var taken []string
	if err := tx.Model(&db.Post{}).
		Where("slug = ? OR slug LIKE ?", base, base+"-%").
		Pluck("slug", &taken).Error; err != nil {
		return "", err
	}

	used := make(map[string]struct{}, len(taken))
	for _, slug := range taken {
		used[slug] = struct{}{}
	}

	if _, ok := used[base]; !ok {
		return base, nil
	}
	for n := 1; ; n++ {
		candidate := fmt.Sprintf("%s-%d", base, n)
		if _, ok := used[candidate]; !ok {
			return candidate, nil
		}
	}
}

func replaceTags(tx *gorm.DB, postID string, tags []string) error {
	if err := tx.Where("post_id = ?", postID).Delete(&db.PostTag{}).Error; err != nil {
		return err
	}
	if len(tags) == 0 {
		return nil
	}

	links := make([]db.PostTag, 0, len(tags))
	for _, name := range tags {
		links = append(links, db.PostTag{PostID: postID, Name: name})
	}
	return tx.Create(&links).Error
}

func validatePostInput(input PostInput) error {
	if err := required("title", input.Title); err != nil {
		return err
	}
	return required("content", input.Content)
}

func normalizePostStatus(raw, fallback string) (string, error) {
	status := strings.ToLower(strings.TrimSpace(raw))
	if status == "" && fallback != "" {
		return fallback, nil
	}
	switch status {
	case db.PostStatusDraft, db.PostStatusPublished:
		return status, nil
	default:
		return "", invalid("status", "must be draft or published")
	}
}

func normalizeTags(raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	tags := make([]string, 0, len(raw))
	for _, tag := range raw {
		trimmed := strings.TrimSpace(tag)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		tags = append(tags, trimmed)
	}
	return tags
}
