package seed

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/pressroom/internal/db"
	"github.com/pressroom/internal/service"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

//go:embed default.yaml
var defaultFixture []byte

// Fixture 描述一份可导入的初始数据。
type Fixture struct {
	Categories []CategoryFixture `yaml:"categories"`
	Tags       []TagFixture      `yaml:"tags"`
	Posts      []PostFixture     `yaml:"posts"`
}

type CategoryFixture struct {
	Name        string `yaml:"name"`
	Slug        string `yaml:"slug"`
	Description string `yaml:"description"`
	Color       string `yaml:"color"`
	Icon        string `yaml:"icon"`
	SortOrder   *int   `yaml:"sort_order"`
}

type TagFixture struct {
	Name string `yaml:"name"`
	Slug string `yaml:"slug"`
}

type PostFixture struct {
	Title         string   `yaml:"title"`
	Slug          string   `yaml:"slug"`
	Excerpt       string   `yaml:"excerpt"`
	Content       string   `yaml:"content"`
	FeaturedImage string   `yaml:"featured_image"`
	Category      string   `yaml:"category"`
	Tags          []string `yaml:"tags"`
	Status        string   `yaml:"status"`
	AuthorName    string   `yaml:"author_name"`
}

// Report counts what Apply created and skipped.
type Report struct {
	Categories int
	Tags       int
	Posts      int
	Skipped    int
}

// Default returns the bundled sample fixture.
func Default() (*Fixture, error) {
	return Parse(defaultFixture)
}

// LoadFile reads a YAML fixture from disk.
func LoadFile(path string) (*Fixture, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	return Parse(raw)
}

// Parse decodes a YAML fixture.
func Parse(raw []byte) (*Fixture, error) {
	var fixture Fixture
	if err := yaml.Unmarshal(raw, &fixture); err != nil {
		return nil, fmt.Errorf("parse fixture: %w", err)
	}
	return &fixture, nil
}

// Reset 清空文章、评论、点赞、分类与标签，保留订阅者
func Reset(gdb *gorm.DB) error {
	return gdb.Transaction(func(tx *gorm.DB) error {
		for _, model := range []interface{}{&db.Comment{}, &db.PostUpvote{}, &db.PostTag{}, &db.Post{}, &db.Category{}, &db.Tag{}} {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Apply 通过 service 层写入数据，已存在的分类和标签会被跳过。
// 单条失败不会中断导入，所有错误合并后返回。
func Apply(gdb *gorm.DB, fixture *Fixture) (Report, error) {
	var (
		report     Report
		errs       error
		categories = service.NewCategoryService(gdb)
		tags       = service.NewTagService(gdb)
		posts      = service.NewPostService(gdb)
	)

	for _, c := range fixture.Categories {
		_, err := categories.Create(service.CategoryInput{
			Name:        c.Name,
			Slug:        c.Slug,
			Description: c.Description,
			Color:       c.Color,
			Icon:        c.Icon,
			SortOrder:   c.SortOrder,
		})
		switch {
		case err == nil:
			report.Categories++
		case errors.Is(err, service.ErrConflict):
			report.Skipped++
		default:
			errs = multierr.Append(errs, fmt.Errorf("category %q: %w", c.Name, err))
		}
	}

	for _, t := range fixture.Tags {
		_, err := tags.Create(service.TagInput{Name: t.Name, Slug: t.Slug})
		switch {
		case err == nil:
			report.Tags++
		case errors.Is(err, service.ErrConflict):
			report.Skipped++
		default:
			errs = multierr.Append(errs, fmt.Errorf("tag %q: %w", t.Name, err))
		}
	}

	for _, p := range fixture.Posts {
		if _, err := posts.Create(service.PostInput{
			Title:         p.Title,
			Slug:          p.Slug,
			Content:       p.Content,
			Excerpt:       p.Excerpt,
			Category:      p.Category,
			Tags:          p.Tags,
			Status:        p.Status,
			FeaturedImage: p.FeaturedImage,
			AuthorName:    p.AuthorName,
		}); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("post %q: %w", p.Title, err))
			continue
		}
		report.Posts++
	}

	return report, errs
}

// FakePosts generates n published posts spread over the given categories and tags.
func FakePosts(n int, categories, tags []string) []PostFixture {
	out := make([]PostFixture, 0, n)
	for i := 0; i < n; i++ {
		post := PostFixture{
			Title:      gofakeit.Sentence(gofakeit.Number(3, 8)),
			Content:    fakeMarkdown(),
			Status:     db.PostStatusPublished,
			AuthorName: gofakeit.Name(),
		}
		if len(categories) > 0 {
			post.Category = categories[gofakeit.Number(0, len(categories)-1)]
		}
		if len(tags) > 0 {
			count := gofakeit.Number(1, min(3, len(tags)))
			for j := 0; j < count; j++ {
				post.Tags = append(post.Tags, tags[gofakeit.Number(0, len(tags)-1)])
			}
		}
		out = append(out, post)
	}
	return out
}

func fakeMarkdown() string {
	return fmt.Sprintf("## %s\n\n%s\n\n%s\n",
		gofakeit.HipsterSentence(4),
		gofakeit.Paragraph(2, 4, 12, " "),
		gofakeit.Paragraph(1, 3, 10, " "),
	)
}

// CategoryNames lists the fixture's category names.
func (f *Fixture) CategoryNames() []string {
	names := make([]string, 0, len(f.Categories))
	for _, c := range f.Categories {
		names = append(names, c.Name)
	}
	return names
}

// TagNames lists the fixture's tag names.
func (f *Fixture) TagNames() []string {
	names := make([]string, 0, len(f.Tags))
	for _, t := range f.Tags {
		names = append(names, t.Name)
	}
	return names
}
