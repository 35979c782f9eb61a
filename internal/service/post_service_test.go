package service

import (
	"fmt"
	"sync"
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/pressroom/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostService_CreateDefaults(t *testing.T) {
	svc := NewPostService(setupServiceTestDB(t))

	post, err := svc.Create(PostInput{
		Title:   "Hello World",
		Content: "# Heading\n\nSome **bold** words and <script>alert(1)</script> more.",
		Tags:    []string{" go ", "go", "", "web"},
	})
	require.NoError(t, err)

	assert.NotEmpty(t, post.ID)
	assert.Equal(t, "hello-world", post.Slug)
	assert.Equal(t, db.PostStatusDraft, post.Status)
	assert.Zero(t, post.ViewCount)
	assert.Zero(t, post.UpvoteCount)
	assert.Nil(t, post.PublishedAt)
	assert.Equal(t, []string{"go", "web"}, post.Tags)
	assert.Equal(t, 1, post.ReadingTime)
	assert.NotContains(t, post.Excerpt, "<")
	assert.Contains(t, post.Excerpt, "Some bold words")
}

func TestPostService_CreateWithoutTagsHasEmptySet(t *testing.T) {
	svc := NewPostService(setupServiceTestDB(t))

	post := createTestPost(t, svc, "No Tags", "")
	require.NotNil(t, post.Tags)
	assert.Empty(t, post.Tags)
}

func TestPostService_CreateRequiresTitleAndContent(t *testing.T) {
	svc := NewPostService(setupServiceTestDB(t))

	_, err := svc.Create(PostInput{Content: "body"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Create(PostInput{Title: "Title", Content: "   "})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Create(PostInput{Title: "Title", Content: "body", Status: "archived"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestPostService_SlugCollisionsGetSuffixes(t *testing.T) {
	svc := NewPostService(setupServiceTestDB(t))

	first := createTestPost(t, svc, "Intro", "")
	second := createTestPost(t, svc, "Intro", "")
	third := createTestPost(t, svc, "intro!", "")

	assert.Equal(t, "intro", first.Slug)
	assert.Equal(t, "intro-1", second.Slug)
	assert.Equal(t, "intro-2", third.Slug)
}

func TestPostService_ExplicitAndFallbackSlugs(t *testing.T) {
	svc := NewPostService(setupServiceTestDB(t))

	custom, err := svc.Create(PostInput{Title: "Anything", Slug: "  My Custom Slug!! ", Content: "body"})
	require.NoError(t, err)
	assert.Equal(t, "my-custom-slug", custom.Slug)

	symbols, err := svc.Create(PostInput{Title: "!!!", Content: "body"})
	require.NoError(t, err)
	assert.Equal(t, "post", symbols.Slug)
}

func TestPostService_GetBySlugIncrementsViews(t *testing.T) {
	svc := NewPostService(setupServiceTestDB(t))
	createTestPost(t, svc, "Counted", db.PostStatusPublished)

	first, err := svc.GetBySlug("counted")
	require.NoError(t, err)
	assert.EqualValues(t, 1, first.ViewCount)

	second, err := svc.GetBySlug("counted")
	require.NoError(t, err)
	assert.EqualValues(t, 2, second.ViewCount)

	_, err = svc.GetBySlug("missing")
	assert.ErrorIs(t, err, ErrPostNotFound)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostService_ConcurrentViewsAreNotLost(t *testing.T) {
	svc := NewPostService(setupServiceTestDB(t))
	post := createTestPost(t, svc, "Popular", db.PostStatusPublished)

	const readers = 25
	var wg sync.WaitGroup
	errs := make(chan error, readers)
	for i := 0; i < readers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.GetBySlug(post.Slug); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	stored, err := svc.Get(post.ID)
	require.NoError(t, err)
	assert.EqualValues(t, readers, stored.ViewCount)
}

func TestPostService_ResolveDoesNotCountViews(t *testing.T) {
	svc := NewPostService(setupServiceTestDB(t))
	post := createTestPost(t, svc, "Resolvable", db.PostStatusPublished)

	byID, err := svc.Resolve(post.ID)
	require.NoError(t, err)
	bySlug, err := svc.Resolve(post.Slug)
	require.NoError(t, err)

	assert.Equal(t, post.ID, byID.ID)
	assert.Equal(t, post.ID, bySlug.ID)
	assert.Zero(t, bySlug.ViewCount)

	_, err = svc.Resolve("nope")
	assert.ErrorIs(t, err, ErrPostNotFound)
}

func TestPostService_ListFiltersAndOrder(t *testing.T) {
	svc := NewPostService(setupServiceTestDB(t))

	older, err := svc.Create(PostInput{Title: "Older", Content: "a", Category: "Tech", Status: db.PostStatusPublished, Tags: []string{"go"}})
	require.NoError(t, err)
	newer, err := svc.Create(PostInput{Title: "Newer", Content: "b", Category: "Tech", Status: db.PostStatusPublished})
	require.NoError(t, err)
	_, err = svc.Create(PostInput{Title: "Draft", Content: "c", Category: "Tech", Tags: []string{"go"}})
	require.NoError(t, err)
	_, err = svc.Create(PostInput{Title: "Life", Content: "d", Category: "Life", Status: db.PostStatusPublished})
	require.NoError(t, err)

	tech, err := svc.List(PostFilter{Category: "Tech", Status: db.PostStatusPublished})
	require.NoError(t, err)
	require.Len(t, tech.Posts, 2)
	assert.EqualValues(t, 2, tech.Total)
	assert.Equal(t, newer.ID, tech.Posts[0].ID)
	assert.Equal(t, older.ID, tech.Posts[1].ID)

	tagged, err := svc.List(PostFilter{Tag: "go", Status: db.PostStatusPublished})
	require.NoError(t, err)
	require.Len(t, tagged.Posts, 1)
	assert.Equal(t, older.ID, tagged.Posts[0].ID)
	assert.Equal(t, []string{"go"}, tagged.Posts[0].Tags)

	drafts, err := svc.List(PostFilter{Status: db.PostStatusDraft})
	require.NoError(t, err)
	assert.EqualValues(t, 1, drafts.Total)

	all, err := svc.List(PostFilter{Status: PostStatusAll})
	require.NoError(t, err)
	assert.EqualValues(t, 4, all.Total)
	assert.Equal(t, DefaultPostLimit, all.Limit)
}

func TestPostService_ListPageLength(t *testing.T) {
	svc := NewPostService(setupServiceTestDB(t))

	const total = 13
	for i := 0; i < total; i++ {
		createTestPost(t, svc, gofakeit.Sentence(4), db.PostStatusPublished)
	}

	cases := []struct {
		limit, skip int
	}{
		{limit: 5, skip: 0},
		{limit: 5, skip: 10},
		{limit: 20, skip: 0},
		{limit: 3, skip: 13},
		{limit: 4, skip: 40},
		{limit: 0, skip: 0},
	}
	for _, tc := range cases {
		page, err := svc.List(PostFilter{Status: db.PostStatusPublished, Limit: tc.limit, Skip: tc.skip})
		require.NoError(t, err)

		limit := tc.limit
		if limit == 0 {
			limit = DefaultPostLimit
		}
		want := total - tc.skip
		if want > limit {
			want = limit
		}
		if want < 0 {
			want = 0
		}
		assert.Len(t, page.Posts, want, "limit=%d skip=%d", tc.limit, tc.skip)
		assert.EqualValues(t, total, page.Total)
		assert.Equal(t, limit, page.Limit)
		assert.Equal(t, tc.skip, page.Skip)
	}
}

func TestPostService_ListRejectsNegativePaging(t *testing.T) {
	svc := NewPostService(setupServiceTestDB(t))

	_, err := svc.List(PostFilter{Limit: -1})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.List(PostFilter{Skip: -5})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestPostService_UpdateMergesFields(t *testing.T) {
	svc := NewPostService(setupServiceTestDB(t))
	post := createTestPost(t, svc, "Original", "", "old")

	title := "Renamed"
	status := db.PostStatusPublished
	tags := []string{"new", "fresh"}
	updated, err := svc.Update(post.ID, PostPatch{Title: &title, Status: &status, Tags: &tags})
	require.NoError(t, err)

	assert.Equal(t, "Renamed", updated.Title)
	assert.Equal(t, "original", updated.Slug)
	assert.Equal(t, post.Content, updated.Content)
	assert.Equal(t, db.PostStatusPublished, updated.Status)
	require.NotNil(t, updated.PublishedAt)
	assert.Equal(t, []string{"fresh", "new"}, updated.Tags)
	assert.False(t, updated.UpdatedAt.Before(post.UpdatedAt))

	publishedAt := *updated.PublishedAt
	again, err := svc.Update(post.ID, PostPatch{Status: &status})
	require.NoError(t, err)
	assert.True(t, again.PublishedAt.Equal(publishedAt))
}

func TestPostService_UpdateSlugConflictAndMissing(t *testing.T) {
	svc := NewPostService(setupServiceTestDB(t))
	createTestPost(t, svc, "Taken", "")
	post := createTestPost(t, svc, "Mine", "")

	slug := "Taken"
	_, err := svc.Update(post.ID, PostPatch{Slug: &slug})
	assert.ErrorIs(t, err, ErrSlugTaken)
	assert.ErrorIs(t, err, ErrConflict)

	empty := ""
	_, err = svc.Update(post.ID, PostPatch{Title: &empty})
	assert.ErrorIs(t, err, ErrValidation)

	title := "Ghost"
	_, err = svc.Update("missing-id", PostPatch{Title: &title})
	assert.ErrorIs(t, err, ErrPostNotFound)
}

func TestPostService_DeleteCascades(t *testing.T) {
	gdb := setupServiceTestDB(t)
	posts := NewPostService(gdb)
	comments := NewCommentService(gdb)
	upvotes := NewUpvoteService(gdb)

	post := createTestPost(t, posts, "Doomed", db.PostStatusPublished, "gone")
	keeper := createTestPost(t, posts, "Keeper", db.PostStatusPublished, "gone")

	_, err := comments.Submit(post.ID, CommentInput{Content: "bye"})
	require.NoError(t, err)
	_, err = comments.Submit(keeper.ID, CommentInput{Content: "stay"})
	require.NoError(t, err)
	_, err = upvotes.Toggle(post.ID, "visitor-1")
	require.NoError(t, err)

	require.NoError(t, posts.Delete(post.ID))

	var count int64
	require.NoError(t, gdb.Model(&db.Comment{}).Where("post_id = ?", post.ID).Count(&count).Error)
	assert.Zero(t, count)
	require.NoError(t, gdb.Model(&db.PostUpvote{}).Where("post_id = ?", post.ID).Count(&count).Error)
	assert.Zero(t, count)
	require.NoError(t, gdb.Model(&db.PostTag{}).Where("post_id = ?", post.ID).Count(&count).Error)
	assert.Zero(t, count)

	require.NoError(t, gdb.Model(&db.Comment{}).Where("post_id = ?", keeper.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	assert.ErrorIs(t, posts.Delete(post.ID), ErrPostNotFound)
	_, err = posts.Get(post.ID)
	assert.ErrorIs(t, err, ErrPostNotFound)
}

func TestPostService_DeleteRacingChildWritesLeavesNoOrphans(t *testing.T) {
	gdb := setupServiceTestDB(t)
	posts := NewPostService(gdb)
	comments := NewCommentService(gdb)
	upvotes := NewUpvoteService(gdb)

	post := createTestPost(t, posts, "Contested", db.PostStatusPublished)

	const writers = 10
	var wg sync.WaitGroup
	errs := make(chan error, writers*2+1)
	for i := 0; i < writers; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			if _, err := upvotes.Toggle(post.ID, fmt.Sprintf("visitor-%d", i)); err != nil {
				errs <- err
			}
		}(i)
		go func() {
			defer wg.Done()
			if _, err := comments.Submit(post.Slug, CommentInput{Content: "late"}); err != nil {
				errs <- err
			}
		}()
		if i == writers/2 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := posts.Delete(post.ID); err != nil {
					errs <- err
				}
			}()
		}
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		// writers that lose the race see the post as gone
		assert.ErrorIs(t, err, ErrPostNotFound)
	}

	_, err := posts.Get(post.ID)
	require.ErrorIs(t, err, ErrPostNotFound)

	var count int64
	require.NoError(t, gdb.Model(&db.Comment{}).Where("post_id = ?", post.ID).Count(&count).Error)
	assert.Zero(t, count)
	require.NoError(t, gdb.Model(&db.PostUpvote{}).Where("post_id = ?", post.ID).Count(&count).Error)
	assert.Zero(t, count)
}

func TestPostService_Stats(t *testing.T) {
	gdb := setupServiceTestDB(t)
	svc := NewPostService(gdb)

	published := createTestPost(t, svc, "Live", db.PostStatusPublished)
	createTestPost(t, svc, "Draft", "")
	_, err := svc.GetBySlug(published.Slug)
	require.NoError(t, err)
	_, err = NewUpvoteService(gdb).Toggle(published.Slug, "v1")
	require.NoError(t, err)

	stats, err := svc.Stats()
	require.NoError(t, err)
	assert.EqualValues(t, 2, stats.Total)
	assert.EqualValues(t, 1, stats.Published)
	assert.EqualValues(t, 1, stats.Drafts)
	assert.EqualValues(t, 1, stats.TotalViews)
	assert.EqualValues(t, 1, stats.TotalUpvotes)
}
