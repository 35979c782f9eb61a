package service

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/pressroom/internal/db"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupServiceTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "-", " ", "-").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s-%d?mode=memory&cache=shared", name, time.Now().UnixNano())
	gdb, err := db.Open(db.Options{DSN: dsn, Silent: true})
	require.NoError(t, err, "open test database")
	require.NoError(t, db.Migrate(gdb), "migrate test database")

	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return gdb
}

func createTestPost(t *testing.T, svc *PostService, title, status string, tags ...string) *db.Post {
	t.Helper()

	post, err := svc.Create(PostInput{
		Title:   title,
		Content: "Body of " + title,
		Status:  status,
		Tags:    tags,
	})
	require.NoError(t, err, "create post %q", title)
	return post
}
