package main

import (
	"flag"

	"github.com/pressroom/internal/config"
	"github.com/pressroom/internal/db"
	"github.com/pressroom/internal/logging"
	"github.com/pressroom/internal/seed"
	"go.uber.org/zap"
)

// 初始数据导入工具
func main() {
	file := flag.String("file", "", "YAML fixture to import (defaults to the bundled sample data)")
	fake := flag.Int("fake", 0, "number of extra generated published posts")
	reset := flag.Bool("reset", false, "delete posts, comments, upvotes, categories and tags first")
	flag.Parse()

	config.LoadDotEnv()
	cfg := config.Load()
	logger := logging.New(logging.Options{Level: cfg.LogLevel, Development: true})
	defer logger.Sync()

	if err := db.Init(db.Options{Driver: cfg.DatabaseDriver, DSN: cfg.DatabaseDSN, Silent: true}); err != nil {
		logger.Fatal("数据库初始化失败", zap.Error(err))
	}

	var (
		fixture *seed.Fixture
		err     error
	)
	if *file != "" {
		fixture, err = seed.LoadFile(*file)
	} else {
		fixture, err = seed.Default()
	}
	if err != nil {
		logger.Fatal("load fixture", zap.Error(err))
	}

	if *fake > 0 {
		fixture.Posts = append(fixture.Posts, seed.FakePosts(*fake, fixture.CategoryNames(), fixture.TagNames())...)
	}

	if *reset {
		if err := seed.Reset(db.DB); err != nil {
			logger.Fatal("reset data", zap.Error(err))
		}
		logger.Info("cleared existing data")
	}

	report, err := seed.Apply(db.DB, fixture)
	logger.Info("seed finished",
		zap.Int("categories", report.Categories),
		zap.Int("tags", report.Tags),
		zap.Int("posts", report.Posts),
		zap.Int("skipped", report.Skipped),
	)
	if err != nil {
		logger.Fatal("seed completed with errors", zap.Error(err))
	}
}
