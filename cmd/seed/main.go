package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"network/config"
	"network/db"
	"network/logger"
	"network/models"
	"network/services"

	"github.com/brianvoe/gofakeit/v7"
	"go.uber.org/zap"
)

// seed fills a database with fake users, posts, follows, likes and comments.
func main() {
	var (
		configPath string
		userCount  int
		postsPer   int
		password   string
	)
	flag.StringVar(&configPath, "config", "config.yaml", "Path to the configuration file")
	flag.IntVar(&userCount, "users", 20, "Number of users to create")
	flag.IntVar(&postsPer, "posts", 15, "Posts per user")
	flag.StringVar(&password, "password", "password", "Password of every seeded user")
	flag.Parse()

	if err := config.LoadConfig(configPath); err != nil {
		panic("Failed to load configuration: " + err.Error())
	}
	if err := logger.Init(config.AppConfig.Logs.Level); err != nil {
		panic("Failed to init logger: " + err.Error())
	}
	defer func() { _ = logger.L.Sync() }()

	m, err := db.Connect(config.AppConfig)
	if err != nil {
		logger.L.Fatal("failed to connect to the database", zap.Error(err))
	}
	defer m.Close()

	ctx := context.Background()
	users := services.NewUserService(m)
	follows := services.NewFollowService(m, users, nil)
	likes := services.NewLikeService(m, nil)
	comments := services.NewCommentService(m, nil)

	identities := make([]services.Identity, 0, userCount)
	for i := 0; i < userCount; i++ {
		user, err := users.Register(ctx, services.RegisterInput{
			Username:     fmt.Sprintf("%s%d", gofakeit.Username(), i),
			Email:        gofakeit.Email(),
			Password:     password,
			Confirmation: password,
		})
		if err != nil {
			logger.L.Warn("failed to create user", zap.Error(err))
			continue
		}
		identities = append(identities, services.Identity{UserID: user.ID, Username: user.Username})
	}

	end := time.Now().UTC()
	start := end.AddDate(0, -3, 0)
	var postIDs []int64
	for _, who := range identities {
		for i := 0; i < postsPer; i++ {
			post := models.Post{
				AuthorID:  who.UserID,
				Content:   gofakeit.Phrase(),
				Timestamp: gofakeit.DateRange(start, end).UTC(),
			}
			if err := m.Write(ctx).Create(&post).Error; err != nil {
				logger.L.Warn("failed to create post", zap.Error(err))
				continue
			}
			postIDs = append(postIDs, post.ID)
		}
	}

	for _, who := range identities {
		for i := 0; i < gofakeit.Number(0, len(identities)/2); i++ {
			target := identities[gofakeit.Number(0, len(identities)-1)]
			if target.UserID == who.UserID {
				continue
			}
			if _, err := follows.ToggleFollow(ctx, who, target.Username); err != nil {
				logger.L.Warn("failed to follow", zap.Error(err))
			}
		}
		if len(postIDs) == 0 {
			continue
		}
		for i := 0; i < gofakeit.Number(0, 10); i++ {
			postID := postIDs[gofakeit.Number(0, len(postIDs)-1)]
			if _, err := likes.ToggleLike(ctx, who, postID); err != nil {
				logger.L.Warn("failed to like", zap.Error(err))
			}
			if gofakeit.Bool() {
				if _, err := comments.CreateComment(ctx, who, postID, gofakeit.Phrase()); err != nil {
					logger.L.Warn("failed to comment", zap.Error(err))
				}
			}
		}
	}

	logger.L.Info("seeding complete",
		zap.Int("users", len(identities)),
		zap.Int("posts", len(postIDs)))
}
