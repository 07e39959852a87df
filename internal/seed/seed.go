// Package seed populates a database with demo users, channels, videos and
// watch history. It is meant for development and tests only.
package seed

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"

	"vidtube/internal/middleware"
	"vidtube/internal/models"
	"vidtube/internal/repository"
)

// DefaultPassword is the password every seeded user gets.
const DefaultPassword = "password123"

// Options configures a seeding run.
type Options struct {
	NumUsers             int
	VideosPerUser        int
	SubscriptionsPerUser int
	HistoryPerUser       int
	Clean                bool
	// RandSeed makes runs reproducible when non-zero.
	RandSeed int64
}

// DefaultOptions is a small but connected data set.
func DefaultOptions() Options {
	return Options{
		NumUsers:             20,
		VideosPerUser:        3,
		SubscriptionsPerUser: 5,
		HistoryPerUser:       8,
		Clean:                true,
	}
}

// Result reports what a run created.
type Result struct {
	Users         []*models.User
	Videos        []*models.Video
	Subscriptions int
	HistoryItems  int
}

// Seeder writes demo data through the repositories.
type Seeder struct {
	db       *gorm.DB
	users    repository.UserRepository
	videos   repository.VideoRepository
	channels repository.ChannelRepository
	history  repository.WatchHistoryRepository
}

func NewSeeder(db *gorm.DB) *Seeder {
	return &Seeder{
		db:       db,
		users:    repository.NewUserRepository(db),
		videos:   repository.NewVideoRepository(db),
		channels: repository.NewChannelRepository(db),
		history:  repository.NewWatchHistoryRepository(db),
	}
}

// ClearAll removes every seeded row, users included.
func (s *Seeder) ClearAll(ctx context.Context) error {
	tx := s.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true})
	for _, model := range []interface{}{
		&models.WatchHistoryEntry{},
		&models.Subscription{},
		&models.Video{},
	} {
		if err := tx.Delete(model).Error; err != nil {
			return fmt.Errorf("clear %T: %w", model, err)
		}
	}
	if err := tx.Unscoped().Delete(&models.User{}).Error; err != nil {
		return fmt.Errorf("clear users: %w", err)
	}
	return nil
}

// Run seeds the database according to opts.
func (s *Seeder) Run(ctx context.Context, opts Options) (*Result, error) {
	if opts.Clean {
		if err := s.ClearAll(ctx); err != nil {
			return nil, err
		}
	}
	faker := gofakeit.New(opts.RandSeed)
	res := &Result{}

	for i := 0; i < opts.NumUsers; i++ {
		user, err := s.createUser(ctx, faker, i)
		if err != nil {
			return nil, err
		}
		res.Users = append(res.Users, user)

		for j := 0; j < opts.VideosPerUser; j++ {
			video := &models.Video{
				OwnerID:     user.ID,
				Title:       strings.TrimSuffix(faker.Sentence(4), "."),
				Description: faker.Paragraph(1, 2, 12, " "),
				VideoFile:   fmt.Sprintf("https://cdn.example.com/videos/%s.mp4", faker.UUID()),
				Thumbnail:   fmt.Sprintf("https://picsum.photos/seed/%s/640/360", faker.UUID()),
				Duration:    faker.Float64Range(30, 3600),
				Views:       int64(faker.Number(0, 100000)),
				IsPublished: true,
			}
			if err := s.videos.Create(ctx, video); err != nil {
				return nil, err
			}
			res.Videos = append(res.Videos, video)
		}
	}

	for _, user := range res.Users {
		for _, channel := range pick(faker, res.Users, opts.SubscriptionsPerUser, user.ID) {
			if err := s.channels.Subscribe(ctx, user.ID, channel.ID); err != nil {
				return nil, err
			}
			res.Subscriptions++
		}
		if len(res.Videos) == 0 {
			continue
		}
		for k := 0; k < opts.HistoryPerUser; k++ {
			video := res.Videos[faker.Number(0, len(res.Videos)-1)]
			if err := s.history.Record(ctx, user.ID, video.ID); err != nil {
				return nil, err
			}
			res.HistoryItems++
		}
	}

	middleware.Logger.InfoContext(ctx, "seeding complete",
		"users", len(res.Users),
		"videos", len(res.Videos),
		"subscriptions", res.Subscriptions,
		"history", res.HistoryItems,
	)
	return res, nil
}

func (s *Seeder) createUser(ctx context.Context, faker *gofakeit.Faker, i int) (*models.User, error) {
	first, last := faker.FirstName(), faker.LastName()
	username := Username(first, i)
	user := &models.User{
		FullName: first + " " + last,
		Username: username,
		Email:    username + "@example.com",
		Avatar:   fmt.Sprintf("https://i.pravatar.cc/300?u=%s", username),
	}
	if faker.Bool() {
		user.CoverImage = fmt.Sprintf("https://picsum.photos/seed/%s/1500/400", username)
	}
	if err := user.SetPassword(DefaultPassword); err != nil {
		return nil, err
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Username builds a valid, unique username from a display name and index.
func Username(name string, i int) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
		}
	}
	base := b.String()
	if len(base) > 20 {
		base = base[:20]
	}
	if base == "" {
		base = "user"
	}
	return fmt.Sprintf("%s%d", base, i+1)
}

// pick returns up to n distinct users other than self.
func pick(faker *gofakeit.Faker, users []*models.User, n int, self uint) []*models.User {
	candidates := make([]*models.User, 0, len(users))
	for _, u := range users {
		if u.ID != self {
			candidates = append(candidates, u)
		}
	}
	faker.ShuffleAnySlice(candidates)
	if n > len(candidates) {
		n = len(candidates)
	}
	return candidates[:n]
}
