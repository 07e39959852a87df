// Package testutil provides shared fixtures for tests.
package testutil

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"vidtube/internal/database"
	"vidtube/internal/models"
	"vidtube/internal/security/password"
)

// NewSQLiteDB returns a migrated in-memory database private to t.
func NewSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()
	password.SetDefault(password.NewHasher(bcrypt.MinCost))

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_busy_timeout=5000", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.AutoMigrate(db))
	return db
}

// CreateUser inserts a user whose password is "p@ss".
func CreateUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	u := &models.User{
		Username: username,
		Email:    username + "@example.com",
		FullName: strings.ToUpper(username[:1]) + username[1:],
		Avatar:   "https://cdn.example.com/" + username + ".png",
	}
	require.NoError(t, u.SetPassword("p@ss"))
	require.NoError(t, db.Create(u).Error)
	return u
}

// CreateVideo inserts a published video owned by owner.
func CreateVideo(t *testing.T, db *gorm.DB, owner *models.User, title string) *models.Video {
	t.Helper()
	v := &models.Video{
		OwnerID:     owner.ID,
		Title:       title,
		VideoFile:   "https://cdn.example.com/" + title + ".mp4",
		Thumbnail:   "https://cdn.example.com/" + title + ".jpg",
		Duration:    42,
		IsPublished: true,
	}
	require.NoError(t, db.Create(v).Error)
	return v
}

// Subscribe inserts a subscription edge.
func Subscribe(t *testing.T, db *gorm.DB, subscriber, channel *models.User) {
	t.Helper()
	require.NoError(t, db.Create(&models.Subscription{SubscriberID: subscriber.ID, ChannelID: channel.ID}).Error)
}
