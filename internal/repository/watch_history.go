package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"vidtube/internal/models"
)

// WatchHistoryRepository answers queries over the viewing-history graph.
type WatchHistoryRepository interface {
	List(ctx context.Context, userID uint) ([]models.EnrichedVideo, error)
	Record(ctx context.Context, userID, videoID uint) error
}

type watchHistoryRepository struct {
	db *gorm.DB
}

func NewWatchHistoryRepository(db *gorm.DB) WatchHistoryRepository {
	return &watchHistoryRepository{db: db}
}

type historyRow struct {
	ID            uint
	Title         string
	Description   string
	VideoFile     string
	Thumbnail     string
	Duration      float64
	Views         int64
	IsPublished   bool
	CreatedAt     time.Time
	OwnerFullName *string
	OwnerUsername *string
	OwnerAvatar   *string
}

const historyColumns = `videos.id, videos.title, videos.description, videos.video_file, videos.thumbnail,
	videos.duration, videos.views, videos.is_published, videos.created_at,
	users.full_name AS owner_full_name, users.username AS owner_username, users.avatar AS owner_avatar`

// List returns the user's history in stored order, each entry resolved to
// its video and the video's owner. Entries whose video no longer exists are
// skipped; an owner that no longer exists yields a nil Owner.
func (r *watchHistoryRepository) List(ctx context.Context, userID uint) ([]models.EnrichedVideo, error) {
	var rows []historyRow
	err := readerFor(r.db).WithContext(ctx).
		Table("watch_history_entries").
		Select(historyColumns).
		Joins("JOIN videos ON videos.id = watch_history_entries.video_id").
		Joins("LEFT JOIN users ON users.id = videos.owner_id AND users.deleted_at IS NULL").
		Where("watch_history_entries.user_id = ?", userID).
		Order("watch_history_entries.position ASC, watch_history_entries.id DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	videos := make([]models.EnrichedVideo, 0, len(rows))
	for _, row := range rows {
		v := models.EnrichedVideo{
			ID:          row.ID,
			Title:       row.Title,
			Description: row.Description,
			VideoFile:   row.VideoFile,
			Thumbnail:   row.Thumbnail,
			Duration:    row.Duration,
			Views:       row.Views,
			IsPublished: row.IsPublished,
			CreatedAt:   row.CreatedAt,
		}
		if row.OwnerUsername != nil {
			v.Owner = &models.VideoOwner{
				FullName: deref(row.OwnerFullName),
				Username: *row.OwnerUsername,
				Avatar:   deref(row.OwnerAvatar),
			}
		}
		videos = append(videos, v)
	}
	return videos, nil
}

// Record places videoID at the front of the user's history.
func (r *watchHistoryRepository) Record(ctx context.Context, userID, videoID uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var front int
		if err := tx.Model(&models.WatchHistoryEntry{}).
			Where("user_id = ?", userID).
			Select("COALESCE(MIN(position), 0)").
			Scan(&front).Error; err != nil {
			return err
		}
		return tx.Create(&models.WatchHistoryEntry{
			UserID:   userID,
			VideoID:  videoID,
			Position: front - 1,
		}).Error
	})
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
