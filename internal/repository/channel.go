package repository

import (
	"context"

	"gorm.io/gorm"

	"vidtube/internal/models"
)

// ChannelRepository answers queries over the subscription graph.
type ChannelRepository interface {
	GetProfile(ctx context.Context, username string, viewerID uint) (*models.ChannelProfile, error)
	Subscribe(ctx context.Context, subscriberID, channelID uint) error
}

type channelRepository struct {
	db *gorm.DB
}

func NewChannelRepository(db *gorm.DB) ChannelRepository {
	return &channelRepository{db: db}
}

const channelProfileColumns = `users.id, users.full_name, users.username, users.avatar, users.cover_image, users.email,
	(SELECT COUNT(*) FROM subscriptions WHERE subscriptions.channel_id = users.id) AS subscribers_count,
	(SELECT COUNT(*) FROM subscriptions WHERE subscriptions.subscriber_id = users.id) AS channels_subscribed_to_count,
	EXISTS (SELECT 1 FROM subscriptions WHERE subscriptions.channel_id = users.id AND subscriptions.subscriber_id = ?) AS is_subscribed`

// GetProfile resolves a channel by username together with its subscription
// counts and whether viewerID subscribes to it, in a single statement.
// Every edge is counted, duplicates included. It returns (nil, nil) when the
// channel does not exist.
func (r *channelRepository) GetProfile(ctx context.Context, username string, viewerID uint) (*models.ChannelProfile, error) {
	var profile models.ChannelProfile
	result := readerFor(r.db).WithContext(ctx).
		Table("users").
		Select(channelProfileColumns, viewerID).
		Where("users.username = ? AND users.deleted_at IS NULL", username).
		Limit(1).
		Scan(&profile)
	if result.Error != nil {
		return nil, models.NewInternalError(result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, nil
	}
	return &profile, nil
}

func (r *channelRepository) Subscribe(ctx context.Context, subscriberID, channelID uint) error {
	edge := &models.Subscription{SubscriberID: subscriberID, ChannelID: channelID}
	if err := r.db.WithContext(ctx).Create(edge).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}
