package service

import (
	"context"
	"strings"

	"vidtube/internal/models"
	"vidtube/internal/repository"
)

// GraphService answers read-only queries over the subscription and
// watch-history graphs.
type GraphService struct {
	users    repository.UserRepository
	channels repository.ChannelRepository
	history  repository.WatchHistoryRepository
}

func NewGraphService(users repository.UserRepository, channels repository.ChannelRepository, history repository.WatchHistoryRepository) *GraphService {
	return &GraphService{users: users, channels: channels, history: history}
}

// GetChannelProfile returns the channel's public profile as seen by viewerID.
func (s *GraphService) GetChannelProfile(ctx context.Context, username string, viewerID uint) (*models.ChannelProfile, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, models.NewValidationError("Username is required")
	}

	profile, err := s.channels.GetProfile(ctx, strings.ToLower(username), viewerID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, models.NewNotFoundMessage("channel does not exist")
	}
	return profile, nil
}

// GetWatchHistory returns the viewer's history in stored order.
func (s *GraphService) GetWatchHistory(ctx context.Context, viewerID uint) ([]models.EnrichedVideo, error) {
	if _, err := s.users.GetByID(ctx, viewerID); err != nil {
		return nil, err
	}
	videos, err := s.history.List(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	if videos == nil {
		videos = []models.EnrichedVideo{}
	}
	return videos, nil
}
