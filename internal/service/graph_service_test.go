package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vidtube/internal/models"
	"vidtube/internal/repository"
	"vidtube/internal/testutil"
)

type channelRepoStub struct {
	getProfileFn func(ctx context.Context, username string, viewerID uint) (*models.ChannelProfile, error)
}

func (s *channelRepoStub) GetProfile(ctx context.Context, username string, viewerID uint) (*models.ChannelProfile, error) {
	return s.getProfileFn(ctx, username, viewerID)
}

func (s *channelRepoStub) Subscribe(context.Context, uint, uint) error { return nil }

type historyRepoStub struct {
	listFn func(ctx context.Context, userID uint) ([]models.EnrichedVideo, error)
}

func (s *historyRepoStub) List(ctx context.Context, userID uint) ([]models.EnrichedVideo, error) {
	return s.listFn(ctx, userID)
}

func (s *historyRepoStub) Record(context.Context, uint, uint) error { return nil }

func TestGraphService_GetChannelProfile(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	ctx := context.Background()
	svc := NewGraphService(repository.NewUserRepository(db), repository.NewChannelRepository(db), repository.NewWatchHistoryRepository(db))

	chai := testutil.CreateUser(t, db, "chai")
	viewer := testutil.CreateUser(t, db, "viewer")
	other := testutil.CreateUser(t, db, "other")
	testutil.Subscribe(t, db, viewer, chai)
	testutil.Subscribe(t, db, other, chai)
	testutil.Subscribe(t, db, chai, other)

	profile, err := svc.GetChannelProfile(ctx, "  CHAI ", viewer.ID)
	require.NoError(t, err)
	assert.Equal(t, chai.ID, profile.ID)
	assert.Equal(t, int64(2), profile.SubscribersCount)
	assert.Equal(t, int64(1), profile.ChannelsSubscribedToCount)
	assert.True(t, profile.IsSubscribed)
	assert.Equal(t, chai.Email, profile.Email)

	profile, err = svc.GetChannelProfile(ctx, "chai", chai.ID)
	require.NoError(t, err)
	assert.False(t, profile.IsSubscribed)

	_, err = svc.GetChannelProfile(ctx, "ghost", viewer.ID)
	assert.True(t, models.IsCode(err, models.CodeNotFound))
	assert.EqualError(t, err, "channel does not exist")

	_, err = svc.GetChannelProfile(ctx, "   ", viewer.ID)
	assert.True(t, models.IsCode(err, models.CodeValidation))
	assert.EqualError(t, err, "Username is required")
}

func TestGraphService_GetChannelProfileRepoError(t *testing.T) {
	t.Parallel()
	boom := models.NewInternalError(errors.New("db down"))
	channels := &channelRepoStub{getProfileFn: func(context.Context, string, uint) (*models.ChannelProfile, error) {
		return nil, boom
	}}
	svc := NewGraphService(nil, channels, nil)

	_, err := svc.GetChannelProfile(context.Background(), "chai", 1)
	assert.ErrorIs(t, err, boom)
}

func TestGraphService_GetWatchHistory(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	ctx := context.Background()
	history := repository.NewWatchHistoryRepository(db)
	svc := NewGraphService(repository.NewUserRepository(db), repository.NewChannelRepository(db), history)

	viewer := testutil.CreateUser(t, db, "viewer")
	owner := testutil.CreateUser(t, db, "owner")
	first := testutil.CreateVideo(t, db, owner, "first")
	second := testutil.CreateVideo(t, db, owner, "second")
	require.NoError(t, history.Record(ctx, viewer.ID, first.ID))
	require.NoError(t, history.Record(ctx, viewer.ID, second.ID))

	videos, err := svc.GetWatchHistory(ctx, viewer.ID)
	require.NoError(t, err)
	require.Len(t, videos, 2)
	assert.Equal(t, second.ID, videos[0].ID)
	assert.Equal(t, first.ID, videos[1].ID)
	require.NotNil(t, videos[0].Owner)
	assert.Equal(t, "owner", videos[0].Owner.Username)

	empty, err := svc.GetWatchHistory(ctx, owner.ID)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	_, err = svc.GetWatchHistory(ctx, 999)
	assert.True(t, models.IsCode(err, models.CodeNotFound))
}

func TestGraphService_GetWatchHistoryNilFromRepo(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	viewer := testutil.CreateUser(t, db, "viewer")
	history := &historyRepoStub{listFn: func(context.Context, uint) ([]models.EnrichedVideo, error) {
		return nil, nil
	}}
	svc := NewGraphService(repository.NewUserRepository(db), nil, history)

	videos, err := svc.GetWatchHistory(context.Background(), viewer.ID)
	require.NoError(t, err)
	assert.NotNil(t, videos)
}
