package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vidtube/internal/models"
	"vidtube/internal/testutil"
)

func TestChannelRepository_GetProfile(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewChannelRepository(db)
	ctx := context.Background()

	chai := testutil.CreateUser(t, db, "chai")
	a := testutil.CreateUser(t, db, "alice")
	b := testutil.CreateUser(t, db, "bob")
	c := testutil.CreateUser(t, db, "carol")
	d := testutil.CreateUser(t, db, "dave")

	// Three subscribers, one of them twice; chai follows two channels.
	testutil.Subscribe(t, db, a, chai)
	testutil.Subscribe(t, db, b, chai)
	testutil.Subscribe(t, db, c, chai)
	testutil.Subscribe(t, db, c, chai)
	testutil.Subscribe(t, db, chai, d)
	testutil.Subscribe(t, db, chai, a)

	tests := []struct {
		name           string
		viewer         uint
		wantSubscribed bool
	}{
		{"subscriber viewing", a.ID, true},
		{"non-subscriber viewing", d.ID, false},
		{"owner viewing", chai.ID, false},
		{"anonymous viewer", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profile, err := repo.GetProfile(ctx, "chai", tt.viewer)
			require.NoError(t, err)
			require.NotNil(t, profile)

			assert.Equal(t, chai.ID, profile.ID)
			assert.Equal(t, "chai", profile.Username)
			assert.Equal(t, chai.FullName, profile.FullName)
			assert.Equal(t, chai.Email, profile.Email)
			assert.Equal(t, chai.Avatar, profile.Avatar)
			assert.Equal(t, int64(4), profile.SubscribersCount, "duplicate edges count separately")
			assert.Equal(t, int64(2), profile.ChannelsSubscribedToCount)
			assert.Equal(t, tt.wantSubscribed, profile.IsSubscribed)
		})
	}
}

func TestChannelRepository_GetProfile_NoEdges(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewChannelRepository(db)
	lonely := testutil.CreateUser(t, db, "lonely")

	profile, err := repo.GetProfile(context.Background(), "lonely", lonely.ID)
	require.NoError(t, err)
	require.NotNil(t, profile)
	assert.Zero(t, profile.SubscribersCount)
	assert.Zero(t, profile.ChannelsSubscribedToCount)
	assert.False(t, profile.IsSubscribed)
}

func TestChannelRepository_GetProfile_Missing(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewChannelRepository(db)

	profile, err := repo.GetProfile(context.Background(), "ghost", 1)
	assert.NoError(t, err)
	assert.Nil(t, profile)
}

func TestChannelRepository_Subscribe(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewChannelRepository(db)
	ctx := context.Background()
	chai := testutil.CreateUser(t, db, "chai")
	fan := testutil.CreateUser(t, db, "fan")

	require.NoError(t, repo.Subscribe(ctx, fan.ID, chai.ID))
	profile, err := repo.GetProfile(ctx, "chai", fan.ID)
	require.NoError(t, err)
	assert.True(t, profile.IsSubscribed)
	assert.Equal(t, int64(1), profile.SubscribersCount)
}

func TestChannelRepository_GetProfile_DriverError(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewChannelRepository(db)
	boom := errors.New("statement timeout")

	mock.ExpectQuery(`SELECT users.id`).WillReturnError(boom)
	_, err := repo.GetProfile(context.Background(), "chai", 1)
	assert.True(t, models.IsCode(err, models.CodeInternal))
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}
