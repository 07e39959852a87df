package repository

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"vidtube/internal/cache"
	"vidtube/internal/models"
	"vidtube/internal/testutil"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

func TestUserRepository_GetByID(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()
	chai := testutil.CreateUser(t, db, "chai")
	require.NoError(t, repo.SetRefreshToken(ctx, chai.ID, "rt"))

	tests := []struct {
		name     string
		id       uint
		wantCode string
	}{
		{"found", chai.ID, ""},
		{"missing", 999, models.CodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, err := repo.GetByID(ctx, tt.id)
			if tt.wantCode != "" {
				assert.True(t, models.IsCode(err, tt.wantCode))
				assert.Nil(t, user)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "chai", user.Username)
			assert.Empty(t, user.Password)
			assert.Empty(t, user.RefreshToken)
		})
	}
}

func TestUserRepository_GetByID_UsesCache(t *testing.T) {
	mr := miniredis.RunT(t)
	cache.SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { cache.SetClient(nil) })

	db := testutil.NewSQLiteDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()
	chai := testutil.CreateUser(t, db, "chai")

	_, err := repo.GetByID(ctx, chai.ID)
	require.NoError(t, err)
	cached, err := mr.Get(cache.UserKey(chai.ID))
	require.NoError(t, err)
	assert.NotContains(t, cached, "$2a$", "cached payload never carries the digest")

	updated, err := repo.UpdateAvatar(ctx, chai.ID, "https://cdn.example.com/new.png")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/new.png", updated.Avatar)
	assert.False(t, mr.Exists(cache.UserKey(chai.ID)), "writes invalidate the cache")

	fresh, err := repo.GetByID(ctx, chai.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/new.png", fresh.Avatar)
}

func TestUserRepository_FindByUsernameOrEmail(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()
	testutil.CreateUser(t, db, "chai")

	tests := []struct {
		name     string
		username string
		email    string
		found    bool
	}{
		{"by username", "chai", "", true},
		{"by username case-folded", "  CHAI ", "", true},
		{"by email", "", "Chai@Example.com", true},
		{"either matches", "nobody", "chai@example.com", true},
		{"no match", "nobody", "nobody@example.com", false},
		{"both empty", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, err := repo.FindByUsernameOrEmail(ctx, tt.username, tt.email)
			require.NoError(t, err)
			if !tt.found {
				assert.Nil(t, user)
				return
			}
			require.NotNil(t, user)
			assert.Equal(t, "chai", user.Username)
			assert.NotEmpty(t, user.Password, "credential lookups include the digest")
		})
	}
}

func TestUserRepository_Create(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	u := &models.User{Username: " Chai ", Email: "CHAI@example.com", FullName: " Chai ", Avatar: "a"}
	require.NoError(t, u.SetPassword("p@ss"))
	require.NoError(t, repo.Create(ctx, u))
	assert.NotZero(t, u.ID)
	assert.Equal(t, "chai", u.Username)
	assert.Equal(t, "chai@example.com", u.Email)

	dup := &models.User{Username: "CHAI", Email: "other@example.com", FullName: "x", Avatar: "a"}
	require.NoError(t, dup.SetPassword("p@ss"))
	err := repo.Create(ctx, dup)
	assert.True(t, models.IsCode(err, models.CodeConflict), "got %v", err)

	plain := &models.User{Username: "plain", Email: "plain@example.com", FullName: "x", Avatar: "a", Password: "p@ss"}
	err = repo.Create(ctx, plain)
	assert.True(t, models.IsCode(err, models.CodeInternal))
	assert.ErrorIs(t, err, models.ErrPlaintextPassword)
}

func TestUserRepository_UpdateAccount(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()
	chai := testutil.CreateUser(t, db, "chai")
	testutil.CreateUser(t, db, "taken")
	require.NoError(t, repo.SetRefreshToken(ctx, chai.ID, "rt-1"))

	updated, err := repo.UpdateAccount(ctx, chai.ID, "Chai Code", "NEW@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Chai Code", updated.FullName)
	assert.Equal(t, "new@example.com", updated.Email)
	assert.Empty(t, updated.RefreshToken)

	stored, err := repo.GetWithSecrets(ctx, chai.ID)
	require.NoError(t, err)
	assert.Equal(t, chai.Password, stored.Password, "profile updates never touch the digest")
	assert.Equal(t, "rt-1", stored.RefreshToken)

	_, err = repo.UpdateAccount(ctx, chai.ID, "Chai", "taken@example.com")
	assert.True(t, models.IsCode(err, models.CodeConflict))

	_, err = repo.UpdateAccount(ctx, 999, "Ghost", "ghost@example.com")
	assert.True(t, models.IsCode(err, models.CodeNotFound))
}

func TestUserRepository_UpdatePassword(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()
	chai := testutil.CreateUser(t, db, "chai")

	err := repo.UpdatePassword(ctx, chai.ID, "plaintext")
	assert.ErrorIs(t, err, models.ErrPlaintextPassword)

	next := &models.User{}
	require.NoError(t, next.SetPassword("n3w"))
	require.NoError(t, repo.UpdatePassword(ctx, chai.ID, next.Password))

	stored, err := repo.GetWithSecrets(ctx, chai.ID)
	require.NoError(t, err)
	assert.True(t, stored.CheckPassword("n3w"))
	assert.False(t, stored.CheckPassword("p@ss"))
}

func TestUserRepository_RefreshTokenLifecycle(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()
	chai := testutil.CreateUser(t, db, "chai")

	require.NoError(t, repo.SetRefreshToken(ctx, chai.ID, "rt-1"))

	swapped, err := repo.SwapRefreshToken(ctx, chai.ID, "stale", "rt-x")
	require.NoError(t, err)
	assert.False(t, swapped)

	swapped, err = repo.SwapRefreshToken(ctx, chai.ID, "rt-1", "rt-2")
	require.NoError(t, err)
	assert.True(t, swapped)

	swapped, err = repo.SwapRefreshToken(ctx, chai.ID, "rt-1", "rt-3")
	require.NoError(t, err)
	assert.False(t, swapped, "a consumed token cannot be swapped again")

	stored, err := repo.GetWithSecrets(ctx, chai.ID)
	require.NoError(t, err)
	assert.Equal(t, "rt-2", stored.RefreshToken)

	require.NoError(t, repo.ClearRefreshToken(ctx, chai.ID))
	require.NoError(t, repo.ClearRefreshToken(ctx, chai.ID), "logout is idempotent")

	swapped, err = repo.SwapRefreshToken(ctx, chai.ID, "", "rt-4")
	require.NoError(t, err)
	assert.False(t, swapped, "an empty stored token never matches")
}

func TestUserRepository_SwapRefreshToken_Concurrent(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()
	chai := testutil.CreateUser(t, db, "chai")
	require.NoError(t, repo.SetRefreshToken(ctx, chai.ID, "rt-1"))

	const racers = 8
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ok, err := repo.SwapRefreshToken(ctx, chai.ID, "rt-1", "next")
			if err == nil && ok {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
}

func TestUserRepository_DriverErrorsAreWrapped(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()
	boom := errors.New("connection refused")

	mock.ExpectQuery(`SELECT \* FROM "users"`).WillReturnError(boom)
	_, err := repo.GetWithSecrets(ctx, 1)
	assert.True(t, models.IsCode(err, models.CodeInternal))
	assert.ErrorIs(t, err, boom)

	mock.ExpectQuery(`SELECT \* FROM "users"`).WillReturnError(boom)
	_, err = repo.FindByUsernameOrEmail(ctx, "chai", "")
	assert.True(t, models.IsCode(err, models.CodeInternal))

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "users" SET`).WillReturnError(boom)
	mock.ExpectRollback()
	_, err = repo.SwapRefreshToken(ctx, 1, "old", "new")
	assert.True(t, models.IsCode(err, models.CodeInternal))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_CreateMapsPostgresUniqueViolation(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "users"`).WillReturnError(&pgconn.PgError{Code: "23505", Message: "duplicate key value"})
	mock.ExpectRollback()

	u := &models.User{Username: "chai", Email: "chai@example.com", FullName: "Chai", Avatar: "a"}
	require.NoError(t, u.SetPassword("p@ss"))
	err := repo.Create(context.Background(), u)
	assert.True(t, models.IsCode(err, models.CodeConflict))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIsUniqueConstraintError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"pg unique", &pgconn.PgError{Code: "23505"}, true},
		{"pg other", &pgconn.PgError{Code: "23503"}, false},
		{"gorm duplicated", gorm.ErrDuplicatedKey, true},
		{"sqlite message", errors.New("UNIQUE constraint failed: users.email"), true},
		{"other", errors.New("timeout"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isUniqueConstraintError(tt.err))
		})
	}
}
