package models

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"vidtube/internal/security/password"
)

func init() {
	password.SetDefault(password.NewHasher(bcrypt.MinCost))
}

func TestUser_SetPasswordAndCheck(t *testing.T) {
	u := &User{}
	require.NoError(t, u.SetPassword("p@ss"))
	assert.NotEqual(t, "p@ss", u.Password)
	assert.True(t, u.CheckPassword("p@ss"))
	assert.False(t, u.CheckPassword("nope"))
}

func TestUser_JSONOmitsSecrets(t *testing.T) {
	u := &User{ID: 1, Username: "chai", Email: "chai@example.com", RefreshToken: "token"}
	require.NoError(t, u.SetPassword("p@ss"))

	b, err := json.Marshal(u)
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(b, &fields))
	assert.NotContains(t, fields, "password")
	assert.NotContains(t, fields, "Password")
	assert.NotContains(t, fields, "refreshToken")
	assert.NotContains(t, fields, "RefreshToken")
	assert.Equal(t, "chai", fields["username"])
}

func TestUser_Sanitized(t *testing.T) {
	u := &User{ID: 1, Password: "digest", RefreshToken: "token"}
	clean := u.Sanitized()
	assert.Empty(t, clean.Password)
	assert.Empty(t, clean.RefreshToken)
	assert.Equal(t, "digest", u.Password, "original is untouched")
	assert.Nil(t, (*User)(nil).Sanitized())
}

func TestUser_Normalize(t *testing.T) {
	u := &User{Username: "  ChaiAurCode ", Email: " Chai@Example.COM", FullName: "  Chai  "}
	u.Normalize()
	assert.Equal(t, "chaiaurcode", u.Username)
	assert.Equal(t, "chai@example.com", u.Email)
	assert.Equal(t, "Chai", u.FullName)
}

func TestUser_BeforeSaveRejectsPlaintext(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file:models_hooks?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&User{}))

	plain := &User{Username: "a", Email: "a@example.com", FullName: "A", Avatar: "x", Password: "p@ss"}
	err = db.Create(plain).Error
	assert.ErrorIs(t, err, ErrPlaintextPassword)

	hashed := &User{Username: "b", Email: "b@example.com", FullName: "B", Avatar: "x"}
	require.NoError(t, hashed.SetPassword("p@ss"))
	require.NoError(t, db.Create(hashed).Error)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{NewValidationError("bad"), http.StatusBadRequest},
		{NewUnauthorizedError("no"), http.StatusUnauthorized},
		{NewNotFoundMessage("gone"), http.StatusNotFound},
		{NewConflictError("dup"), http.StatusConflict},
		{NewInternalError(errors.New("db")), http.StatusInternalServerError},
		{errors.New("plain"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusFor(tt.err), tt.err.Error())
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("token reused")
	err := WrapUnauthorized("Refresh token is expired or used", cause)
	assert.ErrorIs(t, err, cause)
	assert.True(t, IsCode(err, CodeUnauthorized))
	assert.False(t, IsCode(err, CodeNotFound))
}
