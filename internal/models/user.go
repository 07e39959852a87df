package models

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"vidtube/internal/security/password"
)

// ErrPlaintextPassword is returned when a user is saved with a password that
// was never hashed.
var ErrPlaintextPassword = errors.New("refusing to persist a plaintext password")

// User represents an account and the channel it owns.
type User struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	Username     string         `gorm:"uniqueIndex;not null" json:"username"`
	Email        string         `gorm:"uniqueIndex;not null" json:"email"`
	FullName     string         `gorm:"index;not null" json:"fullName"`
	Password     string         `gorm:"not null" json:"-"`
	Avatar       string         `gorm:"not null" json:"avatar"`
	CoverImage   string         `json:"coverImage"`
	RefreshToken string         `json:"-"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

// SetPassword hashes plaintext and stores the digest. It is the only way the
// Password field should be written.
func (u *User) SetPassword(plaintext string) error {
	digest, err := password.Default().Hash(plaintext)
	if err != nil {
		return err
	}
	u.Password = digest
	return nil
}

// CheckPassword reports whether plaintext matches the stored digest.
func (u *User) CheckPassword(plaintext string) bool {
	return password.Default().Verify(plaintext, u.Password)
}

// Normalize trims the profile fields and case-folds the identifiers.
func (u *User) Normalize() {
	u.Username = NormalizeIdentifier(u.Username)
	u.Email = NormalizeIdentifier(u.Email)
	u.FullName = strings.TrimSpace(u.FullName)
}

func (u *User) BeforeSave(*gorm.DB) error {
	if u.Password != "" && !password.IsDigest(u.Password) {
		return ErrPlaintextPassword
	}
	return nil
}

// Sanitized returns a copy without secret fields.
func (u *User) Sanitized() *User {
	if u == nil {
		return nil
	}
	clean := *u
	clean.Password = ""
	clean.RefreshToken = ""
	return &clean
}

// NormalizeIdentifier case-folds a username or email for storage and lookup.
func NormalizeIdentifier(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
