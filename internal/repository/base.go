// Package repository implements the data access layer for the application.
package repository

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"vidtube/internal/database"
)

const uniqueViolation = "23505"

// readerFor returns the read replica when one is configured, otherwise db.
func readerFor(db *gorm.DB) *gorm.DB {
	if readDB := database.GetReadDB(); readDB != nil {
		return readDB
	}
	return db
}

// isUniqueConstraintError reports whether err is a unique constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == uniqueViolation
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, uniqueViolation)
}
