package models

import "time"

type Video struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	OwnerID     uint      `gorm:"index;not null" json:"ownerId"`
	Title       string    `gorm:"not null" json:"title"`
	Description string    `json:"description"`
	VideoFile   string    `gorm:"not null" json:"videoFile"`
	Thumbnail   string    `json:"thumbnail"`
	Duration    float64   `json:"duration"`
	Views       int64     `gorm:"default:0" json:"views"`
	IsPublished bool      `gorm:"default:true" json:"isPublished"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// WatchHistoryEntry places one video in a user's history. Entries are read
// in ascending Position order.
type WatchHistoryEntry struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index:idx_watch_history_user_position,priority:1;not null" json:"userId"`
	VideoID   uint      `gorm:"not null" json:"videoId"`
	Position  int       `gorm:"index:idx_watch_history_user_position,priority:2;not null" json:"position"`
	CreatedAt time.Time `json:"createdAt"`
}

// VideoOwner is the public projection of a video's owner.
type VideoOwner struct {
	FullName string `json:"fullName"`
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
}

// EnrichedVideo is a history entry resolved to its video and owner.
type EnrichedVideo struct {
	ID          uint        `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	VideoFile   string      `json:"videoFile"`
	Thumbnail   string      `json:"thumbnail"`
	Duration    float64     `json:"duration"`
	Views       int64       `json:"views"`
	IsPublished bool        `json:"isPublished"`
	CreatedAt   time.Time   `json:"createdAt"`
	Owner       *VideoOwner `json:"owner"`
}
