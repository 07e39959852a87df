package models

import "time"

// Subscription is a directed edge: SubscriberID follows the channel owned by ChannelID.
type Subscription struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	SubscriberID uint      `gorm:"index;not null" json:"subscriber"`
	ChannelID    uint      `gorm:"index;not null" json:"channel"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// ChannelProfile is the public view of a channel as seen by one viewer.
type ChannelProfile struct {
	ID                        uint   `json:"id"`
	FullName                  string `json:"fullName"`
	Username                  string `json:"username"`
	SubscribersCount          int64  `json:"subscribersCount"`
	ChannelsSubscribedToCount int64  `json:"channelsSubscribedToCount"`
	IsSubscribed              bool   `json:"isSubscribed"`
	Avatar                    string `json:"avatar"`
	CoverImage                string `json:"coverImage"`
	Email                     string `json:"email"`
}
