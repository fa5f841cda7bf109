package models

import "time"

type SubscriptionStatus string

const (
	SubscriptionStatusActive  SubscriptionStatus = "active"
	SubscriptionStatusExpired SubscriptionStatus = "expired"
)

// Subscription links a paying subscriber to a streamer.
type Subscription struct {
	ID           uint               `json:"id" gorm:"primaryKey"`
	SubscriberID string             `json:"subscriberId" gorm:"type:text;not null;index"`
	StreamerID   string             `json:"streamerId" gorm:"type:text;not null;index"`
	Status       SubscriptionStatus `json:"status" gorm:"type:text;default:'active'"`
	CreatedAt    time.Time          `json:"createdAt" gorm:"autoCreateTime"`

	Subscriber *User `json:"-" gorm:"foreignKey:SubscriberID;references:ID"`
	Streamer   *User `json:"-" gorm:"foreignKey:StreamerID;references:ID"`
}
