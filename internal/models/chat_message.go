package models

import "time"

type ChatMessage struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	StreamID  uint      `json:"streamId" gorm:"not null;index"`
	UserID    string    `json:"userId" gorm:"type:text;not null"`
	Content   string    `json:"content" gorm:"type:text;not null"`
	CreatedAt time.Time `json:"createdAt" gorm:"autoCreateTime"`

	Stream *Stream `json:"-" gorm:"foreignKey:StreamID;references:ID"`
	User   *User   `json:"-" gorm:"foreignKey:UserID;references:ID"`
}
