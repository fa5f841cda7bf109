package models

import "time"

type StreamStatus string

const (
	StreamStatusLive    StreamStatus = "live"
	StreamStatusOffline StreamStatus = "offline"
)

// Stream is one broadcast session. A user owns any number of them; at most
// one is live at a time.
type Stream struct {
	ID              uint         `json:"id" gorm:"primaryKey"`
	UserID          string       `json:"userId" gorm:"type:text;not null;index"`
	Title           string       `json:"title" gorm:"type:text;not null"`
	Category        *string      `json:"category" gorm:"type:text"`
	Status          StreamStatus `json:"status" gorm:"type:text;default:'offline';index"`
	ViewerCount     int          `json:"viewerCount" gorm:"default:0"`
	ThumbnailURL    *string      `json:"thumbnailUrl" gorm:"column:thumbnail_url;type:text"`
	LivekitRoomName *string      `json:"livekitRoomName" gorm:"column:livekit_room_name;type:text"`
	CreatedAt       time.Time    `json:"createdAt" gorm:"autoCreateTime"`

	User *User `json:"-" gorm:"foreignKey:UserID;references:ID"`
}

// CreateStreamRequest is the body of POST /streams. Status defaults to live.
type CreateStreamRequest struct {
	UserID          string       `json:"userId" validate:"required"`
	Title           string       `json:"title" validate:"required,max=140"`
	Category        *string      `json:"category,omitempty"`
	Status          StreamStatus `json:"status,omitempty" validate:"omitempty,oneof=live offline"`
	ThumbnailURL    *string      `json:"thumbnailUrl,omitempty"`
	LivekitRoomName *string      `json:"livekitRoomName,omitempty"`
}

type UpdateViewerCountRequest struct {
	ViewerCount *int `json:"viewerCount" validate:"required,min=0"`
}

// RoomTokenRequest is the body of POST /streams/token.
type RoomTokenRequest struct {
	UserID      string `json:"userId" validate:"required"`
	Username    string `json:"username" validate:"required"`
	RoomName    string `json:"roomName" validate:"required"`
	IsPublisher bool   `json:"isPublisher"`
}

type RoomToken struct {
	Token    string `json:"token"`
	RoomName string `json:"roomName"`
}
