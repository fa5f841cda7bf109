package models

import "time"

// User is a profile keyed by the identity provider's user ID.
type User struct {
	ID         string    `json:"id" gorm:"primaryKey;type:text"`
	Username   string    `json:"username" gorm:"type:text;uniqueIndex;not null"`
	Email      string    `json:"email" gorm:"type:text;not null"`
	AvatarURL  *string   `json:"avatarUrl" gorm:"column:avatar_url;type:text"` // remote URL or "asset:" identifier
	Bio        *string   `json:"bio" gorm:"type:text"`
	IsStreamer bool      `json:"isStreamer" gorm:"default:false"`
	IsVerified bool      `json:"isVerified" gorm:"default:false"`
	CreatedAt  time.Time `json:"createdAt" gorm:"autoCreateTime"`
}

// UpsertUserRequest is the body of POST /users. Optional fields that are
// left out are stored as null.
type UpsertUserRequest struct {
	ID        string  `json:"id" validate:"required"`
	Username  string  `json:"username" validate:"required,max=50"`
	Email     string  `json:"email" validate:"required,email"`
	AvatarURL *string `json:"avatarUrl,omitempty"`
	Bio       *string `json:"bio,omitempty" validate:"omitempty,max=160"`
}
