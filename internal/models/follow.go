package models

import "time"

// Follow is a directed edge: FollowerID receives updates about FollowingID.
type Follow struct {
	FollowerID  string    `json:"followerId" gorm:"primaryKey;type:text"`
	FollowingID string    `json:"followingId" gorm:"primaryKey;type:text;index"`
	CreatedAt   time.Time `json:"createdAt" gorm:"autoCreateTime"`

	Follower  *User `json:"-" gorm:"foreignKey:FollowerID;references:ID"`
	Following *User `json:"-" gorm:"foreignKey:FollowingID;references:ID"`
}

// FollowRequest is the body of POST and DELETE /follows.
type FollowRequest struct {
	FollowerID  string `json:"followerId" validate:"required"`
	FollowingID string `json:"followingId" validate:"required"`
}

type FollowStats struct {
	Followers int64 `json:"followers"`
	Following int64 `json:"following"`
}
