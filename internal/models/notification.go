package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type NotificationType string

const (
	NotificationTypeFollow NotificationType = "follow"
	NotificationTypeLive   NotificationType = "live"
)

// Notification is an activity item shown to RecipientID (stored in MongoDB).
type Notification struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Type        NotificationType   `json:"type" bson:"type"`
	ActorID     string             `json:"actorId" bson:"actor_id"`
	RecipientID string             `json:"recipientId" bson:"recipient_id"`
	StreamID    uint               `json:"streamId,omitempty" bson:"stream_id,omitempty"`
	Message     string             `json:"message" bson:"message"`
	IsRead      bool               `json:"isRead" bson:"is_read"`
	CreatedAt   time.Time          `json:"createdAt" bson:"created_at"`
}
