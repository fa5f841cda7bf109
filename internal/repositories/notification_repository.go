package repositories

import (
	"context"
	"time"

	"github.com/anonto42/wagwan/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// NotificationRepository defines the interface for notification operations
type NotificationRepository interface {
	CreateNotifications(ctx context.Context, notifications []models.Notification) error
	GetByRecipientID(ctx context.Context, recipientID string, limit int) ([]models.Notification, error)
	MarkAllAsRead(ctx context.Context, recipientID string) (int64, error)
}

type mongoNotificationRepository struct {
	collection *mongo.Collection
}

func NewMongoNotificationRepository(db *mongo.Database) NotificationRepository {
	return &mongoNotificationRepository{collection: db.Collection("notifications")}
}

func (r *mongoNotificationRepository) CreateNotifications(ctx context.Context, notifications []models.Notification) error {
	if len(notifications) == 0 {
		return nil
	}

	now := time.Now()
	docs := make([]interface{}, len(notifications))
	for i := range notifications {
		notifications[i].ID = primitive.NewObjectID()
		notifications[i].CreatedAt = now
		docs[i] = notifications[i]
	}
	_, err := r.collection.InsertMany(ctx, docs)
	return err
}

func (r *mongoNotificationRepository) GetByRecipientID(ctx context.Context, recipientID string, limit int) ([]models.Notification, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit))
	cursor, err := r.collection.Find(ctx, bson.M{"recipient_id": recipientID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	notifications := []models.Notification{}
	if err = cursor.All(ctx, &notifications); err != nil {
		return nil, err
	}
	return notifications, nil
}

func (r *mongoNotificationRepository) MarkAllAsRead(ctx context.Context, recipientID string) (int64, error) {
	res, err := r.collection.UpdateMany(ctx,
		bson.M{"recipient_id": recipientID, "is_read": false},
		bson.M{"$set": bson.M{"is_read": true}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// noopNotificationRepository stands in when MongoDB is not configured.
type noopNotificationRepository struct{}

func NewNoopNotificationRepository() NotificationRepository {
	return noopNotificationRepository{}
}

func (noopNotificationRepository) CreateNotifications(context.Context, []models.Notification) error {
	return nil
}

func (noopNotificationRepository) GetByRecipientID(context.Context, string, int) ([]models.Notification, error) {
	return []models.Notification{}, nil
}

func (noopNotificationRepository) MarkAllAsRead(context.Context, string) (int64, error) {
	return 0, nil
}
