package mongodb

import (
	"context"

	"campusevents/internal/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var _ domain.NotificationStore = (*NotificationStore)(nil)

// NotificationStore keeps user notifications in the "notifications" collection.
type NotificationStore struct {
	c *mongo.Collection
}

func NewNotificationStore(db *mongo.Database) *NotificationStore {
	return &NotificationStore{c: db.Collection("notifications")}
}

func (s *NotificationStore) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_notifications_user"),
		},
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "read", Value: 1}, {Key: "event_id", Value: 1}},
			Options: options.Index().SetName("idx_notifications_unread"),
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

func (s *NotificationStore) CreateMany(ctx context.Context, ns []*domain.Notification) error {
	if len(ns) == 0 {
		return nil
	}
	docs := make([]any, len(ns))
	for i, n := range ns {
		docs[i] = n
	}
	_, err := s.c.InsertMany(ctx, docs)
	return err
}

// ListByUser returns the user's newest notifications first.
func (s *NotificationStore) ListByUser(ctx context.Context, userID string, limit int) ([]*domain.Notification, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(limit))
	cur, err := s.c.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := make([]*domain.Notification, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// MarkRead marks the user's unread notifications as read, limited to one
// event when eventID is set, and returns how many changed.
func (s *NotificationStore) MarkRead(ctx context.Context, userID, eventID string) (int64, error) {
	filter := bson.M{"user_id": userID, "read": false}
	if eventID != "" {
		filter["event_id"] = eventID
	}
	res, err := s.c.UpdateMany(ctx, filter, bson.M{"$set": bson.M{"read": true}})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

func (s *NotificationStore) CountUnread(ctx context.Context, userID string) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"user_id": userID, "read": false})
}
