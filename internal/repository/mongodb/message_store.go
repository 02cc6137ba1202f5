package mongodb

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"campusevents/internal/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var _ domain.MessageStore = (*MessageStore)(nil)

// MessageStore keeps forum messages in the "messages" collection.
type MessageStore struct {
	c   *mongo.Collection
	now func() time.Time
}

// NewMessageStore creates a MessageStore on db.
func NewMessageStore(db *mongo.Database) *MessageStore {
	return &MessageStore{c: db.Collection("messages"), now: time.Now}
}

// EnsureIndexes creates the indexes used by thread listing and reply lookups.
func (s *MessageStore) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "event_id", Value: 1}, {Key: "created_at", Value: 1}},
			Options: options.Index().SetName("idx_messages_event"),
		},
		{
			Keys:    bson.D{{Key: "parent_id", Value: 1}, {Key: "created_at", Value: 1}},
			Options: options.Index().SetName("idx_messages_parent"),
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

func (s *MessageStore) Create(ctx context.Context, m *domain.Message) error {
	if m.Reactions == nil {
		m.Reactions = map[string][]string{}
	}
	_, err := s.c.InsertOne(ctx, m)
	return err
}

func (s *MessageStore) GetByID(ctx context.Context, id string) (*domain.Message, error) {
	var m domain.Message
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&m); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

// ListByEvent returns every message of the event, deleted ones included, oldest first.
func (s *MessageStore) ListByEvent(ctx context.Context, eventID string) ([]*domain.Message, error) {
	return s.find(ctx, bson.M{"event_id": eventID})
}

func (s *MessageStore) ListReplies(ctx context.Context, parentID string) ([]*domain.Message, error) {
	return s.find(ctx, bson.M{"parent_id": parentID})
}

func (s *MessageStore) find(ctx context.Context, filter bson.M) ([]*domain.Message, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	messages := make([]*domain.Message, 0)
	if err := cur.All(ctx, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

// ToggleReaction removes userID from the emoji's list when present and adds
// it otherwise. Each branch is a single atomic update.
func (s *MessageStore) ToggleReaction(ctx context.Context, id, emoji, userID string) (*domain.Message, bool, error) {
	if emoji == "" || strings.ContainsAny(emoji, ".$") {
		return nil, false, domain.Invalid("emoji", "invalid emoji")
	}
	field := "reactions." + emoji
	after := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var m domain.Message
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id, field: userID},
		bson.M{"$pull": bson.M{field: userID}, "$set": bson.M{"updated_at": s.now().UTC()}},
		after,
	).Decode(&m)
	if err == nil {
		if len(m.Reactions[emoji]) == 0 {
			if _, err := s.c.UpdateOne(ctx,
				bson.M{"_id": id, field: bson.M{"$size": 0}},
				bson.M{"$unset": bson.M{field: ""}},
			); err != nil {
				return nil, false, fmt.Errorf("drop empty reaction: %w", err)
			}
			delete(m.Reactions, emoji)
		}
		return &m, false, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, false, err
	}

	err = s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$addToSet": bson.M{field: userID}, "$set": bson.M{"updated_at": s.now().UTC()}},
		after,
	).Decode(&m)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, false, domain.ErrNotFound
		}
		return nil, false, err
	}
	return &m, true, nil
}

func (s *MessageStore) SetPinned(ctx context.Context, id string, pinned bool) (*domain.Message, error) {
	return s.set(ctx, id, bson.M{"is_pinned": pinned})
}

// SoftDelete flags the message as deleted; the document is kept.
func (s *MessageStore) SoftDelete(ctx context.Context, id string) (*domain.Message, error) {
	return s.set(ctx, id, bson.M{"is_deleted": true})
}

func (s *MessageStore) set(ctx context.Context, id string, fields bson.M) (*domain.Message, error) {
	fields["updated_at"] = s.now().UTC()
	var m domain.Message
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": fields},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&m)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}
