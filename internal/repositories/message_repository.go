package repositories

import (
	"context"
	"time"

	"github.com/ecobin-app/backend/internal/apperr"
	"github.com/ecobin-app/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MessageRepository defines the interface for message data operations
type MessageRepository interface {
	Send(ctx context.Context, senderID, receiverID uint, text string) (*models.Message, error)
	GetConversation(ctx context.Context, userID, otherUserID uint) ([]models.Message, error)
	MarkRead(ctx context.Context, senderID, receiverID uint) (int64, error)
	ListMessagesInvolving(ctx context.Context, userID uint) ([]models.Message, error)
}

// MongoMessageRepository implements MessageRepository for MongoDB
type MongoMessageRepository struct {
	collection *mongo.Collection
}

// NewMongoMessageRepository creates a new MongoMessageRepository
func NewMongoMessageRepository(db *mongo.Database) *MongoMessageRepository {
	return &MongoMessageRepository{collection: db.Collection("messages")}
}

// Send validates and persists a new message with read=false and a
// server-assigned timestamp. Both the HTTP route and the realtime relay
// go through this single code path.
func (r *MongoMessageRepository) Send(ctx context.Context, senderID, receiverID uint, text string) (*models.Message, error) {
	if senderID == 0 || receiverID == 0 {
		return nil, apperr.Validation("senderId and receiverId are required")
	}
	if senderID == receiverID {
		return nil, apperr.Validation("sender and receiver must differ")
	}
	if text == "" {
		return nil, apperr.Validation("text must not be empty")
	}

	msg := &models.Message{
		ID:         primitive.NewObjectID(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Text:       text,
		Read:       false,
		Timestamp:  time.Now().UTC(),
	}
	if _, err := r.collection.InsertOne(ctx, msg); err != nil {
		return nil, apperr.Transient("failed to store message", err)
	}
	return msg, nil
}

// GetConversation returns every message between the two users, oldest
// first for chronological rendering. ObjectID breaks timestamp ties.
// Returns an empty slice, never an error, when no messages exist.
func (r *MongoMessageRepository) GetConversation(ctx context.Context, userID, otherUserID uint) ([]models.Message, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"sender": userID, "receiver": otherUserID},
		bson.M{"sender": otherUserID, "receiver": userID},
	}}
	findOptions := options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}, {Key: "_id", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, apperr.Transient("failed to load conversation", err)
	}
	defer cursor.Close(ctx)

	messages := []models.Message{}
	if err = cursor.All(ctx, &messages); err != nil {
		return nil, apperr.Transient("failed to decode conversation", err)
	}
	return messages, nil
}

// MarkRead bulk-sets read=true on every unread message from senderID to
// receiverID and returns the number of rows changed. Idempotent.
func (r *MongoMessageRepository) MarkRead(ctx context.Context, senderID, receiverID uint) (int64, error) {
	filter := bson.M{"sender": senderID, "receiver": receiverID, "read": false}
	res, err := r.collection.UpdateMany(ctx, filter, bson.M{"$set": bson.M{"read": true}})
	if err != nil {
		return 0, apperr.Transient("failed to mark messages read", err)
	}
	return res.ModifiedCount, nil
}

// ListMessagesInvolving returns all messages the user sent or received,
// newest first (timestamp, then ObjectID, both descending). This feeds
// the conversation aggregator.
func (r *MongoMessageRepository) ListMessagesInvolving(ctx context.Context, userID uint) ([]models.Message, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"sender": userID},
		bson.M{"receiver": userID},
	}}
	findOptions := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}, {Key: "_id", Value: -1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, apperr.Transient("failed to list messages", err)
	}
	defer cursor.Close(ctx)

	messages := []models.Message{}
	if err = cursor.All(ctx, &messages); err != nil {
		return nil, apperr.Transient("failed to decode messages", err)
	}
	return messages, nil
}
