package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Message represents a point-to-point chat message (MongoDB)
type Message struct {
	ID         primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	SenderID   uint               `json:"senderId" bson:"sender"`
	ReceiverID uint               `json:"receiverId" bson:"receiver"`
	Text       string             `json:"text" bson:"message"`
	Read       bool               `json:"read" bson:"read"`
	Timestamp  time.Time          `json:"timestamp" bson:"timestamp"`
}

type SendMessageRequest struct {
	SenderID   uint   `json:"senderId" validate:"required"`
	ReceiverID uint   `json:"receiverId" validate:"required"`
	Text       string `json:"text" validate:"required"`
}
