package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Message types
const (
	MessageTypeText  = "text"
	MessageTypeImage = "image"
	MessageTypeVideo = "video"
	MessageTypeAudio = "audio"
	MessageTypeFile  = "file"
)

// ValidMessageType reports whether t is one of the supported message types.
func ValidMessageType(t string) bool {
	switch t {
	case MessageTypeText, MessageTypeImage, MessageTypeVideo, MessageTypeAudio, MessageTypeFile:
		return true
	}
	return false
}

// Message represents a chat message in MongoDB.
//
// ReadBy only grows (the sender is a member from creation) and IsDeleted only
// transitions false -> true; deleted messages keep their content but are
// excluded from read-path queries.
type Message struct {
	ID             primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	ConversationID primitive.ObjectID `json:"conversationId" bson:"conversation_id"`
	SenderID       string             `json:"senderId" bson:"sender_id"`
	Content        string             `json:"content" bson:"content"`
	Type           string             `json:"type" bson:"type"`
	MediaURLs      []string           `json:"mediaUrls" bson:"media_urls"`
	ReadBy         []string           `json:"readBy" bson:"read_by"`
	IsDeleted      bool               `json:"isDeleted" bson:"is_deleted"`
	CreatedAt      time.Time          `json:"createdAt" bson:"created_at"`
}
