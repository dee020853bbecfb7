package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Conversation represents a chat conversation in MongoDB.
//
// UnreadCount maps participant id -> number of messages not yet acknowledged
// by that participant. Absent keys mean zero. The map is only ever mutated
// through atomic $inc / $set updates so concurrent senders never lose counts.
type Conversation struct {
	ID             primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	ParticipantIDs []string            `json:"participantIds" bson:"participant_ids"`
	IsGroup        bool                `json:"isGroup" bson:"is_group"`
	GroupName      string              `json:"groupName,omitempty" bson:"group_name,omitempty"`
	GroupAvatar    string              `json:"groupAvatar,omitempty" bson:"group_avatar,omitempty"`
	LastMessageID  *primitive.ObjectID `json:"lastMessageId,omitempty" bson:"last_message_id,omitempty"`
	UnreadCount    map[string]int      `json:"unreadCount" bson:"unread_count"`
	CreatedAt      time.Time           `json:"createdAt" bson:"created_at"`
	UpdatedAt      time.Time           `json:"updatedAt" bson:"updated_at"`
}

// HasParticipant reports whether the given user belongs to the conversation.
func (c *Conversation) HasParticipant(userID string) bool {
	for _, id := range c.ParticipantIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// ConversationView is a conversation enriched with participant summaries and
// the resolved last message, as returned by the listing endpoints.
type ConversationView struct {
	Conversation `bson:",inline"`
	Participants []UserSummary `json:"participants" bson:"-"`
	LastMessage  *Message      `json:"lastMessage,omitempty" bson:"-"`
}
