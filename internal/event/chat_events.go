package event

// Chat Event Types - Client to Server
const (
	// EventJoinConversation - subscribe the connection to a conversation room
	EventJoinConversation = "joinConversation"

	// EventLeaveConversation - unsubscribe the connection from a room
	EventLeaveConversation = "leaveConversation"

	// EventSendMessage - persist a message and fan it out to the room
	EventSendMessage = "sendMessage"

	// EventTyping - start or stop the typing indicator in a conversation
	EventTyping = "typing"

	// EventMarkAsRead - apply read receipts for the whole conversation
	EventMarkAsRead = "markAsRead"

	// EventUpdateLocation - persist the user's reported position
	EventUpdateLocation = "updateLocation"

	// EventRequestNearbyUsers - ask for users within a radius
	EventRequestNearbyUsers = "requestNearbyUsers"
)

// Chat Event Types - Server to Client
const (
	// EventNewMessage - a message was posted in a room the connection joined
	EventNewMessage = "newMessage"

	// EventUserTyping / EventUserStoppedTyping - typing indicator refreshes
	EventUserTyping        = "userTyping"
	EventUserStoppedTyping = "userStoppedTyping"

	// EventMessagesRead - a participant acknowledged the conversation
	EventMessagesRead = "messagesRead"

	// EventUserOnline / EventUserOffline - global presence transitions
	EventUserOnline  = "userOnline"
	EventUserOffline = "userOffline"

	// EventLocationUpdated - a user reported a new position
	EventLocationUpdated = "locationUpdated"

	// EventNearbyUsers - reply to EventRequestNearbyUsers
	EventNearbyUsers = "nearbyUsers"

	// EventAck - per-event acknowledgement back to the originating connection
	EventAck = "ack"
)

// RoomPayload is the payload for join/leave events.
type RoomPayload struct {
	ConversationID string `json:"conversationId"`
}

// SendMessagePayload is the payload for EventSendMessage.
type SendMessagePayload struct {
	ConversationID string   `json:"conversationId"`
	Content        string   `json:"content"`
	Type           string   `json:"type,omitempty"`
	MediaURLs      []string `json:"mediaUrls,omitempty"`
}

// TypingPayload is the payload for EventTyping.
type TypingPayload struct {
	ConversationID string `json:"conversationId"`
	IsTyping       bool   `json:"isTyping"`
}

// TypingBroadcast is emitted to the room for typing transitions.
type TypingBroadcast struct {
	ConversationID string `json:"conversationId"`
	UserID         string `json:"userId"`
}

// MessagesReadBroadcast is emitted to the room after a mark-as-read.
type MessagesReadBroadcast struct {
	ConversationID string `json:"conversationId"`
	UserID         string `json:"userId"`
}

// PresenceBroadcast is emitted to every connection on online/offline
// transitions.
type PresenceBroadcast struct {
	UserID   string `json:"userId"`
	IsOnline bool   `json:"isOnline"`
}

// UpdateLocationPayload is the payload for EventUpdateLocation.
type UpdateLocationPayload struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// LocationUpdatedBroadcast is emitted to every connection after a location
// update.
type LocationUpdatedBroadcast struct {
	UserID    string  `json:"userId"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Timestamp int64   `json:"timestamp"`
}

// NearbyUsersPayload is the payload for EventRequestNearbyUsers.
type NearbyUsersPayload struct {
	MaxDistance float64 `json:"maxDistance,omitempty"` // meters; 0 means default
}
