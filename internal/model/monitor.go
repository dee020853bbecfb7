package model

// -----------------------------------------------------------------
// Monitor API Response Models
// -----------------------------------------------------------------

// MonitorResponse is the main response for the monitor API
type MonitorResponse struct {
	Status      string          `json:"status"` // "healthy", "idle"
	Connections ConnectionStats `json:"connections"`
	Rooms       RoomStats       `json:"rooms"`
	Typing      TypingStats     `json:"typing"`
	Clients     []ClientInfo    `json:"clients"`
}

// ConnectionStats holds connection-related statistics
type ConnectionStats struct {
	TotalConnections int `json:"totalConnections"` // live websocket connections
	TotalOnlineUsers int `json:"totalOnlineUsers"` // distinct users with >= 1 connection
}

// RoomStats holds room/conversation subscription statistics
type RoomStats struct {
	TotalRooms  int        `json:"totalRooms"`
	RoomDetails []RoomInfo `json:"roomDetails"`
}

// RoomInfo contains information about a single room
type RoomInfo struct {
	ConversationID string   `json:"conversationId"`
	TotalMembers   int      `json:"totalMembers"`
	MemberIDs      []string `json:"memberIds"`
}

// TypingStats holds ephemeral typing-state statistics
type TypingStats struct {
	ConversationsWithTyping int            `json:"conversationsWithTyping"`
	TypingUsers             map[string]int `json:"typingUsers"` // conversationId -> typing count
}

// ClientInfo contains information about a connected client
type ClientInfo struct {
	ClientID string   `json:"clientId"`
	UserID   string   `json:"userId,omitempty"` // empty for anonymous connections
	Rooms    []string `json:"rooms"`
}
