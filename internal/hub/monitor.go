package hub

import (
	"github.com/yanditv/api-app/internal/model"
)

// MonitorService provides methods to gather hub statistics
type MonitorService struct {
	hub *Hub
}

// NewMonitorService creates a new monitor service
func NewMonitorService(hub *Hub) *MonitorService {
	return &MonitorService{hub: hub}
}

// GetStats gathers and returns all hub statistics
func (ms *MonitorService) GetStats() model.MonitorResponse {
	connectionStats := ms.getConnectionStats()
	roomStats := ms.getRoomStats()
	typingStats := ms.getTypingStats()
	clients := ms.getClientList()

	// Determine overall health status
	status := "healthy"
	if connectionStats.TotalConnections == 0 {
		status = "idle"
	}

	return model.MonitorResponse{
		Status:      status,
		Connections: connectionStats,
		Rooms:       roomStats,
		Typing:      typingStats,
		Clients:     clients,
	}
}

func (ms *MonitorService) getConnectionStats() model.ConnectionStats {
	connections, users := ms.hub.presence.Counts()

	// Anonymous connections are reachable but never enter the registry.
	ms.hub.connectionsMu.RLock()
	total := len(ms.hub.connections)
	ms.hub.connectionsMu.RUnlock()
	if total > connections {
		connections = total
	}

	return model.ConnectionStats{
		TotalConnections: connections,
		TotalOnlineUsers: users,
	}
}

func (ms *MonitorService) getRoomStats() model.RoomStats {
	stats := model.RoomStats{
		RoomDetails: make([]model.RoomInfo, 0),
	}

	for _, bucket := range ms.hub.shards {
		bucket.RLock()
		for conversationID, room := range bucket.rooms {
			memberIDs := make([]string, 0, len(room))
			for _, c := range room {
				if c.userID != "" {
					memberIDs = append(memberIDs, c.userID)
				}
			}

			stats.TotalRooms++
			stats.RoomDetails = append(stats.RoomDetails, model.RoomInfo{
				ConversationID: conversationID,
				TotalMembers:   len(room),
				MemberIDs:      memberIDs,
			})
		}
		bucket.RUnlock()
	}

	return stats
}

func (ms *MonitorService) getTypingStats() model.TypingStats {
	snapshot := ms.hub.typing.Snapshot()
	return model.TypingStats{
		ConversationsWithTyping: len(snapshot),
		TypingUsers:             snapshot,
	}
}

func (ms *MonitorService) getClientList() []model.ClientInfo {
	ms.hub.connectionsMu.RLock()
	defer ms.hub.connectionsMu.RUnlock()

	clients := make([]model.ClientInfo, 0, len(ms.hub.connections))
	for _, c := range ms.hub.connections {
		clients = append(clients, model.ClientInfo{
			ClientID: c.ID,
			UserID:   c.userID,
			Rooms:    c.Rooms(),
		})
	}
	return clients
}
