package hub

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/yanditv/api-app/internal/event"
	"github.com/yanditv/api-app/internal/service"
)

const handlerTimeout = 10 * time.Second

// ChatHandler binds inbound socket events to the messaging, presence, typing
// and proximity components. A failing handler acknowledges the failure to the
// originating connection and leaves the connection able to process the next
// event.
type ChatHandler struct {
	hub       *Hub
	chat      service.ChatService
	users     service.UserService
	proximity service.ProximityService
}

func NewChatHandler(hub *Hub, chat service.ChatService, users service.UserService, proximity service.ProximityService) *ChatHandler {
	return &ChatHandler{
		hub:       hub,
		chat:      chat,
		users:     users,
		proximity: proximity,
	}
}

// HandleChatEvent processes one inbound WebSocket event.
func (ch *ChatHandler) HandleChatEvent(ev event.WsEvent, c *Client) {
	switch ev.Event {
	case event.EventJoinConversation:
		ch.handleJoinConversation(ev, c)
	case event.EventLeaveConversation:
		ch.handleLeaveConversation(ev, c)
	case event.EventSendMessage:
		ch.handleSendMessage(ev, c)
	case event.EventTyping:
		ch.handleTyping(ev, c)
	case event.EventMarkAsRead:
		ch.handleMarkAsRead(ev, c)
	case event.EventUpdateLocation:
		ch.handleUpdateLocation(ev, c)
	case event.EventRequestNearbyUsers:
		ch.handleRequestNearbyUsers(ev, c)
	default:
		log.Printf("unknown event type: %s", ev.Event)
		ch.nack(c, ev.Event, "unknown event")
	}
}

func (ch *ChatHandler) handleJoinConversation(ev event.WsEvent, c *Client) {
	var payload event.RoomPayload
	if err := json.Unmarshal(ev.Payload, &payload); err != nil || payload.ConversationID == "" {
		ch.nack(c, ev.Event, "invalid payload")
		return
	}

	ch.hub.joinRoom(c, payload.ConversationID)
	ch.ack(c, ev.Event, nil)
}

func (ch *ChatHandler) handleLeaveConversation(ev event.WsEvent, c *Client) {
	var payload event.RoomPayload
	if err := json.Unmarshal(ev.Payload, &payload); err != nil || payload.ConversationID == "" {
		ch.nack(c, ev.Event, "invalid payload")
		return
	}

	ch.hub.leaveRoom(c, payload.ConversationID)
	ch.ack(c, ev.Event, nil)
}

func (ch *ChatHandler) handleSendMessage(ev event.WsEvent, c *Client) {
	var payload event.SendMessagePayload
	if err := json.Unmarshal(ev.Payload, &payload); err != nil {
		ch.nack(c, ev.Event, "invalid payload")
		return
	}
	if c.userID == "" {
		ch.nack(c, ev.Event, "unidentified connection")
		return
	}

	ctx, cancel := context.WithTimeout(ch.hub.ctx, handlerTimeout)
	defer cancel()

	message, err := ch.chat.SendMessage(ctx, c.userID, service.SendMessageInput{
		ConversationID: payload.ConversationID,
		Content:        payload.Content,
		Type:           payload.Type,
		MediaURLs:      payload.MediaURLs,
	})
	if err != nil {
		ch.nack(c, ev.Event, reasonFor(err))
		return
	}

	data, _ := json.Marshal(message)
	ch.hub.publishToRoom(payload.ConversationID, event.WsEvent{
		Event:   event.EventNewMessage,
		Payload: data,
	})
	ch.ack(c, ev.Event, message)
}

func (ch *ChatHandler) handleTyping(ev event.WsEvent, c *Client) {
	var payload event.TypingPayload
	if err := json.Unmarshal(ev.Payload, &payload); err != nil || payload.ConversationID == "" {
		ch.nack(c, ev.Event, "invalid payload")
		return
	}
	if c.userID == "" {
		ch.nack(c, ev.Event, "unidentified connection")
		return
	}

	ch.hub.typing.SetTyping(payload.ConversationID, c.userID, payload.IsTyping)

	// The broadcast goes out even when the set did not change: clients treat
	// it as a refresh, not an edge trigger.
	name := event.EventUserStoppedTyping
	if payload.IsTyping {
		name = event.EventUserTyping
	}
	data, _ := json.Marshal(event.TypingBroadcast{
		ConversationID: payload.ConversationID,
		UserID:         c.userID,
	})
	ch.hub.publishToRoom(payload.ConversationID, event.WsEvent{Event: name, Payload: data})
	ch.ack(c, ev.Event, nil)
}

func (ch *ChatHandler) handleMarkAsRead(ev event.WsEvent, c *Client) {
	var payload event.RoomPayload
	if err := json.Unmarshal(ev.Payload, &payload); err != nil || payload.ConversationID == "" {
		ch.nack(c, ev.Event, "invalid payload")
		return
	}
	if c.userID == "" {
		ch.nack(c, ev.Event, "unidentified connection")
		return
	}

	ctx, cancel := context.WithTimeout(ch.hub.ctx, handlerTimeout)
	defer cancel()

	if err := ch.chat.MarkRead(ctx, c.userID, payload.ConversationID); err != nil {
		ch.nack(c, ev.Event, reasonFor(err))
		return
	}

	data, _ := json.Marshal(event.MessagesReadBroadcast{
		ConversationID: payload.ConversationID,
		UserID:         c.userID,
	})
	ch.hub.publishToRoom(payload.ConversationID, event.WsEvent{
		Event:   event.EventMessagesRead,
		Payload: data,
	})
	ch.ack(c, ev.Event, nil)
}

func (ch *ChatHandler) handleUpdateLocation(ev event.WsEvent, c *Client) {
	var payload event.UpdateLocationPayload
	if err := json.Unmarshal(ev.Payload, &payload); err != nil {
		ch.nack(c, ev.Event, "invalid payload")
		return
	}
	if c.userID == "" {
		ch.nack(c, ev.Event, "unidentified connection")
		return
	}

	ctx, cancel := context.WithTimeout(ch.hub.ctx, handlerTimeout)
	defer cancel()

	if _, err := ch.users.UpdateLocation(ctx, c.userID, payload.Latitude, payload.Longitude); err != nil {
		ch.nack(c, ev.Event, reasonFor(err))
		return
	}

	data, _ := json.Marshal(event.LocationUpdatedBroadcast{
		UserID:    c.userID,
		Latitude:  payload.Latitude,
		Longitude: payload.Longitude,
		Timestamp: time.Now().Unix(),
	})
	ch.hub.broadcastAll(event.WsEvent{Event: event.EventLocationUpdated, Payload: data})
	ch.ack(c, ev.Event, nil)
}

func (ch *ChatHandler) handleRequestNearbyUsers(ev event.WsEvent, c *Client) {
	var payload event.NearbyUsersPayload
	if len(ev.Payload) > 0 {
		if err := json.Unmarshal(ev.Payload, &payload); err != nil {
			ch.nack(c, ev.Event, "invalid payload")
			return
		}
	}
	if c.userID == "" {
		ch.nack(c, ev.Event, "unidentified connection")
		return
	}

	ctx, cancel := context.WithTimeout(ch.hub.ctx, handlerTimeout)
	defer cancel()

	users, err := ch.proximity.NearbyUsers(ctx, c.userID, payload.MaxDistance)
	if err != nil {
		ch.nack(c, ev.Event, reasonFor(err))
		return
	}

	summaries := make([]interface{}, 0, len(users))
	for i := range users {
		summaries = append(summaries, users[i].Summary())
	}

	// Reply to the requesting socket only.
	data, _ := json.Marshal(summaries)
	c.Send(event.WsEvent{Event: event.EventNearbyUsers, Payload: data})
	ch.ack(c, ev.Event, nil)
}

// -----------------------------------------------------------------
// Acknowledgements
// -----------------------------------------------------------------

func (ch *ChatHandler) ack(c *Client, name string, data interface{}) {
	payload, _ := json.Marshal(event.Ack{Event: name, Success: true, Data: data})
	c.Send(event.WsEvent{Event: event.EventAck, Payload: payload})
}

func (ch *ChatHandler) nack(c *Client, name, reason string) {
	payload, _ := json.Marshal(event.Ack{Event: name, Success: false, Reason: reason})
	c.Send(event.WsEvent{Event: event.EventAck, Payload: payload})
}

// reasonFor maps service failures to client-safe reasons.
func reasonFor(err error) string {
	switch {
	case errors.Is(err, service.ErrConversationNotFound),
		errors.Is(err, service.ErrMessageNotFound),
		errors.Is(err, service.ErrUserNotFound):
		return err.Error()
	case errors.Is(err, service.ErrInvalidInput):
		return err.Error()
	default:
		log.Printf("handler error: %v", err)
		return "internal error"
	}
}
