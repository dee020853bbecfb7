package hub

import (
	"context"
	"crypto/sha1"
	"encoding/binary"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/yanditv/api-app/internal/event"
	"github.com/yanditv/api-app/internal/service"
)

const (
	shardCount = 64 // tune: 16/64/128 depending on load
)

type inboundMessage struct {
	event  event.WsEvent
	client *Client
}

type roomBucket struct {
	sync.RWMutex
	rooms map[string]map[string]*Client // conversationID -> clientID -> client
}

// Hub is the realtime gateway: it owns every live connection, the room
// subscriptions, the presence registry and the typing coordinator, and fans
// events out to rooms or to all connections.
type Hub struct {
	shards     [shardCount]*roomBucket
	register   chan *Client
	unregister chan *Client
	inbound    []chan inboundMessage // one queue per worker

	connections   map[string]*Client // clientID -> client, every live connection
	connectionsMu sync.RWMutex

	presence *PresenceRegistry
	typing   *TypingCoordinator
	chat     *ChatHandler
	users    service.UserService

	allowedOrigins map[string]struct{}

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

func NewHub(chatService service.ChatService, userService service.UserService, proximityService service.ProximityService, allowedOrigins []string) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	h := &Hub{
		register:       make(chan *Client, 1024),
		unregister:     make(chan *Client, 1024),
		inbound:        make([]chan inboundMessage, workerPoolSize),
		connections:    make(map[string]*Client),
		presence:       NewPresenceRegistry(),
		typing:         NewTypingCoordinator(),
		users:          userService,
		allowedOrigins: make(map[string]struct{}, len(allowedOrigins)),
		ctx:            ctx,
		cancel:         cancel,
	}
	for _, origin := range allowedOrigins {
		h.allowedOrigins[origin] = struct{}{}
	}

	h.chat = NewChatHandler(h, chatService, userService, proximityService)

	for i := 0; i < shardCount; i++ {
		h.shards[i] = &roomBucket{
			rooms: make(map[string]map[string]*Client),
		}
	}

	// run manager loop
	go h.run()

	// One queue per worker, and every connection pins to one queue, so events
	// from a single connection are handled one at a time in arrival order.
	for i := 0; i < workerPoolSize; i++ {
		h.inbound[i] = make(chan inboundMessage, inboundQueueSize)

		h.wg.Add(1)
		go func(queue <-chan inboundMessage) {
			defer h.wg.Done()
			for {
				select {
				case <-h.ctx.Done():
					return
				case in := <-queue:
					h.chat.HandleChatEvent(in.event, in.client)
				}
			}
		}(h.inbound[i])
	}

	return h
}

// Presence exposes the registry for the monitor and HTTP layers.
func (h *Hub) Presence() *PresenceRegistry {
	return h.presence
}

// Typing exposes the coordinator for the monitor.
func (h *Hub) Typing() *TypingCoordinator {
	return h.typing
}

func (h *Hub) run() {
	for {
		select {
		case <-h.ctx.Done():
			return
		case c := <-h.register:
			h.addClient(c)
		case c := <-h.unregister:
			h.removeClient(c)
		}
	}
}

// addClient records the connection and, for identified connections, registers
// it in the presence registry. The first handle of a user triggers exactly
// one online broadcast.
func (h *Hub) addClient(c *Client) {
	h.connectionsMu.Lock()
	h.connections[c.ID] = c
	h.connectionsMu.Unlock()

	if c.userID == "" {
		log.Printf("anonymous client %s connected", c.ID)
		return
	}

	if first := h.presence.Connect(c.userID, c); first {
		h.broadcastPresence(c.userID, true)
		h.persistOnlineStatus(c.userID, true)
	}
	log.Printf("client %s connected for user %s", c.ID, c.userID)
}

// removeClient tears a connection down: presence deregistration first, then
// typing cleanup, in that order. Every step is best-effort; a failing
// broadcast never aborts the rest of the sequence.
func (h *Hub) removeClient(c *Client) {
	h.connectionsMu.Lock()
	if _, exists := h.connections[c.ID]; !exists {
		h.connectionsMu.Unlock()
		return // already removed, e.g. kick raced the read-pump defer
	}
	delete(h.connections, c.ID)
	h.connectionsMu.Unlock()

	for _, conversationID := range c.Rooms() {
		h.leaveRoom(c, conversationID)
	}

	userID, last := h.presence.Disconnect(c)
	if last {
		h.broadcastPresence(userID, false)
		h.persistOnlineStatus(userID, false)
	}

	if c.userID != "" {
		for _, conversationID := range h.typing.ClearUser(c.userID) {
			h.publishTypingStopped(conversationID, c.userID)
		}
	}

	c.Close()
	log.Printf("client %s removed (user %q)", c.ID, c.userID)
}

// -----------------------------------------------------------------
// Rooms
// -----------------------------------------------------------------

func getShard(conversationID string) uint32 {
	if conversationID == "" {
		return 0
	}

	h := sha1.Sum([]byte(conversationID))
	return binary.BigEndian.Uint32(h[:4]) % shardCount
}

// inboundQueue returns the worker queue a connection is pinned to, hashed by
// client id the same way rooms hash to shards.
func (h *Hub) inboundQueue(clientID string) chan inboundMessage {
	sum := sha1.Sum([]byte(clientID))
	return h.inbound[binary.BigEndian.Uint32(sum[:4])%uint32(workerPoolSize)]
}

// joinRoom subscribes the connection to a conversation room. Joining is a
// client-driven subscription, not an authorization check; the HTTP layer is
// responsible for only letting participants in.
func (h *Hub) joinRoom(c *Client, conversationID string) {
	sh := getShard(conversationID)
	b := h.shards[sh]
	b.Lock()
	defer b.Unlock()

	room, ok := b.rooms[conversationID]
	if !ok {
		room = make(map[string]*Client)
		b.rooms[conversationID] = room
	}

	room[c.ID] = c
	c.trackRoom(conversationID)
	log.Printf("client %s joined room %s (shard %d)", c.ID, conversationID, sh)
}

func (h *Hub) leaveRoom(c *Client, conversationID string) {
	sh := getShard(conversationID)
	b := h.shards[sh]
	b.Lock()
	defer b.Unlock()

	if room, ok := b.rooms[conversationID]; ok {
		delete(room, c.ID)
		if len(room) == 0 {
			delete(b.rooms, conversationID)
		}
	}
	c.untrackRoom(conversationID)
}

// roomMembers snapshots the clients currently subscribed to a room.
func (h *Hub) roomMembers(conversationID string) []*Client {
	sh := getShard(conversationID)
	b := h.shards[sh]

	b.RLock()
	defer b.RUnlock()

	room, ok := b.rooms[conversationID]
	if !ok {
		return nil
	}

	clients := make([]*Client, 0, len(room))
	for _, c := range room {
		clients = append(clients, c)
	}
	return clients
}

// -----------------------------------------------------------------
// Fan-out
// -----------------------------------------------------------------

// publishToRoom delivers an event to every connection joined to the room.
// Events from one originating connection reach all members in emission order;
// no ordering is guaranteed across connections.
func (h *Hub) publishToRoom(conversationID string, ev event.WsEvent) {
	clients := h.roomMembers(conversationID)
	if len(clients) == 0 {
		return
	}

	for _, c := range clients {
		select {
		case c.egress <- ev:
			// enqueued
		case <-time.After(sendTimeout):
			// egress full -> apply policy
			log.Printf("egress full for client %s in room %s", c.ID, conversationID)
			if kickOnFull {
				// Unregister (safe async)
				h.unregister <- c
			} else {
				// drop message (do nothing)
			}
		}
	}
}

// broadcastAll delivers an event to every live connection, anonymous ones
// included. Failures are logged per member and never propagate.
func (h *Hub) broadcastAll(ev event.WsEvent) {
	h.connectionsMu.RLock()
	clients := make([]*Client, 0, len(h.connections))
	for _, c := range h.connections {
		clients = append(clients, c)
	}
	h.connectionsMu.RUnlock()

	for _, c := range clients {
		if !c.SafeSend(ev, sendTimeout) {
			log.Printf("broadcast dropped for client %s", c.ID)
		}
	}
}

func (h *Hub) broadcastPresence(userID string, isOnline bool) {
	name := event.EventUserOffline
	if isOnline {
		name = event.EventUserOnline
	}

	payload, _ := json.Marshal(event.PresenceBroadcast{
		UserID:   userID,
		IsOnline: isOnline,
	})
	h.broadcastAll(event.WsEvent{Event: name, Payload: payload})
}

func (h *Hub) publishTypingStopped(conversationID, userID string) {
	payload, _ := json.Marshal(event.TypingBroadcast{
		ConversationID: conversationID,
		UserID:         userID,
	})
	h.publishToRoom(conversationID, event.WsEvent{
		Event:   event.EventUserStoppedTyping,
		Payload: payload,
	})
}

// persistOnlineStatus writes the transition through to the user directory.
// Best-effort: the live layer does not depend on it.
func (h *Hub) persistOnlineStatus(userID string, isOnline bool) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := h.users.SetOnlineStatus(ctx, userID, isOnline); err != nil {
			log.Printf("failed to persist online status for %s: %v", userID, err)
		}
	}()
}

// -----------------------------------------------------------------
// Lifecycle
// -----------------------------------------------------------------

func (h *Hub) Stop() {
	h.cancel()

	h.connectionsMu.RLock()
	for _, client := range h.connections {
		client.Close()
	}
	h.connectionsMu.RUnlock()

	// The inbound queues stay open: a read pump can still be mid-send, and
	// workers exit through ctx anyway.
	h.wg.Wait()
}

var websocketUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

func (h *Hub) checkOrigin(r *http.Request) bool {
	if len(h.allowedOrigins) == 0 {
		return true
	}

	origin := r.Header.Get("Origin")
	_, ok := h.allowedOrigins[origin]
	return ok
}

// ServeWS upgrades the request and registers the connection. userID comes
// from the verified handshake identity; empty means anonymous.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, userID string) {
	upgrader := websocketUpgrader
	upgrader.CheckOrigin = h.checkOrigin

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println(err)
		return
	}

	RegisterClient(userID, conn, h)
}
