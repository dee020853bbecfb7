package hub

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/yanditv/api-app/internal/event"
	"github.com/yanditv/api-app/internal/model"
	"github.com/yanditv/api-app/internal/repo"
	"github.com/yanditv/api-app/internal/service"
)

func testClient(id string) *Client {
	return &Client{
		ID:    id,
		rooms: make(map[string]struct{}),
	}
}

// liveTestClient builds a client whose lifecycle methods work without a real
// websocket connection. connClosed starts closed so Close never waits on a
// write pump.
func liveTestClient(h *Hub, id, userID string) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	connClosed := make(chan struct{})
	close(connClosed)

	return &Client{
		ID:         id,
		userID:     userID,
		manager:    h,
		egress:     make(chan event.WsEvent, sendBufSize),
		rooms:      make(map[string]struct{}),
		ctx:        ctx,
		cancel:     cancel,
		connClosed: connClosed,
	}
}

// stubChatService records message sends; the first one stalls so a concurrent
// handler for the second could overtake it.
type stubChatService struct {
	mu    sync.Mutex
	sends []string
	done  chan struct{}
}

func (s *stubChatService) CreateConversation(ctx context.Context, initiatorID string, input service.CreateConversationInput) (*model.Conversation, error) {
	return nil, nil
}

func (s *stubChatService) ListConversations(ctx context.Context, userID string) ([]model.ConversationView, error) {
	return nil, nil
}

func (s *stubChatService) SendMessage(ctx context.Context, senderID string, input service.SendMessageInput) (*model.Message, error) {
	if input.Content == "first" {
		time.Sleep(50 * time.Millisecond)
	}

	s.mu.Lock()
	s.sends = append(s.sends, input.Content)
	s.mu.Unlock()
	s.done <- struct{}{}

	return &model.Message{Content: input.Content}, nil
}

func (s *stubChatService) ListMessages(ctx context.Context, conversationID string, limit, skip int64) ([]model.Message, error) {
	return nil, nil
}

func (s *stubChatService) MarkRead(ctx context.Context, userID, conversationID string) error {
	return nil
}

func (s *stubChatService) DeleteMessage(ctx context.Context, messageID, requesterID string) (*model.Message, error) {
	return nil, nil
}

// stubUserService records online-status transitions.
type stubUserService struct {
	transitions chan string
}

func newStubUserService() *stubUserService {
	return &stubUserService{transitions: make(chan string, 8)}
}

func (s *stubUserService) GetProfile(ctx context.Context, userID string) (*model.User, error) {
	return nil, nil
}

func (s *stubUserService) ListUsers(ctx context.Context) ([]model.User, error) {
	return nil, nil
}

func (s *stubUserService) UpdateProfile(ctx context.Context, userID string, update repo.ProfileUpdate) (*model.User, error) {
	return nil, nil
}

func (s *stubUserService) UpdateLocation(ctx context.Context, userID string, latitude, longitude float64) (*model.User, error) {
	return nil, nil
}

func (s *stubUserService) SetOnlineStatus(ctx context.Context, userID string, isOnline bool) error {
	s.transitions <- fmt.Sprintf("%s:%v", userID, isOnline)
	return nil
}

func (s *stubUserService) ReconcilePresence(ctx context.Context) error {
	return nil
}

func TestGetShardStable(t *testing.T) {
	if getShard("conv1") != getShard("conv1") {
		t.Error("shard assignment not stable")
	}
	if getShard("") != 0 {
		t.Error("empty id not pinned to shard 0")
	}
	for _, id := range []string{"a", "bb", "ccc", "64f1c0ffee"} {
		if sh := getShard(id); sh >= shardCount {
			t.Errorf("shard %d for %q out of range", sh, id)
		}
	}
}

func TestRoomJoinLeaveBookkeeping(t *testing.T) {
	h := NewHub(nil, nil, nil, nil)
	defer h.Stop()

	a := testClient("a")
	b := testClient("b")

	h.joinRoom(a, "conv1")
	h.joinRoom(b, "conv1")
	h.joinRoom(a, "conv2")

	if got := len(h.roomMembers("conv1")); got != 2 {
		t.Errorf("conv1 has %d members, want 2", got)
	}
	if got := len(h.roomMembers("conv2")); got != 1 {
		t.Errorf("conv2 has %d members, want 1", got)
	}

	rooms := a.Rooms()
	if len(rooms) != 2 {
		t.Errorf("client a tracks %v, want both rooms", rooms)
	}

	h.leaveRoom(a, "conv1")
	if got := len(h.roomMembers("conv1")); got != 1 {
		t.Errorf("conv1 has %d members after leave, want 1", got)
	}
	if len(a.Rooms()) != 1 {
		t.Errorf("client a still tracks %v", a.Rooms())
	}

	// Last member out drops the room entirely.
	h.leaveRoom(b, "conv1")
	if members := h.roomMembers("conv1"); members != nil {
		t.Errorf("empty room retained: %v", members)
	}

	// Leaving a room never joined is harmless.
	h.leaveRoom(b, "conv3")
}

func TestRoomRejoinIsIdempotent(t *testing.T) {
	h := NewHub(nil, nil, nil, nil)
	defer h.Stop()

	a := testClient("a")
	h.joinRoom(a, "conv1")
	h.joinRoom(a, "conv1")

	if got := len(h.roomMembers("conv1")); got != 1 {
		t.Errorf("conv1 has %d members after double join, want 1", got)
	}
	if got := len(a.Rooms()); got != 1 {
		t.Errorf("client tracks %d rooms after double join, want 1", got)
	}
}

// Two events from one connection must be handled one at a time in arrival
// order, even when the first handler is slow.
func TestInboundEventsFromOneConnectionStayOrdered(t *testing.T) {
	chat := &stubChatService{done: make(chan struct{}, 2)}
	h := NewHub(chat, nil, nil, nil)
	defer h.Stop()

	c := liveTestClient(h, "c1", "alice")
	queue := h.inboundQueue(c.ID)

	for _, content := range []string{"first", "second"} {
		payload, _ := json.Marshal(event.SendMessagePayload{ConversationID: "conv1", Content: content})
		queue <- inboundMessage{client: c, event: event.WsEvent{Event: event.EventSendMessage, Payload: payload}}
	}

	for i := 0; i < 2; i++ {
		select {
		case <-chat.done:
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for message handlers")
		}
	}

	chat.mu.Lock()
	defer chat.mu.Unlock()
	if len(chat.sends) != 2 || chat.sends[0] != "first" || chat.sends[1] != "second" {
		t.Errorf("events from one connection handled out of order: %v", chat.sends)
	}
}

func TestInboundQueuePinnedPerConnection(t *testing.T) {
	h := NewHub(nil, nil, nil, nil)
	defer h.Stop()

	if h.inboundQueue("c1") != h.inboundQueue("c1") {
		t.Error("connection not pinned to a single worker queue")
	}
}

// A disconnect while typing must emit one stop event per conversation to the
// remaining members, one offline broadcast, and a persisted transition.
func TestDisconnectClearsTypingAndPresence(t *testing.T) {
	users := newStubUserService()
	h := NewHub(nil, users, nil, nil)
	defer h.Stop()

	a := liveTestClient(h, "a", "alice")
	b := liveTestClient(h, "b", "bob")
	h.addClient(a)
	h.addClient(b)

	for _, room := range []string{"convA", "convB"} {
		h.joinRoom(a, room)
		h.joinRoom(b, room)
	}
	h.typing.SetTyping("convA", "alice", true)
	h.typing.SetTyping("convB", "alice", true)

	// Discard the online broadcasts from setup.
	for drained := false; !drained; {
		select {
		case <-b.egress:
		default:
			drained = true
		}
	}

	h.removeClient(a)

	var offline []string
	stopped := map[string]bool{}
	for i := 0; i < 3; i++ {
		select {
		case ev := <-b.egress:
			switch ev.Event {
			case event.EventUserOffline:
				var p event.PresenceBroadcast
				json.Unmarshal(ev.Payload, &p)
				offline = append(offline, p.UserID)
			case event.EventUserStoppedTyping:
				var p event.TypingBroadcast
				json.Unmarshal(ev.Payload, &p)
				if p.UserID == "alice" {
					stopped[p.ConversationID] = true
				}
			default:
				t.Errorf("unexpected event %q", ev.Event)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for disconnect broadcasts")
		}
	}

	if len(offline) != 1 || offline[0] != "alice" {
		t.Errorf("offline broadcasts = %v, want exactly one for alice", offline)
	}
	if !stopped["convA"] || !stopped["convB"] {
		t.Errorf("typing stops reached %v, want both convA and convB", stopped)
	}

	if h.presence.IsOnline("alice") {
		t.Error("alice still online after disconnect")
	}
	if got := len(h.roomMembers("convA")); got != 1 {
		t.Errorf("convA has %d members after disconnect, want 1", got)
	}

	select {
	case transition := <-users.transitions:
		// Online transitions from setup may arrive first.
		for transition != "alice:false" {
			select {
			case transition = <-users.transitions:
			case <-time.After(2 * time.Second):
				t.Fatal("offline transition never persisted")
			}
		}
	case <-time.After(2 * time.Second):
		t.Fatal("offline transition never persisted")
	}
}

// Shutdown must leave the inbound queues open: a read pump can still be
// mid-send when Stop runs.
func TestStopLeavesInboundQueuesOpen(t *testing.T) {
	h := NewHub(nil, nil, nil, nil)
	h.Stop()

	select {
	case h.inboundQueue("c1") <- inboundMessage{}:
	default:
		t.Error("inbound queue rejected a send after stop")
	}
}

func TestCheckOrigin(t *testing.T) {
	open := NewHub(nil, nil, nil, nil)
	defer open.Stop()

	r := httptest.NewRequest("GET", "/ws", nil)
	r.Header.Set("Origin", "http://evil.example")
	if !open.checkOrigin(r) {
		t.Error("empty allowlist must accept any origin")
	}

	restricted := NewHub(nil, nil, nil, []string{"http://localhost:4200"})
	defer restricted.Stop()

	if restricted.checkOrigin(r) {
		t.Error("unlisted origin accepted")
	}
	r.Header.Set("Origin", "http://localhost:4200")
	if !restricted.checkOrigin(r) {
		t.Error("listed origin rejected")
	}
}
