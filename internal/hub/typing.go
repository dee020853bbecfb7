package hub

import "sync"

// TypingCoordinator tracks which users are composing in which conversation.
// Purely ephemeral process-wide state; nothing here is ever persisted.
type TypingCoordinator struct {
	mu     sync.Mutex
	typing map[string]map[string]struct{} // conversationID -> set of userIDs
}

func NewTypingCoordinator() *TypingCoordinator {
	return &TypingCoordinator{
		typing: make(map[string]map[string]struct{}),
	}
}

// SetTyping adds or removes the user from the conversation's typing set.
// Adding an already-present user or removing an absent one is a state no-op;
// the caller still re-emits the event because clients treat it as a refresh,
// not an edge trigger.
func (t *TypingCoordinator) SetTyping(conversationID, userID string, isTyping bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if isTyping {
		set, ok := t.typing[conversationID]
		if !ok {
			set = make(map[string]struct{})
			t.typing[conversationID] = set
		}
		set[userID] = struct{}{}
		return
	}

	if set, ok := t.typing[conversationID]; ok {
		delete(set, userID)
		if len(set) == 0 {
			delete(t.typing, conversationID)
		}
	}
}

// IsTyping reports whether the user is in the conversation's typing set.
func (t *TypingCoordinator) IsTyping(conversationID, userID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	set, ok := t.typing[conversationID]
	if !ok {
		return false
	}
	_, present := set[userID]
	return present
}

// ClearUser removes the user from every conversation's typing set and returns
// the conversations it was present in, so the gateway can emit one stop event
// per room. This is what prevents a stuck typing indicator after an abrupt
// disconnect.
func (t *TypingCoordinator) ClearUser(userID string) []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	var cleared []string
	for conversationID, set := range t.typing {
		if _, ok := set[userID]; !ok {
			continue
		}
		delete(set, userID)
		if len(set) == 0 {
			delete(t.typing, conversationID)
		}
		cleared = append(cleared, conversationID)
	}
	return cleared
}

// Snapshot returns the per-conversation typing counts for the monitor.
func (t *TypingCoordinator) Snapshot() map[string]int {
	t.mu.Lock()
	defer t.mu.Unlock()

	snapshot := make(map[string]int, len(t.typing))
	for conversationID, set := range t.typing {
		snapshot[conversationID] = len(set)
	}
	return snapshot
}
