package hub

import "sync"

// PresenceRegistry is the process-wide source of truth for "is this user
// currently reachable". It owns the only mapping from user ids to live
// connection handles; every mutation happens under its lock so a
// near-simultaneous connect and disconnect for one user can never produce a
// wrong final online/offline transition.
//
// The registry is deliberately self-contained: swapping it for a distributed
// backing store later only touches this file.
type PresenceRegistry struct {
	mu      sync.RWMutex
	entries map[string]map[string]*Client // userID -> clientID -> client
}

func NewPresenceRegistry() *PresenceRegistry {
	return &PresenceRegistry{
		entries: make(map[string]map[string]*Client),
	}
}

// Connect registers a connection handle under userID. The returned flag is
// true when this was the user's first live handle, i.e. the user just came
// online.
func (p *PresenceRegistry) Connect(userID string, c *Client) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	handles, ok := p.entries[userID]
	if !ok {
		handles = make(map[string]*Client)
		p.entries[userID] = handles
	}
	handles[c.ID] = c
	return !ok
}

// Disconnect removes the handle, locating its owner by reverse lookup so
// anonymous connections fall through harmlessly. The returned flag is true
// when this was the user's last handle, i.e. the user just went offline.
func (p *PresenceRegistry) Disconnect(c *Client) (userID string, last bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for uid, handles := range p.entries {
		if _, ok := handles[c.ID]; !ok {
			continue
		}
		delete(handles, c.ID)
		if len(handles) == 0 {
			delete(p.entries, uid)
			return uid, true
		}
		return uid, false
	}
	return "", false
}

// IsOnline reports whether the user has at least one live handle.
func (p *PresenceRegistry) IsOnline(userID string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.entries[userID]) > 0
}

// ClientsFor returns the user's live handles.
func (p *PresenceRegistry) ClientsFor(userID string) []*Client {
	p.mu.RLock()
	defer p.mu.RUnlock()

	handles := p.entries[userID]
	clients := make([]*Client, 0, len(handles))
	for _, c := range handles {
		clients = append(clients, c)
	}
	return clients
}

// OnlineUsers returns the ids of every user with at least one handle.
func (p *PresenceRegistry) OnlineUsers() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	users := make([]string, 0, len(p.entries))
	for uid := range p.entries {
		users = append(users, uid)
	}
	return users
}

// Counts returns the number of live handles and distinct online users.
func (p *PresenceRegistry) Counts() (connections, users int) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	for _, handles := range p.entries {
		connections += len(handles)
	}
	return connections, len(p.entries)
}
