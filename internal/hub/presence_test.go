package hub

import "testing"

func TestPresenceConnectFirstHandle(t *testing.T) {
	p := NewPresenceRegistry()

	if !p.Connect("alice", &Client{ID: "h1"}) {
		t.Error("first handle did not report the user as newly online")
	}
	if p.Connect("alice", &Client{ID: "h2"}) {
		t.Error("second handle reported the user as newly online")
	}
	if !p.IsOnline("alice") {
		t.Error("alice not online with two handles")
	}

	connections, users := p.Counts()
	if connections != 2 || users != 1 {
		t.Errorf("counts = (%d, %d), want (2, 1)", connections, users)
	}
}

func TestPresenceDisconnectLastHandle(t *testing.T) {
	p := NewPresenceRegistry()
	h1 := &Client{ID: "h1"}
	h2 := &Client{ID: "h2"}
	p.Connect("alice", h1)
	p.Connect("alice", h2)

	userID, last := p.Disconnect(h1)
	if userID != "alice" || last {
		t.Errorf("first disconnect = (%q, %v), want (alice, false)", userID, last)
	}
	if !p.IsOnline("alice") {
		t.Error("alice offline while one handle remains")
	}

	userID, last = p.Disconnect(h2)
	if userID != "alice" || !last {
		t.Errorf("last disconnect = (%q, %v), want (alice, true)", userID, last)
	}
	if p.IsOnline("alice") {
		t.Error("alice still online with no handles")
	}
}

func TestPresenceDisconnectUnknownHandle(t *testing.T) {
	p := NewPresenceRegistry()
	p.Connect("alice", &Client{ID: "h1"})

	// Anonymous or never-registered handles fall through.
	userID, last := p.Disconnect(&Client{ID: "ghost"})
	if userID != "" || last {
		t.Errorf("unknown disconnect = (%q, %v), want empty and false", userID, last)
	}
	if !p.IsOnline("alice") {
		t.Error("unrelated disconnect removed alice")
	}
}

func TestPresenceClientsForAndOnlineUsers(t *testing.T) {
	p := NewPresenceRegistry()
	p.Connect("alice", &Client{ID: "h1"})
	p.Connect("alice", &Client{ID: "h2"})
	p.Connect("bob", &Client{ID: "h3"})

	if got := len(p.ClientsFor("alice")); got != 2 {
		t.Errorf("alice has %d handles, want 2", got)
	}
	if got := len(p.ClientsFor("carol")); got != 0 {
		t.Errorf("carol has %d handles, want 0", got)
	}

	online := p.OnlineUsers()
	if len(online) != 2 {
		t.Errorf("online users = %v, want alice and bob", online)
	}
}
