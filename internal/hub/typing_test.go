package hub

import (
	"sort"
	"testing"
)

func TestTypingSetAndUnset(t *testing.T) {
	tc := NewTypingCoordinator()

	tc.SetTyping("conv1", "alice", true)
	if !tc.IsTyping("conv1", "alice") {
		t.Error("alice not typing after set")
	}
	if tc.IsTyping("conv1", "bob") {
		t.Error("bob typing without set")
	}
	if tc.IsTyping("conv2", "alice") {
		t.Error("typing state leaked across conversations")
	}

	// Re-setting is a state no-op.
	tc.SetTyping("conv1", "alice", true)
	if got := tc.Snapshot()["conv1"]; got != 1 {
		t.Errorf("conv1 typing count = %d, want 1", got)
	}

	tc.SetTyping("conv1", "alice", false)
	if tc.IsTyping("conv1", "alice") {
		t.Error("alice still typing after unset")
	}
	if len(tc.Snapshot()) != 0 {
		t.Error("empty typing set retained in snapshot")
	}

	// Unsetting an absent user is harmless.
	tc.SetTyping("conv1", "alice", false)
	tc.SetTyping("missing", "alice", false)
}

func TestTypingClearUser(t *testing.T) {
	tc := NewTypingCoordinator()
	tc.SetTyping("conv1", "alice", true)
	tc.SetTyping("conv2", "alice", true)
	tc.SetTyping("conv2", "bob", true)

	cleared := tc.ClearUser("alice")
	sort.Strings(cleared)
	if len(cleared) != 2 || cleared[0] != "conv1" || cleared[1] != "conv2" {
		t.Errorf("cleared = %v, want [conv1 conv2]", cleared)
	}

	if tc.IsTyping("conv1", "alice") || tc.IsTyping("conv2", "alice") {
		t.Error("alice still typing after clear")
	}
	if !tc.IsTyping("conv2", "bob") {
		t.Error("clearing alice removed bob")
	}

	if again := tc.ClearUser("alice"); len(again) != 0 {
		t.Errorf("second clear returned %v, want nothing", again)
	}
}

func TestTypingSnapshotCounts(t *testing.T) {
	tc := NewTypingCoordinator()
	tc.SetTyping("conv1", "alice", true)
	tc.SetTyping("conv1", "bob", true)
	tc.SetTyping("conv2", "carol", true)

	snapshot := tc.Snapshot()
	if snapshot["conv1"] != 2 || snapshot["conv2"] != 1 {
		t.Errorf("snapshot = %v", snapshot)
	}
}
