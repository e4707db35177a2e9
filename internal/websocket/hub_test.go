// QuakeLens - Earthquake Stream Clustering and Geographic Visualization
// Copyright 2026 QuakeLens Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/quakelens/quakelens

package websocket

import (
	"context"
	"testing"
	"time"

	"github.com/quakelens/quakelens/internal/engine"
)

// newHubClient builds a client without a network connection; tests read
// from its send channel directly instead of running the pumps.
func newHubClient(hub *Hub) *Client {
	return NewClient(hub, nil)
}

func startHub(t *testing.T) (*Hub, context.CancelFunc) {
	t.Helper()
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = hub.RunWithContext(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Error("hub did not stop")
		}
	})
	return hub, cancel
}

func waitForClients(t *testing.T, hub *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if hub.GetClientCount() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("client count = %d, want %d", hub.GetClientCount(), want)
}

func TestHubRegisterUnregister(t *testing.T) {
	hub, _ := startHub(t)

	client := newHubClient(hub)
	hub.Register <- client
	waitForClients(t, hub, 1)

	hub.Unregister <- client
	waitForClients(t, hub, 0)

	// Unregister closes the send channel.
	select {
	case _, ok := <-client.send:
		if ok {
			t.Error("send channel received a message instead of closing")
		}
	case <-time.After(2 * time.Second):
		t.Error("send channel not closed after unregister")
	}
}

func TestHubBroadcastSnapshotReachesAllClients(t *testing.T) {
	hub, _ := startHub(t)

	c1 := newHubClient(hub)
	c2 := newHubClient(hub)
	hub.Register <- c1
	hub.Register <- c2
	waitForClients(t, hub, 2)

	snapshot := engine.Snapshot{GeneratedAt: time.Now()}
	hub.BroadcastSnapshot(snapshot)

	for i, c := range []*Client{c1, c2} {
		select {
		case msg := <-c.send:
			if msg.Type != MessageTypeSnapshot {
				t.Errorf("client %d message type = %q, want %q", i, msg.Type, MessageTypeSnapshot)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("client %d never received the snapshot", i)
		}
	}
}

func TestHubDropsSlowClient(t *testing.T) {
	hub, _ := startHub(t)

	slow := newHubClient(hub)
	hub.Register <- slow
	waitForClients(t, hub, 1)

	// Fill the client's buffer so the next fan-out cannot enqueue.
	for i := 0; i < cap(slow.send); i++ {
		slow.send <- Message{Type: MessageTypePing}
	}
	hub.BroadcastSnapshot(engine.Snapshot{})

	waitForClients(t, hub, 0)
}

func TestHubShutdownClosesClients(t *testing.T) {
	hub, cancel := startHub(t)

	client := newHubClient(hub)
	hub.Register <- client
	waitForClients(t, hub, 1)

	cancel()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if hub.GetClientCount() == 0 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Error("clients not closed on shutdown")
}

func TestClientIDsMonotonic(t *testing.T) {
	hub := NewHub()
	a := NewClient(hub, nil)
	b := NewClient(hub, nil)
	if b.ID() <= a.ID() {
		t.Errorf("client ids not increasing: %d then %d", a.ID(), b.ID())
	}
}
