// QuakeLens - Earthquake Stream Clustering and Geographic Visualization
// Copyright 2026 QuakeLens Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/quakelens/quakelens

package feed

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/quakelens/quakelens/internal/quake"
)

// fakePublisher records published events and can fail on demand.
type fakePublisher struct {
	mu        sync.Mutex
	published []string
	failIDs   map[string]bool
}

func (f *fakePublisher) PublishEvent(event *quake.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failIDs[event.ID] {
		return errors.New("publish refused")
	}
	f.published = append(f.published, event.ID)
	return nil
}

func (f *fakePublisher) ids() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.published))
	copy(out, f.published)
	return out
}

func feedServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(sampleFeed))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestPoller(t *testing.T, pub EventPublisher) *Poller {
	t.Helper()
	srv := feedServer(t)
	client := NewClient(ClientConfig{
		URL:        srv.URL,
		Timeout:    time.Second,
		RatePerSec: 100,
	})
	seen, err := OpenSeenStore(t.TempDir(), time.Hour)
	if err != nil {
		t.Fatalf("OpenSeenStore() error = %v", err)
	}
	t.Cleanup(func() { _ = seen.Close() })
	return NewPoller(client, seen, pub, time.Minute)
}

func TestPollPublishesUnseenOnly(t *testing.T) {
	pub := &fakePublisher{}
	p := newTestPoller(t, pub)
	ctx := context.Background()

	if err := p.PollOnce(ctx); err != nil {
		t.Fatalf("PollOnce() error = %v", err)
	}
	if got := pub.ids(); len(got) != 2 {
		t.Fatalf("published = %v, want 2 events", got)
	}

	// The second pass over the same feed publishes nothing new.
	if err := p.PollOnce(ctx); err != nil {
		t.Fatalf("second PollOnce() error = %v", err)
	}
	if got := pub.ids(); len(got) != 2 {
		t.Errorf("published = %v, want no repeats", got)
	}
}

func TestPollRetriesFailedPublish(t *testing.T) {
	pub := &fakePublisher{failIDs: map[string]bool{"us7000aaaa": true}}
	p := newTestPoller(t, pub)
	ctx := context.Background()

	if err := p.PollOnce(ctx); err != nil {
		t.Fatalf("PollOnce() error = %v", err)
	}
	if got := pub.ids(); len(got) != 1 {
		t.Fatalf("published = %v, want only the succeeding event", got)
	}

	// The failed event was never marked seen, so the next poll retries it.
	pub.mu.Lock()
	pub.failIDs["us7000aaaa"] = false
	pub.mu.Unlock()

	if err := p.PollOnce(ctx); err != nil {
		t.Fatalf("second PollOnce() error = %v", err)
	}
	got := pub.ids()
	if len(got) != 2 || got[len(got)-1] != "us7000aaaa" {
		t.Errorf("published = %v, want retry of us7000aaaa", got)
	}
}
