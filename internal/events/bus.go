// Package events provides a small in-process publish/subscribe bus carrying
// index lifecycle events to the websocket endpoint and the TUI.
package events

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// EventType identifies what happened to the catalog.
type EventType string

const (
	// FileAdded is published when the indexer catalogs a new file.
	FileAdded EventType = "file_added"
	// FileChanged is published when an already-cataloged file's content or
	// metadata changed.
	FileChanged EventType = "file_changed"
	// FileRemoved is published when a cataloged file disappears from disk.
	FileRemoved EventType = "file_removed"
	// ScanComplete is published after a full scan pass finishes.
	ScanComplete EventType = "scan_complete"
)

// Event is one index lifecycle notification.
type Event struct {
	Type   EventType `json:"type"`
	FileID string    `json:"file_id,omitempty"`
	Path   string    `json:"path,omitempty"`
	Count  int       `json:"count,omitempty"` // files touched, for scan_complete
	Time   time.Time `json:"time"`
}

// Bus fans events out to subscribers. Publish never blocks: a subscriber
// whose buffer is full misses the event, and drops are counted rather than
// stalling the indexer.
type Bus struct {
	mu      sync.RWMutex
	subs    map[chan Event]struct{}
	dropped atomic.Int64
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[chan Event]struct{})}
}

// Subscribe registers a new subscriber and returns its channel. The buffer
// absorbs bursts from full rescans.
func (b *Bus) Subscribe() chan Event {
	ch := make(chan Event, 256)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes and closes a subscriber channel.
func (b *Bus) Unsubscribe(ch chan Event) {
	b.mu.Lock()
	if _, ok := b.subs[ch]; ok {
		delete(b.subs, ch)
		close(ch)
	}
	b.mu.Unlock()
}

// Publish delivers ev to every subscriber that has buffer room.
func (b *Bus) Publish(ev Event) {
	if ev.Time.IsZero() {
		ev.Time = time.Now().UTC()
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subs {
		select {
		case ch <- ev:
		default:
			n := b.dropped.Add(1)
			// Avoid log spam: report the first drop and then every 1000.
			if n == 1 || n%1000 == 0 {
				slog.Debug("event bus dropped events (subscriber buffer full)",
					"dropped", n, "event_type", ev.Type)
			}
		}
	}
}

// Dropped returns the number of events dropped across all subscribers.
func (b *Bus) Dropped() int64 {
	return b.dropped.Load()
}
