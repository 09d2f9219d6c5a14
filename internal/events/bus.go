// Package events is the process-wide notification channel between the settings
// session, the banner rotator and any view that reacts to them.
//
// Payloads:
//   - [ConfigChanged] ("config.changed"): the keys of a batch that was saved and reloaded
//   - [BannerChanged] ("banner.changed"): a newly resolved header banner
package events

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/desertthunder/cinesync/internal/models"
)

const (
	TypeConfigChanged = "config.changed"
	TypeBannerChanged = "banner.changed"
)

const defaultBufferSize = 16

// Event is the base interface for all events.
type Event interface {
	EventType() string
	Timestamp() time.Time
}

// BaseEvent provides common fields for all events.
type BaseEvent struct {
	Type string    `json:"type"`
	Time time.Time `json:"timestamp"`
}

func (e BaseEvent) EventType() string    { return e.Type }
func (e BaseEvent) Timestamp() time.Time { return e.Time }

func newBaseEvent(eventType string) BaseEvent {
	return BaseEvent{Type: eventType, Time: time.Now()}
}

// ConfigChanged is published after a batch of configuration updates was accepted and the list reloaded.
type ConfigChanged struct {
	BaseEvent
	Keys []string `json:"keys"`
}

// NewConfigChanged creates a config changed event for keys.
func NewConfigChanged(keys []string) ConfigChanged {
	return ConfigChanged{BaseEvent: newBaseEvent(TypeConfigChanged), Keys: keys}
}

// BannerChanged is published when the rotator resolves a new banner.
type BannerChanged struct {
	BaseEvent
	Target models.BannerTarget `json:"target"`
	Banner models.BannerResult `json:"banner"`
}

// NewBannerChanged creates a banner changed event.
func NewBannerChanged(target models.BannerTarget, banner models.BannerResult) BannerChanged {
	return BannerChanged{BaseEvent: newBaseEvent(TypeBannerChanged), Target: target, Banner: banner}
}

type subscriber struct {
	ch    chan Event
	types map[string]bool // empty means all types
}

// Bus fans events out to subscribers without ever blocking the publisher.
//
// A full subscriber buffer drops its oldest event. A nil *Bus is valid and discards everything.
type Bus struct {
	mu          sync.RWMutex
	subscribers []*subscriber
	bufferSize  int
	dropped     atomic.Int64
	closed      bool
}

// NewBus creates a Bus whose subscriber channels hold bufferSize events.
func NewBus(bufferSize int) *Bus {
	if bufferSize <= 0 {
		bufferSize = defaultBufferSize
	}
	return &Bus{bufferSize: bufferSize}
}

// Subscribe returns a channel receiving events of the given types, or every event when none are given.
//
// The channel is closed by [Bus.Unsubscribe] or [Bus.Close].
func (b *Bus) Subscribe(types ...string) <-chan Event {
	if b == nil {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	sub := &subscriber{ch: make(chan Event, b.bufferSize), types: make(map[string]bool, len(types))}
	if b.closed {
		close(sub.ch)
		return sub.ch
	}
	for _, t := range types {
		sub.types[t] = true
	}
	b.subscribers = append(b.subscribers, sub)
	return sub.ch
}

// Unsubscribe removes and closes the subscription.
func (b *Bus) Unsubscribe(ch <-chan Event) {
	if b == nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	kept := b.subscribers[:0]
	for _, sub := range b.subscribers {
		if sub.ch == ch {
			close(sub.ch)
			continue
		}
		kept = append(kept, sub)
	}
	b.subscribers = kept
}

// Publish delivers event to every matching subscriber.
func (b *Bus) Publish(event Event) {
	if b == nil {
		return
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return
	}

	for _, sub := range b.subscribers {
		if len(sub.types) > 0 && !sub.types[event.EventType()] {
			continue
		}

		select {
		case sub.ch <- event:
			continue
		default:
		}

		select {
		case <-sub.ch:
			b.dropped.Add(1)
		default:
		}

		select {
		case sub.ch <- event:
		default:
			b.dropped.Add(1)
		}
	}
}

// DroppedCount returns the number of events discarded because a subscriber fell behind.
func (b *Bus) DroppedCount() int64 {
	if b == nil {
		return 0
	}
	return b.dropped.Load()
}

// Close closes every subscriber channel. Publishing after Close is a no-op.
func (b *Bus) Close() {
	if b == nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true

	for _, sub := range b.subscribers {
		close(sub.ch)
	}
	b.subscribers = nil
}
