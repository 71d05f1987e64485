// Package bus provides explicit observer registration for announcement
// lifecycle events. Components subscribe at startup; dispatch is synchronous
// inside the request that produced the event.
package bus

import "sync"

// MetaEvent describes a single attribute write or removal on an announcement.
type MetaEvent struct {
	AnnouncementID string
	Key            string
	Value          string
}

// PublishEvent fires when an announcement transitions to the published status.
type PublishEvent struct {
	AnnouncementID string
}

type MetaHandler func(ev MetaEvent)
type PublishHandler func(ev PublishEvent)

// Bus dispatches lifecycle events to registered handlers in registration order.
type Bus struct {
	mu          sync.RWMutex
	metaAdded   []MetaHandler
	metaUpdated []MetaHandler
	metaDeleted []MetaHandler
	published   []PublishHandler
}

func New() *Bus {
	return &Bus{}
}

func (b *Bus) OnMetaAdded(h MetaHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.metaAdded = append(b.metaAdded, h)
}

func (b *Bus) OnMetaUpdated(h MetaHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.metaUpdated = append(b.metaUpdated, h)
}

func (b *Bus) OnMetaDeleted(h MetaHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.metaDeleted = append(b.metaDeleted, h)
}

func (b *Bus) OnPublished(h PublishHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published = append(b.published, h)
}

func (b *Bus) MetaAdded(ev MetaEvent) {
	b.mu.RLock()
	handlers := b.metaAdded
	b.mu.RUnlock()
	for _, h := range handlers {
		h(ev)
	}
}

func (b *Bus) MetaUpdated(ev MetaEvent) {
	b.mu.RLock()
	handlers := b.metaUpdated
	b.mu.RUnlock()
	for _, h := range handlers {
		h(ev)
	}
}

func (b *Bus) MetaDeleted(ev MetaEvent) {
	b.mu.RLock()
	handlers := b.metaDeleted
	b.mu.RUnlock()
	for _, h := range handlers {
		h(ev)
	}
}

// AnnouncementPublished notifies all published-event subscribers.
func (b *Bus) AnnouncementPublished(announcementID string) {
	b.mu.RLock()
	handlers := b.published
	b.mu.RUnlock()
	for _, h := range handlers {
		h(PublishEvent{AnnouncementID: announcementID})
	}
}
