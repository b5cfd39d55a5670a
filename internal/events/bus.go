// Package events fans committed ledger events out to in-process subscribers.
package events

import (
	"log/slog"
	"sync"

	"github.com/set-night/bountyhub/internal/domain"
	"github.com/set-night/bountyhub/internal/metrics"
)

// Bus delivers events to every subscriber without blocking the publisher.
// A subscriber that falls behind loses events rather than stalling commits.
type Bus struct {
	mu     sync.RWMutex
	subs   map[int]*subscription
	nextID int
	buffer int
}

type subscription struct {
	ch     chan domain.LedgerEvent
	filter func(domain.LedgerEvent) bool
}

func NewBus(buffer int) *Bus {
	return &Bus{subs: make(map[int]*subscription), buffer: buffer}
}

// Subscribe registers a subscriber. A nil filter receives everything.
// The returned cancel func closes the channel.
func (b *Bus) Subscribe(filter func(domain.LedgerEvent) bool) (<-chan domain.LedgerEvent, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	sub := &subscription{ch: make(chan domain.LedgerEvent, b.buffer), filter: filter}
	b.subs[id] = sub

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(sub.ch)
		})
	}
	return sub.ch, cancel
}

// SubscribeAccount receives only the events of one account.
func (b *Bus) SubscribeAccount(accountID int64) (<-chan domain.LedgerEvent, func()) {
	return b.Subscribe(func(e domain.LedgerEvent) bool {
		return e.Entry.AccountID == accountID
	})
}

func (b *Bus) Publish(events ...domain.LedgerEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, e := range events {
		for _, sub := range b.subs {
			if sub.filter != nil && !sub.filter(e) {
				continue
			}
			select {
			case sub.ch <- e:
			default:
				metrics.EventsDroppedTotal.Inc()
				slog.Warn("event subscriber lagging, dropping event",
					"account_id", e.Entry.AccountID,
					"entry_id", e.Entry.ID,
				)
			}
		}
	}
}
