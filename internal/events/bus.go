// Package events carries typed change signals between the core and its
// subscribers. Subscribers re-read the collection named by the signal.
package events

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Signal names the collection that changed
type Signal string

const (
	HazardsUpdated       Signal = "hazardsUpdated"
	UsersUpdated         Signal = "usersUpdated"
	GroupsUpdated        Signal = "groupsUpdated"
	NotificationsUpdated Signal = "notificationsUpdated"
)

// Event is one published change
type Event struct {
	Signal   Signal    `json:"signal"`
	Entity   string    `json:"entity,omitempty"`
	Action   string    `json:"action,omitempty"`
	EntityID string    `json:"entityId,omitempty"`
	At       time.Time `json:"at"`
}

// Publisher is implemented by anything that accepts events
type Publisher interface {
	Publish(ctx context.Context, event Event)
}

// Handler receives published events
type Handler func(Event)

type subscription struct {
	handler Handler
	signals map[Signal]bool
}

func (s subscription) wants(sig Signal) bool {
	return len(s.signals) == 0 || s.signals[sig]
}

// Bus is an in-process broadcast of events. Handlers run synchronously
// on the publishing goroutine, in subscription order.
type Bus struct {
	mu     sync.RWMutex
	nextID int
	order  []int
	subs   map[int]subscription
	logger *logrus.Entry
}

// NewBus creates an empty bus
func NewBus(logger *logrus.Logger) *Bus {
	if logger == nil {
		logger = logrus.New()
		logger.SetLevel(logrus.InfoLevel)
	}
	return &Bus{
		subs:   make(map[int]subscription),
		logger: logger.WithField("component", "event-bus"),
	}
}

// Subscribe registers handler for the given signals, or all signals when none
// are given. The returned func removes the subscription.
func (b *Bus) Subscribe(handler Handler, signals ...Signal) func() {
	sub := subscription{handler: handler, signals: make(map[Signal]bool, len(signals))}
	for _, s := range signals {
		sub.signals[s] = true
	}

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = sub
	b.order = append(b.order, id)
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs, id)
			for i, v := range b.order {
				if v == id {
					b.order = append(b.order[:i], b.order[i+1:]...)
					break
				}
			}
		})
	}
}

// Publish delivers event to every matching subscriber. A panicking handler
// is logged and does not stop delivery to the others.
func (b *Bus) Publish(_ context.Context, event Event) {
	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}

	b.mu.RLock()
	targets := make([]Handler, 0, len(b.order))
	for _, id := range b.order {
		if sub := b.subs[id]; sub.wants(event.Signal) {
			targets = append(targets, sub.handler)
		}
	}
	b.mu.RUnlock()

	for _, h := range targets {
		b.deliver(h, event)
	}
}

func (b *Bus) deliver(h Handler, event Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.WithFields(logrus.Fields{
				"signal": event.Signal,
				"panic":  r,
			}).Error("Event handler panicked")
		}
	}()
	h(event)
}

// SubscriberCount returns the number of active subscriptions
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
