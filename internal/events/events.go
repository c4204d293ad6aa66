// Package events provides an in-process pub/sub bus for campaign
// lifecycle and monitoring events.
package events

import (
	"sync"
	"time"
)

// Type identifies an event category.
type Type string

const (
	CampaignCreated   Type = "campaign-created"
	MilestoneReached  Type = "milestone-reached"
	ProgressMilestone Type = "progress-milestone"
	TasksOverdue      Type = "tasks-overdue"
)

// Event carries an event type plus the campaign it concerns.
type Event struct {
	Type       Type
	CampaignID string
	Detail     string
	At         time.Time
}

// Handler receives published events. Handlers run synchronously on the
// publisher's goroutine and must not block.
type Handler func(Event)

// Bus fans published events out to subscribers.
type Bus struct {
	mu       sync.RWMutex
	handlers map[Type][]Handler
	all      []Handler
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{handlers: make(map[Type][]Handler)}
}

// Subscribe registers a handler for one event type.
func (b *Bus) Subscribe(t Type, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[t] = append(b.handlers[t], h)
}

// SubscribeAll registers a handler for every event type.
func (b *Bus) SubscribeAll(h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.all = append(b.all, h)
}

// Publish delivers e to all matching subscribers.
func (b *Bus) Publish(e Event) {
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
	b.mu.RLock()
	typed := b.handlers[e.Type]
	all := b.all
	b.mu.RUnlock()

	for _, h := range typed {
		h(e)
	}
	for _, h := range all {
		h(e)
	}
}
