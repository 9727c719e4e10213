// Package event carries outbound events from producers (the capture worker,
// the relay) to a presentation layer that polls them.
package event

import (
	"sync"
	"time"
)

type Kind uint8

const (
	System Kind = iota
	User
	Assistant
	Status
)

type Event struct {
	Kind      Kind
	Text      string
	Listening bool
	Time      time.Time
}

// Source is the label a presentation layer shows for the event.
func (e Event) Source() string {
	switch e.Kind {
	case User:
		return "user"
	case Assistant:
		return "mcp"
	case Status:
		return "status"
	default:
		return "system"
	}
}

func NewSystem(text string) Event    { return Event{Kind: System, Text: text, Time: time.Now()} }
func NewUser(text string) Event      { return Event{Kind: User, Text: text, Time: time.Now()} }
func NewAssistant(text string) Event { return Event{Kind: Assistant, Text: text, Time: time.Now()} }

func NewStatus(listening bool) Event {
	return Event{Kind: Status, Listening: listening, Time: time.Now()}
}

// Publisher accepts events in order.
type Publisher interface {
	Publish(Event)
}

// Queue is an unbounded FIFO. Publish never blocks; consumers either poll
// with Drain or wait on Ready.
type Queue struct {
	mu    sync.Mutex
	items []Event
	ready chan struct{}
}

func NewQueue() *Queue {
	return &Queue{ready: make(chan struct{}, 1)}
}

func (q *Queue) Publish(e Event) {
	q.mu.Lock()
	q.items = append(q.items, e)
	q.mu.Unlock()

	select {
	case q.ready <- struct{}{}:
	default:
	}
}

// Drain removes and returns everything queued so far.
func (q *Queue) Drain() []Event {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := q.items
	q.items = nil
	return out
}

// Ready is signalled after a Publish. One signal may cover several events.
func (q *Queue) Ready() <-chan struct{} {
	return q.ready
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
