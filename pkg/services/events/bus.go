package events

import (
	"sort"
	"sync"
	"time"
)

// EventType names a game lifecycle event
type EventType string

const (
	GameStarted         EventType = "game_started"
	GameReset           EventType = "game_reset"
	BlockRevealed       EventType = "block_revealed"
	QuizAnswered        EventType = "quiz_answered"
	DiceRolled          EventType = "dice_rolled"
	TowerCollapsed      EventType = "tower_collapsed"
	TowerRebuilt        EventType = "tower_rebuilt"
	GameCompleted       EventType = "game_completed"
	AchievementUnlocked EventType = "achievement_unlocked"
	SessionEnded        EventType = "session_ended"
)

// Event is published by the session manager after a state change
type Event struct {
	Type      EventType              `json:"type"`
	SessionID string                 `json:"session_id"`
	Player    string                 `json:"player,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data,omitempty"`
}

// Listener receives events from the bus
type Listener interface {
	OnEvent(event *Event)
}

// ListenerFunc adapts a function to Listener
type ListenerFunc func(event *Event)

func (f ListenerFunc) OnEvent(event *Event) { f(event) }

// Bus defines publishing and subscribing to game events
type Bus interface {
	// Publish queues an event; it never blocks the caller
	Publish(event *Event)

	// Subscribe registers a listener and returns a func that removes it
	Subscribe(listener Listener) func()

	// Close stops delivery after draining queued events
	Close()
}

// SimpleBus is an in-memory Bus. Events are delivered in publish order from a
// single goroutine; events published while the buffer is full are dropped.
type SimpleBus struct {
	mu             sync.RWMutex
	listeners      map[int]Listener
	nextID         int
	history        []*Event
	maxHistorySize int
	closed         bool
	done           chan struct{}
	stopped        chan struct{}
	eventChan      chan *Event
}

// NewSimpleBus creates a bus and starts its dispatcher
func NewSimpleBus(bufferSize int, maxHistorySize int) *SimpleBus {
	if bufferSize == 0 {
		bufferSize = 256
	}
	if maxHistorySize == 0 {
		maxHistorySize = 1000
	}

	bus := &SimpleBus{
		listeners:      make(map[int]Listener),
		history:        make([]*Event, 0, maxHistorySize),
		maxHistorySize: maxHistorySize,
		done:           make(chan struct{}),
		stopped:        make(chan struct{}),
		eventChan:      make(chan *Event, bufferSize),
	}

	go bus.processEvents()

	return bus
}

func (b *SimpleBus) Publish(event *Event) {
	if event == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}

	select {
	case b.eventChan <- event:
	default:
		// buffer full
	}
}

func (b *SimpleBus) Subscribe(listener Listener) func() {
	if listener == nil {
		return func() {}
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	b.listeners[id] = listener

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.listeners, id)
	}
}

// History returns up to limit of the most recent events, oldest first
func (b *SimpleBus) History(limit int) []*Event {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if limit <= 0 || limit > len(b.history) {
		limit = len(b.history)
	}

	history := make([]*Event, limit)
	copy(history, b.history[len(b.history)-limit:])
	return history
}

func (b *SimpleBus) processEvents() {
	defer close(b.stopped)
	for {
		select {
		case <-b.done:
			return
		case event := <-b.eventChan:
			b.dispatch(event)
		}
	}
}

func (b *SimpleBus) dispatch(event *Event) {
	b.mu.Lock()
	b.history = append(b.history, event)
	if len(b.history) > b.maxHistorySize {
		b.history = b.history[len(b.history)-b.maxHistorySize:]
	}

	ids := make([]int, 0, len(b.listeners))
	for id := range b.listeners {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	listeners := make([]Listener, 0, len(ids))
	for _, id := range ids {
		listeners = append(listeners, b.listeners[id])
	}
	b.mu.Unlock()

	// outside the lock so listeners may publish or unsubscribe
	for _, l := range listeners {
		l.OnEvent(event)
	}
}

func (b *SimpleBus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	b.mu.Unlock()

	close(b.done)
	<-b.stopped

	for {
		select {
		case event := <-b.eventChan:
			b.dispatch(event)
		default:
			return
		}
	}
}

// NoOpBus drops every event
type NoOpBus struct{}

func NewNoOpBus() *NoOpBus {
	return &NoOpBus{}
}

func (b *NoOpBus) Publish(event *Event) {}

func (b *NoOpBus) Subscribe(listener Listener) func() { return func() {} }

func (b *NoOpBus) Close() {}
