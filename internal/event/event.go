// Package event publishes domain events about blueprints and sessions.
package event

import (
	"context"
	"sync"
	"time"
)

// Routing keys.
const (
	TypeBlueprintGenerated = "blueprint.generated"
	TypeSessionFinished    = "session.finished"
)

// Event is a payload with a routing key.
type Event interface {
	EventType() string
}

// BlueprintGenerated is published when a new blueprint is stored.
type BlueprintGenerated struct {
	UserID        string `json:"userId"`
	BlueprintID   string `json:"blueprintId"`
	Source        string `json:"source"`
	QuestionCount int    `json:"questionCount"`
}

func (BlueprintGenerated) EventType() string { return TypeBlueprintGenerated }

// SessionFinished is published when a session closes.
type SessionFinished struct {
	UserID           string         `json:"userId"`
	SessionID        string         `json:"sessionId"`
	Score            int            `json:"score"`
	CompetencyScores map[string]int `json:"competencyScores"`
	DurationSec      int            `json:"durationSec"`
}

func (SessionFinished) EventType() string { return TypeSessionFinished }

// Envelope is the wire form of every event.
type Envelope struct {
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurredAt"`
	Data       Event     `json:"data"`
}

// Publisher delivers events.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error                         { return nil }

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Publish(_ context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *Recorder) Close() error { return nil }

// Events returns a copy of everything published so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}
