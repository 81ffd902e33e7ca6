package notify

import (
	"context"
	"encoding/json"
	"time"
)

// Event is a job status change
type Event struct {
	JobID   string    `json:"job_id"`
	Status  string    `json:"status"`
	Message string    `json:"message"`
	Frames  int       `json:"frames"`
	Video   string    `json:"video,omitempty"`
	Time    time.Time `json:"time"`
}

// Payload encodes ev as sent on the wire
func (ev Event) Payload() ([]byte, error) {
	return json.Marshal(ev)
}

// Notifier publishes job events
type Notifier interface {
	Notify(ctx context.Context, ev Event) error
	Close()
}

// Nop drops every event
type Nop struct{}

func (Nop) Notify(context.Context, Event) error { return nil }

func (Nop) Close() {}
