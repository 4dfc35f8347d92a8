package todo

import "time"

// EventType names the mutation that produced an Event.
type EventType string

const (
	EventCreated EventType = "created"
	EventUpdated EventType = "updated"
	EventDeleted EventType = "deleted"
)

// Event describes a committed mutation of one client's collection.
type Event struct {
	Type      EventType `json:"type"`
	ClientID  string    `json:"-"`
	Todo      Todo      `json:"todo"`
	Timestamp time.Time `json:"timestamp"`
}
