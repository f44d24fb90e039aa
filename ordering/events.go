package ordering

import (
	"encoding/json"
	"time"
)

// EventKind says what happened to a row
type EventKind string

const (
	EventAdded   EventKind = "added"
	EventMoved   EventKind = "moved"
	EventRemoved EventKind = "removed"
)

// Event is published once the transaction that changed a list commits.
// From and To are nil when the row enters or leaves the list.
type Event struct {
	ID      string    `json:"id"`
	Kind    EventKind `json:"kind"`
	Op      string    `json:"op"`
	Scope   string    `json:"scope,omitempty"`
	ItemID  string    `json:"item_id"`
	From    *int      `json:"from,omitempty"`
	To      *int      `json:"to,omitempty"`
	Shifted int64     `json:"shifted"`
	At      time.Time `json:"at"`
}

func (e Event) Serialize() []byte {
	b, _ := json.Marshal(e)
	return b
}
