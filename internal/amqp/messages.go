package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EventOp names the write that produced a SpendingEvent.
type EventOp string

const (
	OpCreated EventOp = "created"
	OpUpdated EventOp = "updated"
	OpDeleted EventOp = "deleted"
)

func (o EventOp) IsValid() bool {
	switch o {
	case OpCreated, OpUpdated, OpDeleted:
		return true
	}
	return false
}

// SpendingEvent is a lightweight change notification.
// Contains only the ID and the operation, consumers fetch the record from the API.
type SpendingEvent struct {
	EventID   string    `json:"event_id"`
	ID        int64     `json:"id"`
	Op        EventOp   `json:"op"`
	Timestamp time.Time `json:"timestamp"`
}

// NewSpendingEvent creates an event for the spending id with a fresh event id
func NewSpendingEvent(id int64, op EventOp) *SpendingEvent {
	return &SpendingEvent{
		EventID:   uuid.NewString(),
		ID:        id,
		Op:        op,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON converts the event to JSON bytes
func (e *SpendingEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// SpendingEventFromJSON decodes an event and rejects unknown operations
func SpendingEventFromJSON(data []byte) (*SpendingEvent, error) {
	var e SpendingEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	if !e.Op.IsValid() {
		return nil, fmt.Errorf("unknown event op %q", e.Op)
	}
	if e.ID <= 0 {
		return nil, fmt.Errorf("invalid spending id %d", e.ID)
	}
	return &e, nil
}
