package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type EventKind string

const (
	EventCreated EventKind = "created"
	EventDeleted EventKind = "deleted"
)

// TransactionEvent describes a transaction that was added or removed.
// Consumers rebuild the mirrored row from the event alone.
type TransactionEvent struct {
	EventID       string    `json:"event_id"`
	Kind          EventKind `json:"kind"`
	TransactionID int64     `json:"transaction_id"`
	UserID        int64     `json:"user_id"`
	Username      string    `json:"username"`
	Type          string    `json:"type"`
	Category      string    `json:"category"`
	AmountCents   int64     `json:"amount_cents"`
	Date          string    `json:"date"`
	Note          string    `json:"note"`
	Timestamp     time.Time `json:"timestamp"`
}

// NewTransactionEvent stamps an event with a fresh id and the current time.
func NewTransactionEvent(kind EventKind) *TransactionEvent {
	return &TransactionEvent{
		EventID:   uuid.NewString(),
		Kind:      kind,
		Timestamp: time.Now().UTC(),
	}
}

func (e *TransactionEvent) Validate() error {
	switch e.Kind {
	case EventCreated, EventDeleted:
	default:
		return fmt.Errorf("unknown event kind %q", e.Kind)
	}
	if e.TransactionID <= 0 {
		return fmt.Errorf("missing transaction id")
	}
	return nil
}

func (e *TransactionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

func TransactionEventFromJSON(data []byte) (*TransactionEvent, error) {
	var e TransactionEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return &e, nil
}
