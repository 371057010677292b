package events

import (
	"encoding/json"
	"time"
)

const (
	ActionCreated = "created"
	ActionDeleted = "deleted"
)

// TransactionEvent is the message published when a ledger entry is
// created or deleted. It carries ids only; consumers interested in
// the full record fetch it through the API.
type TransactionEvent struct {
	Action        string    `json:"action"`
	TransactionID string    `json:"transaction_id"`
	UserID        string    `json:"user_id"`
	Type          string    `json:"type,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// NewCreatedEvent builds the event for a freshly persisted transaction.
func NewCreatedEvent(transactionID, userID, txnType string) *TransactionEvent {
	return &TransactionEvent{
		Action:        ActionCreated,
		TransactionID: transactionID,
		UserID:        userID,
		Type:          txnType,
		Timestamp:     time.Now(),
	}
}

// NewDeletedEvent builds the event for a removed transaction.
func NewDeletedEvent(transactionID, userID string) *TransactionEvent {
	return &TransactionEvent{
		Action:        ActionDeleted,
		TransactionID: transactionID,
		UserID:        userID,
		Timestamp:     time.Now(),
	}
}

// ToJSON converts the event to JSON bytes.
func (e *TransactionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// TransactionEventFromJSON creates an event from JSON bytes.
func TransactionEventFromJSON(data []byte) (*TransactionEvent, error) {
	var e TransactionEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
