package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Change operations carried by TransactionChangedMessage.
const (
	OpCreated = "created"
	OpUpdated = "updated"
	OpDeleted = "deleted"
)

// TransactionChangedMessage tells consumers that an owner's ledger changed.
// It carries references only; consumers rebuild state from the store.
type TransactionChangedMessage struct {
	MessageID     string    `json:"message_id"`
	Owner         string    `json:"owner"`
	TransactionID string    `json:"transaction_id"`
	Operation     string    `json:"operation"`
	Timestamp     time.Time `json:"timestamp"`
}

// NewTransactionChangedMessage creates a message with a fresh id.
func NewTransactionChangedMessage(owner, txID, op string, at time.Time) *TransactionChangedMessage {
	return &TransactionChangedMessage{
		MessageID:     uuid.NewString(),
		Owner:         owner,
		TransactionID: txID,
		Operation:     op,
		Timestamp:     at,
	}
}

// ToJSON converts the message to JSON bytes
func (m *TransactionChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// TransactionChangedMessageFromJSON creates a message from JSON bytes
func TransactionChangedMessageFromJSON(data []byte) (*TransactionChangedMessage, error) {
	var msg TransactionChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
