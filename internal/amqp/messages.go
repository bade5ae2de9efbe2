package amqp

import (
	"encoding/json"
	"time"
)

// Message type values carried in the AMQP Type property for dispatch.
const (
	TypeTransactionRecorded = "ledger.transaction.recorded"
	TypeImportCompleted     = "ledger.import.completed"
)

// TransactionRecordedMessage is a lightweight notification that a
// transaction was persisted. It carries only the ID; consumers fetch the
// full row from the database.
type TransactionRecordedMessage struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}

// NewTransactionRecordedMessage creates a recorded-notification for id.
func NewTransactionRecordedMessage(id string) *TransactionRecordedMessage {
	return &TransactionRecordedMessage{
		ID:        id,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *TransactionRecordedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// TransactionRecordedMessageFromJSON creates a message from JSON bytes
func TransactionRecordedMessageFromJSON(data []byte) (*TransactionRecordedMessage, error) {
	var msg TransactionRecordedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// ImportCompletedMessage announces that a batch import finished.
type ImportCompletedMessage struct {
	SourceFile string    `json:"source_file"`
	Count      int       `json:"count"`
	Timestamp  time.Time `json:"timestamp"`
}

// NewImportCompletedMessage creates an import-completed notification.
func NewImportCompletedMessage(sourceFile string, count int) *ImportCompletedMessage {
	return &ImportCompletedMessage{
		SourceFile: sourceFile,
		Count:      count,
		Timestamp:  time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *ImportCompletedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ImportCompletedMessageFromJSON creates a message from JSON bytes
func ImportCompletedMessageFromJSON(data []byte) (*ImportCompletedMessage, error) {
	var msg ImportCompletedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
