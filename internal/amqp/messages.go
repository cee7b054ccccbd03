package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"sheetledger/internal/core"
)

// RoutingKeyEntryAppended is used as the message type header for ledger appends.
const RoutingKeyEntryAppended = "entry.appended"

// EntryAppendedMessage is published after a row has been written to a user's
// ledger spreadsheet. The amount travels as a fixed two-decimal string.
type EntryAppendedMessage struct {
	EventID    string    `json:"event_id"`
	UserEmail  string    `json:"user_email"`
	ResourceID string    `json:"resource_id"`
	Name       string    `json:"name"`
	Amount     string    `json:"amount"`
	Type       string    `json:"type"`
	Timestamp  time.Time `json:"timestamp"`
}

// NewEntryAppendedMessage creates a message for e with a fresh event id.
func NewEntryAppendedMessage(userEmail, resourceID string, e core.Entry) *EntryAppendedMessage {
	return &EntryAppendedMessage{
		EventID:    uuid.NewString(),
		UserEmail:  userEmail,
		ResourceID: resourceID,
		Name:       e.Name,
		Amount:     e.Amount.StringFixed(2),
		Type:       e.Type.String(),
		Timestamp:  time.Now(),
	}
}

// Entry rebuilds the ledger entry carried by the message.
func (m *EntryAppendedMessage) Entry() core.Entry {
	return core.NewEntry(m.Name, m.Amount, m.Type)
}

// ToJSON converts the message to JSON bytes
func (m *EntryAppendedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// EntryAppendedMessageFromJSON creates a message from JSON bytes
func EntryAppendedMessageFromJSON(data []byte) (*EntryAppendedMessage, error) {
	var msg EntryAppendedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
