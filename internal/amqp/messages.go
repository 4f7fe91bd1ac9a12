package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// Operations carried by change events.
const (
	OpAdd            = "add"
	OpEdit           = "edit"
	OpRemove         = "remove"
	OpCategoryAdd    = "category_add"
	OpCategoryDelete = "category_delete"
	OpImport         = "import"
)

// LedgerChangedMessage is the lightweight event published after every
// mutation. Consumers fetch the authoritative state from the snapshot
// store; the message only says that something changed and roughly what.
type LedgerChangedMessage struct {
	Op        string    `json:"op"`
	ID        int64     `json:"id,omitempty"` // transaction id when the op targets one
	Timestamp time.Time `json:"timestamp"`
}

func NewLedgerChangedMessage(op string, id int64) *LedgerChangedMessage {
	return &LedgerChangedMessage{
		Op:        op,
		ID:        id,
		Timestamp: time.Now().UTC(),
	}
}

func (m *LedgerChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func LedgerChangedMessageFromJSON(data []byte) (*LedgerChangedMessage, error) {
	var m LedgerChangedMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("unmarshal ledger change message: %w", err)
	}
	return &m, nil
}
