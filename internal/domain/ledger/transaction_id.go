package ledger

import (
	"fmt"

	"github.com/google/uuid"
)

// TransactionID is a value object wrapping the UUID of a journal entry
type TransactionID struct {
	value uuid.UUID
}

// NewTransactionID creates a new TransactionID with a generated UUID
func NewTransactionID() TransactionID {
	return TransactionID{value: uuid.New()}
}

// ParseTransactionID parses a persisted TransactionID
func ParseTransactionID(id string) (TransactionID, error) {
	if id == "" {
		return TransactionID{}, fmt.Errorf("transaction_id cannot be empty")
	}
	u, err := uuid.Parse(id)
	if err != nil {
		return TransactionID{}, fmt.Errorf("invalid transaction_id format: %w", err)
	}
	return TransactionID{value: u}, nil
}

func (t TransactionID) String() string {
	if t.IsZero() {
		return ""
	}
	return t.value.String()
}

// Equals checks if two TransactionIDs are equal
func (t TransactionID) Equals(other TransactionID) bool {
	return t.value == other.value
}

// IsZero checks if the TransactionID is the zero value (uninitialized)
func (t TransactionID) IsZero() bool {
	return t.value == uuid.Nil
}
