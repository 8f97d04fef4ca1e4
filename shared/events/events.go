package events

import "time"

// Event types
const (
	TransferCompleted = "transfer.completed"
)

// Stream names
const (
	TransferEventsStream = "transfer.events"
)

// Event is the envelope written to a stream.
type Event struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

// TransferCompletedEvent is published after a transfer commits. Amounts and
// balances are in minor units.
type TransferCompletedEvent struct {
	TransferID        string `json:"transferId"`
	RequestingUserID  string `json:"requestingUserId"`
	FromAccountNumber string `json:"fromAccountNumber"`
	ToAccountNumber   string `json:"toAccountNumber"`
	Amount            int64  `json:"amount"`
	FromBalance       int64  `json:"fromBalance"`
	ToBalance         int64  `json:"toBalance"`
	DebitEntryID      string `json:"debitEntryId"`
	CreditEntryID     string `json:"creditEntryId"`
}
