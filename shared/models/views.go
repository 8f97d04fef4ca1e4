package models

import "time"

// AccountView is the caller-facing projection of an account. Balance is a
// fixed two-decimal string so no float ever reaches the wire.
type AccountView struct {
	AccountNumber string `json:"account_number"`
	Balance       string `json:"balance"`
}

// AccountLookupView answers "does this account number exist" for transfer
// recipients. It never exposes the owner or balance.
type AccountLookupView struct {
	AccountNumber string `json:"account_number"`
	AccountID     string `json:"account_id"`
}

// LedgerEntryView is the read projection of a ledger entry.
type LedgerEntryView struct {
	ID           string    `json:"id"`
	TransferID   string    `json:"transfer_id"`
	Amount       string    `json:"amount"`
	Counterparty string    `json:"counterparty"`
	Type         string    `json:"type"`
	Note         string    `json:"note,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
