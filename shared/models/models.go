package models

import "time"

// Ledger entry types. A transfer always produces exactly one of each.
const (
	EntryTypeTransferOut = "transfer_out"
	EntryTypeTransferIn  = "transfer_in"
)

// MaxNoteLength bounds the optional note carried on both ledger entries.
const MaxNoteLength = 500

// Account is the write model of a bank account. Balance is in minor units.
type Account struct {
	ID            string    `json:"id"`
	AccountNumber string    `json:"accountNumber"`
	UserID        string    `json:"-"`
	Balance       int64     `json:"balance"`
	CreatedAt     time.Time `json:"createdTimestamp"`
	UpdatedAt     time.Time `json:"updatedTimestamp"`
}

// AccountRef is the immutable identity of an account. It is safe to cache
// indefinitely because none of its fields change after account opening.
type AccountRef struct {
	ID            string `json:"id"`
	AccountNumber string `json:"accountNumber"`
	UserID        string `json:"userId"`
}

// LedgerEntry is one signed, append-only balance change on one account.
// Negative amounts are debits.
type LedgerEntry struct {
	ID                        string    `json:"id"`
	AccountID                 string    `json:"accountId"`
	TransferID                string    `json:"transferId"`
	Amount                    int64     `json:"amount"`
	CounterpartyAccountNumber string    `json:"counterpartyAccountNumber"`
	Type                      string    `json:"type"`
	Note                      string    `json:"note,omitempty"`
	CreatedAt                 time.Time `json:"createdTimestamp"`
}

// TransferResult is what the engine returns after a committed transfer.
type TransferResult struct {
	TransferID string
	From       Account
	To         Account
	Debit      LedgerEntry
	Credit     LedgerEntry
}
