package cqrs

// GetOwnAccountQuery fetches the caller's primary account.
type GetOwnAccountQuery struct {
	UserID string
}

// ListAccountsQuery fetches all accounts belonging to a user.
type ListAccountsQuery struct {
	UserID string
}

// LookupAccountQuery resolves an account number to its public identity.
type LookupAccountQuery struct {
	AccountNumber string
}

// ListOwnTransactionsQuery pages through the ledger of the caller's primary
// account, newest first.
type ListOwnTransactionsQuery struct {
	UserID string
	Limit  int
	Offset int
}
