package cqrs

import "github.com/shopspring/decimal"

// TransferCommand asks the engine to move Amount from one account to another.
// RequestingUserID has already been authenticated upstream.
type TransferCommand struct {
	RequestingUserID  string
	FromAccountNumber string
	ToAccountNumber   string
	Amount            decimal.Decimal
	Note              string
}
