package query

import (
	"context"

	"github.com/Gcbank-Online/glcbank/shared/apperrors"
	"github.com/Gcbank-Online/glcbank/shared/cqrs"
	"github.com/Gcbank-Online/glcbank/shared/models"
	"github.com/Gcbank-Online/glcbank/shared/money"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// AccountReader is the unlocked account read path.
type AccountReader interface {
	LookupByAccountNumber(ctx context.Context, accountNumber string) (*models.AccountRef, error)
	GetByID(ctx context.Context, id string) (*models.Account, error)
	ListByUserID(ctx context.Context, userID string) ([]models.Account, error)
}

// LedgerReader is the unlocked ledger read path.
type LedgerReader interface {
	ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]models.LedgerEntry, error)
}

// QueryService serves balance and history reads. It never locks and never
// writes; a read racing a transfer sees the state before or after it.
type QueryService struct {
	accounts AccountReader
	ledger   LedgerReader
}

func NewQueryService(accounts AccountReader, ledger LedgerReader) *QueryService {
	return &QueryService{accounts: accounts, ledger: ledger}
}

func (s *QueryService) GetBalance(ctx context.Context, accountID string) (*models.AccountView, error) {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return toAccountView(account), nil
}

// ListTransactions pages through an account's ledger, newest first. A zero
// limit means DefaultPageSize; larger limits are capped at MaxPageSize.
func (s *QueryService) ListTransactions(ctx context.Context, accountID string, limit, offset int) ([]models.LedgerEntryView, error) {
	limit, err := normalizePage(limit, offset)
	if err != nil {
		return nil, err
	}
	entries, err := s.ledger.ListByAccount(ctx, accountID, limit, offset)
	if err != nil {
		return nil, err
	}
	views := make([]models.LedgerEntryView, 0, len(entries))
	for _, entry := range entries {
		views = append(views, toLedgerEntryView(entry))
	}
	return views, nil
}

// GetOwnAccount returns the caller's primary account, the oldest one they own.
func (s *QueryService) GetOwnAccount(ctx context.Context, q cqrs.GetOwnAccountQuery) (*models.AccountView, error) {
	account, err := s.primaryAccount(ctx, q.UserID)
	if err != nil {
		return nil, err
	}
	return toAccountView(account), nil
}

func (s *QueryService) ListOwnTransactions(ctx context.Context, q cqrs.ListOwnTransactionsQuery) ([]models.LedgerEntryView, error) {
	if _, err := normalizePage(q.Limit, q.Offset); err != nil {
		return nil, err
	}
	account, err := s.primaryAccount(ctx, q.UserID)
	if err != nil {
		return nil, err
	}
	return s.ListTransactions(ctx, account.ID, q.Limit, q.Offset)
}

func (s *QueryService) ListAccounts(ctx context.Context, q cqrs.ListAccountsQuery) ([]models.AccountView, error) {
	accounts, err := s.accounts.ListByUserID(ctx, q.UserID)
	if err != nil {
		return nil, err
	}
	views := make([]models.AccountView, 0, len(accounts))
	for i := range accounts {
		views = append(views, *toAccountView(&accounts[i]))
	}
	return views, nil
}

// LookupAccount lets a sender confirm a recipient exists. Owner and balance
// are never exposed.
func (s *QueryService) LookupAccount(ctx context.Context, q cqrs.LookupAccountQuery) (*models.AccountLookupView, error) {
	if q.AccountNumber == "" {
		return nil, apperrors.New(apperrors.CodeValidation, "Account number is required")
	}
	ref, err := s.accounts.LookupByAccountNumber(ctx, q.AccountNumber)
	if err != nil {
		return nil, err
	}
	return &models.AccountLookupView{AccountNumber: ref.AccountNumber, AccountID: ref.ID}, nil
}

func (s *QueryService) primaryAccount(ctx context.Context, userID string) (*models.Account, error) {
	accounts, err := s.accounts.ListByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(accounts) == 0 {
		return nil, apperrors.New(apperrors.CodeAccountNotFound, "Account not found")
	}
	return &accounts[0], nil
}

func normalizePage(limit, offset int) (int, error) {
	if limit < 0 || offset < 0 {
		return 0, apperrors.New(apperrors.CodeValidation, "limit and offset must not be negative")
	}
	if limit == 0 {
		return DefaultPageSize, nil
	}
	if limit > MaxPageSize {
		return MaxPageSize, nil
	}
	return limit, nil
}

func toAccountView(a *models.Account) *models.AccountView {
	return &models.AccountView{
		AccountNumber: a.AccountNumber,
		Balance:       money.Format(a.Balance),
	}
}

func toLedgerEntryView(e models.LedgerEntry) models.LedgerEntryView {
	return models.LedgerEntryView{
		ID:           e.ID,
		TransferID:   e.TransferID,
		Amount:       money.Format(e.Amount),
		Counterparty: e.CounterpartyAccountNumber,
		Type:         e.Type,
		Note:         e.Note,
		CreatedAt:    e.CreatedAt,
	}
}
