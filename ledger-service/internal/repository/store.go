package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Gcbank-Online/glcbank/shared/models"
	"go.uber.org/zap"
)

// Scope is one atomic unit of work. Everything written through a Scope
// becomes visible together when the scope commits, or not at all.
type Scope interface {
	// LockAccounts takes exclusive locks on every account whose number is
	// listed, in the order given, and returns the locked rows. Missing
	// numbers are skipped, so the result may be shorter than the input.
	LockAccounts(ctx context.Context, accountNumbers []string) ([]models.Account, error)
	// UpdateBalance sets the balance of an account locked in this scope.
	UpdateBalance(ctx context.Context, accountID string, balance int64, at time.Time) error
	// AppendEntry adds an immutable ledger entry.
	AppendEntry(ctx context.Context, entry *models.LedgerEntry) error
}

// ScopeRunner opens scopes. fn's error aborts the scope; a nil return commits it.
type ScopeRunner interface {
	RunInScope(ctx context.Context, fn func(Scope) error) error
}

// querier is satisfied by both *sql.DB and *sql.Tx so the same repository
// code serves locked writes and unlocked reads.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store runs transfer scopes as PostgreSQL transactions.
type Store struct {
	db          *sql.DB
	lockTimeout time.Duration
	logger      *zap.Logger
}

// NewStore returns a Store whose scopes wait at most lockTimeout for row
// locks before PostgreSQL aborts them.
func NewStore(db *sql.DB, lockTimeout time.Duration, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{db: db, lockTimeout: lockTimeout, logger: logger}
}

func (s *Store) RunInScope(ctx context.Context, fn func(Scope) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return classifyError(ctx, "begin transaction", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				s.logger.Warn("failed to roll back transfer scope", zap.Error(rbErr))
			}
		}
	}()

	if s.lockTimeout > 0 {
		timeout := fmt.Sprintf("%dms", s.lockTimeout.Milliseconds())
		if _, err = tx.ExecContext(ctx, `SELECT set_config('lock_timeout', $1, true)`, timeout); err != nil {
			return classifyError(ctx, "set lock timeout", err)
		}
	}

	scope := &pgScope{
		accounts: &AccountWriteRepository{q: tx},
		ledger:   &LedgerRepository{q: tx},
	}
	if err = fn(scope); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return classifyError(ctx, "commit transfer", err)
	}
	return nil
}

// pgScope binds the account and ledger repositories to one transaction.
type pgScope struct {
	accounts *AccountWriteRepository
	ledger   *LedgerRepository
}

func (s *pgScope) LockAccounts(ctx context.Context, accountNumbers []string) ([]models.Account, error) {
	return s.accounts.LockAccounts(ctx, accountNumbers)
}

func (s *pgScope) UpdateBalance(ctx context.Context, accountID string, balance int64, at time.Time) error {
	return s.accounts.UpdateBalance(ctx, accountID, balance, at)
}

func (s *pgScope) AppendEntry(ctx context.Context, entry *models.LedgerEntry) error {
	return s.ledger.Append(ctx, entry)
}
