package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Gcbank-Online/glcbank/shared/apperrors"
	"github.com/Gcbank-Online/glcbank/shared/models"
	sharedredis "github.com/Gcbank-Online/glcbank/shared/redis"
)

// AccountRefKeyPrefix namespaces cached account identities in Redis.
const AccountRefKeyPrefix = "account:ref:"

var errAccountNotFound = apperrors.New(apperrors.CodeAccountNotFound, "Account not found")

// AccountReadRepository serves unlocked account reads. Identities come from
// the Redis view cache when present; balances always come from PostgreSQL.
type AccountReadRepository struct {
	db    *sql.DB
	cache *sharedredis.ViewCache[models.AccountRef]
}

// NewAccountReadRepository accepts a nil cache, in which case every lookup
// goes to PostgreSQL.
func NewAccountReadRepository(db *sql.DB, cache *sharedredis.ViewCache[models.AccountRef]) *AccountReadRepository {
	return &AccountReadRepository{db: db, cache: cache}
}

// LookupByAccountNumber resolves an account number to its identity. The
// identity never changes after opening, so cache entries need no invalidation.
func (r *AccountReadRepository) LookupByAccountNumber(ctx context.Context, accountNumber string) (*models.AccountRef, error) {
	if r.cache == nil {
		return r.loadRef(ctx, accountNumber)
	}
	return r.cache.GetOrLoad(ctx, accountNumber, func(ctx context.Context) (*models.AccountRef, error) {
		return r.loadRef(ctx, accountNumber)
	})
}

func (r *AccountReadRepository) loadRef(ctx context.Context, accountNumber string) (*models.AccountRef, error) {
	query := `
		SELECT id, account_number, user_id
		FROM accounts
		WHERE account_number = $1
	`
	var ref models.AccountRef
	err := r.db.QueryRowContext(ctx, query, accountNumber).Scan(&ref.ID, &ref.AccountNumber, &ref.UserID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errAccountNotFound
	}
	if err != nil {
		return nil, classifyError(ctx, "lookup account", err)
	}
	return &ref, nil
}

// GetByID reads the committed state of an account without locking it.
func (r *AccountReadRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	query := `
		SELECT id, user_id, account_number, balance, created_at, updated_at
		FROM accounts
		WHERE id = $1
	`
	var account models.Account
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&account.ID, &account.UserID, &account.AccountNumber, &account.Balance,
		&account.CreatedAt, &account.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errAccountNotFound
	}
	if err != nil {
		return nil, classifyError(ctx, "get account", err)
	}
	return &account, nil
}

// ListByUserID returns a user's accounts, oldest first. The first one is the
// user's primary account.
func (r *AccountReadRepository) ListByUserID(ctx context.Context, userID string) ([]models.Account, error) {
	query := `
		SELECT id, user_id, account_number, balance, created_at, updated_at
		FROM accounts
		WHERE user_id = $1
		ORDER BY created_at ASC, account_number ASC
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, classifyError(ctx, "list accounts", err)
	}
	defer rows.Close()

	var accounts []models.Account
	for rows.Next() {
		var account models.Account
		if err := rows.Scan(
			&account.ID, &account.UserID, &account.AccountNumber, &account.Balance,
			&account.CreatedAt, &account.UpdatedAt,
		); err != nil {
			return nil, classifyError(ctx, "scan account", err)
		}
		accounts = append(accounts, account)
	}
	if err := rows.Err(); err != nil {
		return nil, classifyError(ctx, "list accounts", err)
	}
	return accounts, nil
}
