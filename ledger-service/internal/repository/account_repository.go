package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Gcbank-Online/glcbank/shared/apperrors"
	"github.com/Gcbank-Online/glcbank/shared/models"
	"github.com/lib/pq"
)

// AccountWriteRepository is the locked side of the account store. It is only
// ever bound to a transaction, never to the pool.
type AccountWriteRepository struct {
	q querier
}

// LockAccounts locks every matching row with one statement. Rows are locked
// in byte-wise account number order, the same order the engine sorts into,
// so two scopes over the same pair always queue on the same row first.
func (r *AccountWriteRepository) LockAccounts(ctx context.Context, accountNumbers []string) ([]models.Account, error) {
	query := `
		SELECT id, user_id, account_number, balance, created_at, updated_at
		FROM accounts
		WHERE account_number = ANY($1)
		ORDER BY account_number COLLATE "C"
		FOR UPDATE
	`
	rows, err := r.q.QueryContext(ctx, query, pq.Array(accountNumbers))
	if err != nil {
		return nil, classifyError(ctx, "lock accounts", err)
	}
	defer rows.Close()

	accounts := make([]models.Account, 0, len(accountNumbers))
	for rows.Next() {
		var account models.Account
		if err := rows.Scan(
			&account.ID, &account.UserID, &account.AccountNumber, &account.Balance,
			&account.CreatedAt, &account.UpdatedAt,
		); err != nil {
			return nil, classifyError(ctx, "scan locked account", err)
		}
		accounts = append(accounts, account)
	}
	if err := rows.Err(); err != nil {
		return nil, classifyError(ctx, "lock accounts", err)
	}
	return accounts, nil
}

func (r *AccountWriteRepository) UpdateBalance(ctx context.Context, accountID string, balance int64, at time.Time) error {
	query := `
		UPDATE accounts
		SET balance = $2, updated_at = $3
		WHERE id = $1
	`
	result, err := r.q.ExecContext(ctx, query, accountID, balance, at)
	if err != nil {
		return classifyError(ctx, "update balance", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return classifyError(ctx, "check rows affected", err)
	}
	if rows == 0 {
		return apperrors.Wrap(apperrors.CodeStorage, apperrors.GenericStorageMessage,
			fmt.Errorf("update balance: account %s not found", accountID))
	}
	return nil
}
