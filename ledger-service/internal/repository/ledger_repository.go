package repository

import (
	"context"
	"database/sql"

	"github.com/Gcbank-Online/glcbank/shared/models"
)

// LedgerRepository is the append-only ledger store. Bound to a transaction it
// appends entries; bound to the pool it serves history reads.
type LedgerRepository struct {
	q querier
}

func NewLedgerRepository(db *sql.DB) *LedgerRepository {
	return &LedgerRepository{q: db}
}

func (r *LedgerRepository) Append(ctx context.Context, entry *models.LedgerEntry) error {
	query := `
		INSERT INTO ledger_entries (id, account_id, transfer_id, amount, counterparty_account_number, type, note, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.q.ExecContext(ctx, query,
		entry.ID, entry.AccountID, entry.TransferID, entry.Amount,
		entry.CounterpartyAccountNumber, entry.Type, nullString(entry.Note), entry.CreatedAt,
	)
	if err != nil {
		return classifyError(ctx, "append ledger entry", err)
	}
	return nil
}

// ListByAccount pages through an account's entries, newest first.
func (r *LedgerRepository) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]models.LedgerEntry, error) {
	query := `
		SELECT id, account_id, transfer_id, amount, counterparty_account_number, type, note, created_at
		FROM ledger_entries
		WHERE account_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.q.QueryContext(ctx, query, accountID, limit, offset)
	if err != nil {
		return nil, classifyError(ctx, "list ledger entries", err)
	}
	defer rows.Close()

	entries := make([]models.LedgerEntry, 0, limit)
	for rows.Next() {
		var entry models.LedgerEntry
		var note sql.NullString
		if err := rows.Scan(
			&entry.ID, &entry.AccountID, &entry.TransferID, &entry.Amount,
			&entry.CounterpartyAccountNumber, &entry.Type, &note, &entry.CreatedAt,
		); err != nil {
			return nil, classifyError(ctx, "scan ledger entry", err)
		}
		entry.Note = note.String
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, classifyError(ctx, "list ledger entries", err)
	}
	return entries, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: s, Valid: true}
}
