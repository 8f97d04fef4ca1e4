package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Gcbank-Online/glcbank/shared/apperrors"
	"github.com/lib/pq"
)

// ConcurrencyMessage is what callers see when a scope lost a lock race.
const ConcurrencyMessage = "Accounts are busy, retry the transfer"

// SQLSTATE codes PostgreSQL raises when a lock wait is cut short.
var concurrencyStates = map[pq.ErrorCode]bool{
	"40P01": true, // deadlock_detected
	"55P03": true, // lock_not_available (lock_timeout)
	"57014": true, // query_canceled (statement_timeout)
	"40001": true, // serialization_failure
}

// classifyError turns a driver error into an *apperrors.Error. Errors that
// already carry a code pass through unchanged.
func classifyError(ctx context.Context, op string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := apperrors.As(err); ok {
		return err
	}
	wrapped := fmt.Errorf("%s: %w", op, err)

	switch {
	case errors.Is(ctx.Err(), context.Canceled), errors.Is(err, context.Canceled):
		return apperrors.Wrap(apperrors.CodeStorage, apperrors.GenericStorageMessage, wrapped)
	case errors.Is(ctx.Err(), context.DeadlineExceeded), errors.Is(err, context.DeadlineExceeded):
		return apperrors.Wrap(apperrors.CodeConcurrencyTimeout, ConcurrencyMessage, wrapped)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && concurrencyStates[pqErr.Code] {
		return apperrors.Wrap(apperrors.CodeConcurrencyTimeout, ConcurrencyMessage, wrapped)
	}
	return apperrors.Wrap(apperrors.CodeStorage, apperrors.GenericStorageMessage, wrapped)
}
