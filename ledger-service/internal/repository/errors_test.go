package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/Gcbank-Online/glcbank/shared/apperrors"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestClassifyError(t *testing.T) {
	canceled, cancel := context.WithCancel(context.Background())
	cancel()

	tests := []struct {
		name string
		ctx  context.Context
		err  error
		want apperrors.Code
	}{
		{"deadlock", context.Background(), &pq.Error{Code: "40P01"}, apperrors.CodeConcurrencyTimeout},
		{"lock timeout", context.Background(), &pq.Error{Code: "55P03"}, apperrors.CodeConcurrencyTimeout},
		{"statement timeout", context.Background(), fmt.Errorf("exec: %w", &pq.Error{Code: "57014"}), apperrors.CodeConcurrencyTimeout},
		{"serialization failure", context.Background(), &pq.Error{Code: "40001"}, apperrors.CodeConcurrencyTimeout},
		{"check violation", context.Background(), &pq.Error{Code: "23514"}, apperrors.CodeStorage},
		{"connection loss", context.Background(), errors.New("driver: bad connection"), apperrors.CodeStorage},
		{"deadline", context.Background(), context.DeadlineExceeded, apperrors.CodeConcurrencyTimeout},
		{"caller went away", canceled, &pq.Error{Code: "57014"}, apperrors.CodeStorage},
		{"tx done", context.Background(), sql.ErrTxDone, apperrors.CodeStorage},
		{"already classified", context.Background(), apperrors.New(apperrors.CodeAccountNotFound, "Account not found"), apperrors.CodeAccountNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyError(tt.ctx, "op", tt.err)
			assert.Equal(t, tt.want, apperrors.CodeOf(got))
			assert.ErrorIs(t, got, tt.err)
		})
	}

	assert.NoError(t, classifyError(context.Background(), "op", nil))
}
