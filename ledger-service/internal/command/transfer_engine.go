package command

import (
	"context"
	"errors"
	"math"
	"sort"
	"time"
	"unicode/utf8"

	"github.com/Gcbank-Online/glcbank/ledger-service/internal/repository"
	"github.com/Gcbank-Online/glcbank/shared/apperrors"
	"github.com/Gcbank-Online/glcbank/shared/cqrs"
	"github.com/Gcbank-Online/glcbank/shared/events"
	"github.com/Gcbank-Online/glcbank/shared/models"
	"github.com/Gcbank-Online/glcbank/shared/money"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const publishTimeout = 2 * time.Second

// EventPublisher is the outbound event stream. Publishing happens after the
// transfer commits and never affects its outcome.
type EventPublisher interface {
	Publish(ctx context.Context, stream, eventType string, data any) error
}

// TransferEngine moves funds between two accounts. Each transfer runs in one
// atomic scope: both balances and both ledger entries commit together or not
// at all. Accounts are always locked in canonical order, so two transfers over
// the same pair queue instead of deadlocking.
type TransferEngine struct {
	store     repository.ScopeRunner
	publisher EventPublisher
	logger    *zap.Logger
	tracer    trace.Tracer

	now   func() time.Time
	newID func() string
}

func NewTransferEngine(store repository.ScopeRunner, publisher EventPublisher, logger *zap.Logger) *TransferEngine {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TransferEngine{
		store:     store,
		publisher: publisher,
		logger:    logger,
		tracer:    otel.Tracer("github.com/Gcbank-Online/glcbank/ledger-service/command"),
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

func (e *TransferEngine) Execute(ctx context.Context, cmd cqrs.TransferCommand) (*models.TransferResult, error) {
	ctx, span := e.tracer.Start(ctx, "TransferEngine.Execute", trace.WithAttributes(
		attribute.String("transfer.from_account", cmd.FromAccountNumber),
		attribute.String("transfer.to_account", cmd.ToAccountNumber),
		attribute.String("transfer.amount", cmd.Amount.String()),
	))
	defer span.End()

	amount, err := validate(cmd)
	if err != nil {
		return nil, e.fail(span, cmd, err)
	}

	result, err := e.transfer(ctx, cmd, amount)
	if err != nil {
		return nil, e.fail(span, cmd, err)
	}

	span.SetAttributes(attribute.String("transfer.id", result.TransferID))
	e.logger.Info("transfer completed",
		zap.String("transfer_id", result.TransferID),
		zap.String("from_account", result.From.AccountNumber),
		zap.String("to_account", result.To.AccountNumber),
		zap.Int64("amount", amount),
	)
	e.publish(ctx, cmd, amount, result)
	return result, nil
}

func (e *TransferEngine) transfer(ctx context.Context, cmd cqrs.TransferCommand, amount int64) (*models.TransferResult, error) {
	var result *models.TransferResult

	err := e.store.RunInScope(ctx, func(scope repository.Scope) error {
		accounts, err := scope.LockAccounts(ctx, lockOrder(cmd.FromAccountNumber, cmd.ToAccountNumber))
		if err != nil {
			return err
		}

		var from, to *models.Account
		for i := range accounts {
			switch accounts[i].AccountNumber {
			case cmd.FromAccountNumber:
				from = &accounts[i]
			case cmd.ToAccountNumber:
				to = &accounts[i]
			}
		}
		if from == nil || to == nil {
			return apperrors.New(apperrors.CodeAccountNotFound, "One or both accounts not found")
		}
		if from.UserID != cmd.RequestingUserID {
			return apperrors.New(apperrors.CodeUnauthorized, "Unauthorized to transfer from this account")
		}
		if from.Balance < amount {
			return apperrors.New(apperrors.CodeInsufficientFunds, "Insufficient funds")
		}
		if to.Balance > math.MaxInt64-amount {
			return apperrors.New(apperrors.CodeValidation, "Amount exceeds the destination account limit")
		}

		now := e.now().UTC()
		from.Balance -= amount
		from.UpdatedAt = now
		to.Balance += amount
		to.UpdatedAt = now

		if err := scope.UpdateBalance(ctx, from.ID, from.Balance, now); err != nil {
			return err
		}
		if err := scope.UpdateBalance(ctx, to.ID, to.Balance, now); err != nil {
			return err
		}

		transferID := e.newID()
		debit := models.LedgerEntry{
			ID:                        e.newID(),
			AccountID:                 from.ID,
			TransferID:                transferID,
			Amount:                    -amount,
			CounterpartyAccountNumber: to.AccountNumber,
			Type:                      models.EntryTypeTransferOut,
			Note:                      cmd.Note,
			CreatedAt:                 now,
		}
		credit := models.LedgerEntry{
			ID:                        e.newID(),
			AccountID:                 to.ID,
			TransferID:                transferID,
			Amount:                    amount,
			CounterpartyAccountNumber: from.AccountNumber,
			Type:                      models.EntryTypeTransferIn,
			Note:                      cmd.Note,
			CreatedAt:                 now,
		}
		if err := scope.AppendEntry(ctx, &debit); err != nil {
			return err
		}
		if err := scope.AppendEntry(ctx, &credit); err != nil {
			return err
		}

		result = &models.TransferResult{
			TransferID: transferID,
			From:       *from,
			To:         *to,
			Debit:      debit,
			Credit:     credit,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// validate checks everything that can be checked without touching storage
// and returns the amount in minor units.
func validate(cmd cqrs.TransferCommand) (int64, error) {
	if cmd.RequestingUserID == "" {
		return 0, apperrors.New(apperrors.CodeValidation, "Requesting user is required")
	}
	if cmd.FromAccountNumber == "" || cmd.ToAccountNumber == "" {
		return 0, apperrors.New(apperrors.CodeValidation, "Source and destination accounts are required")
	}
	if cmd.FromAccountNumber == cmd.ToAccountNumber {
		return 0, apperrors.New(apperrors.CodeValidation, "Can't transfer to same account")
	}
	if utf8.RuneCountInString(cmd.Note) > models.MaxNoteLength {
		return 0, apperrors.New(apperrors.CodeValidation, "Note must be at most 500 characters")
	}
	amount, err := money.ToMinorUnits(cmd.Amount)
	if err != nil {
		return 0, apperrors.Wrap(apperrors.CodeValidation, "Amount is out of range", err)
	}
	if amount <= 0 {
		return 0, apperrors.New(apperrors.CodeValidation, "Amount must be greater than zero")
	}
	return amount, nil
}

// lockOrder returns the account numbers in the one order every scope locks
// them in: byte-wise ascending.
func lockOrder(accountNumbers ...string) []string {
	ordered := append([]string(nil), accountNumbers...)
	sort.Strings(ordered)
	return ordered
}

// fail logs err at a level matching its category and returns it with a code
// attached. Causes of storage failures stay in the log.
func (e *TransferEngine) fail(span trace.Span, cmd cqrs.TransferCommand, err error) error {
	var appErr *apperrors.Error
	if !errors.As(err, &appErr) {
		appErr = apperrors.Wrap(apperrors.CodeStorage, apperrors.GenericStorageMessage, err)
		err = appErr
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, string(appErr.Code))

	fields := []zap.Field{
		zap.String("code", string(appErr.Code)),
		zap.String("from_account", cmd.FromAccountNumber),
		zap.String("to_account", cmd.ToAccountNumber),
		zap.String("user_id", cmd.RequestingUserID),
	}
	switch appErr.Code {
	case apperrors.CodeStorage:
		e.logger.Error("transfer failed", append(fields, zap.Error(err))...)
	case apperrors.CodeConcurrencyTimeout:
		e.logger.Warn("transfer aborted by lock contention", append(fields, zap.Error(err))...)
	default:
		e.logger.Info("transfer rejected", append(fields, zap.String("reason", appErr.Message))...)
	}
	return err
}

func (e *TransferEngine) publish(ctx context.Context, cmd cqrs.TransferCommand, amount int64, result *models.TransferResult) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	err := e.publisher.Publish(ctx, events.TransferEventsStream, events.TransferCompleted, events.TransferCompletedEvent{
		TransferID:        result.TransferID,
		RequestingUserID:  cmd.RequestingUserID,
		FromAccountNumber: result.From.AccountNumber,
		ToAccountNumber:   result.To.AccountNumber,
		Amount:            amount,
		FromBalance:       result.From.Balance,
		ToBalance:         result.To.Balance,
		DebitEntryID:      result.Debit.ID,
		CreditEntryID:     result.Credit.ID,
	})
	if err != nil {
		e.logger.Warn("failed to publish transfer.completed event",
			zap.String("transfer_id", result.TransferID), zap.Error(err))
	}
}
