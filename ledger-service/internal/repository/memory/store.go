// Package memory is an in-process implementation of the ledger stores. It
// follows the same lock protocol as the PostgreSQL store: one exclusive lock
// per account, taken in the order the caller lists them, held until the
// scope ends. Writes are staged and applied together at commit.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Gcbank-Online/glcbank/ledger-service/internal/repository"
	"github.com/Gcbank-Online/glcbank/shared/apperrors"
	"github.com/Gcbank-Online/glcbank/shared/models"
	"github.com/google/uuid"
)

var errAccountNotFound = apperrors.New(apperrors.CodeAccountNotFound, "Account not found")

type Store struct {
	mu          sync.Mutex
	accounts    map[string]*models.Account // by id
	byNumber    map[string]string          // account number -> id
	order       []string                   // ids, oldest first
	entries     []models.LedgerEntry
	locks       map[string]chan struct{}
	lockTimeout time.Duration
}

// NewStore returns an empty store. Lock waits longer than lockTimeout fail
// with CONCURRENCY_TIMEOUT; zero waits until ctx ends.
func NewStore(lockTimeout time.Duration) *Store {
	return &Store{
		accounts:    make(map[string]*models.Account),
		byNumber:    make(map[string]string),
		locks:       make(map[string]chan struct{}),
		lockTimeout: lockTimeout,
	}
}

// OpenAccount creates an account. Account opening lives outside the ledger;
// this exists to seed the store.
func (s *Store) OpenAccount(userID, accountNumber string, balance int64) (*models.Account, error) {
	if balance < 0 {
		return nil, fmt.Errorf("open account %s: negative balance", accountNumber)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byNumber[accountNumber]; exists {
		return nil, fmt.Errorf("open account %s: already exists", accountNumber)
	}
	now := time.Now().UTC()
	account := &models.Account{
		ID:            uuid.NewString(),
		AccountNumber: accountNumber,
		UserID:        userID,
		Balance:       balance,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	s.accounts[account.ID] = account
	s.byNumber[accountNumber] = account.ID
	s.order = append(s.order, account.ID)
	s.locks[account.ID] = make(chan struct{}, 1)

	copied := *account
	return &copied, nil
}

func (s *Store) RunInScope(ctx context.Context, fn func(repository.Scope) error) error {
	sc := &scope{
		store:    s,
		held:     make(map[string]bool),
		balances: make(map[string]balanceWrite),
	}
	defer sc.release()

	if err := fn(sc); err != nil {
		return err
	}
	return sc.commit(ctx)
}

// LookupByAccountNumber returns the identity of an account.
func (s *Store) LookupByAccountNumber(_ context.Context, accountNumber string) (*models.AccountRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byNumber[accountNumber]
	if !ok {
		return nil, errAccountNotFound
	}
	account := s.accounts[id]
	return &models.AccountRef{ID: account.ID, AccountNumber: account.AccountNumber, UserID: account.UserID}, nil
}

func (s *Store) GetByID(_ context.Context, id string) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[id]
	if !ok {
		return nil, errAccountNotFound
	}
	copied := *account
	return &copied, nil
}

func (s *Store) ListByUserID(_ context.Context, userID string) ([]models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var accounts []models.Account
	for _, id := range s.order {
		if account := s.accounts[id]; account.UserID == userID {
			accounts = append(accounts, *account)
		}
	}
	return accounts, nil
}

// ListByAccount pages through an account's committed entries, newest first.
func (s *Store) ListByAccount(_ context.Context, accountID string, limit, offset int) ([]models.LedgerEntry, error) {
	s.mu.Lock()
	var matched []models.LedgerEntry
	for _, entry := range s.entries {
		if entry.AccountID == accountID {
			matched = append(matched, entry)
		}
	}
	s.mu.Unlock()

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID > matched[j].ID
	})
	if offset >= len(matched) {
		return []models.LedgerEntry{}, nil
	}
	matched = matched[offset:]
	if limit < len(matched) {
		matched = matched[:limit]
	}
	return matched, nil
}

// Entries returns every committed ledger entry in append order.
func (s *Store) Entries() []models.LedgerEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.LedgerEntry(nil), s.entries...)
}

// Account returns the committed state of an account by number.
func (s *Store) Account(accountNumber string) (models.Account, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byNumber[accountNumber]
	if !ok {
		return models.Account{}, false
	}
	return *s.accounts[id], true
}

// TotalBalance sums every committed balance.
func (s *Store) TotalBalance() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	var total int64
	for _, account := range s.accounts {
		total += account.Balance
	}
	return total
}

type balanceWrite struct {
	balance int64
	at      time.Time
}

type scope struct {
	store    *Store
	held     map[string]bool // account ids locked by this scope
	lockSeq  []string
	balances map[string]balanceWrite
	entries  []models.LedgerEntry
	done     bool
}

func (sc *scope) LockAccounts(ctx context.Context, accountNumbers []string) ([]models.Account, error) {
	if sc.done {
		return nil, errScopeDone
	}
	accounts := make([]models.Account, 0, len(accountNumbers))
	for _, number := range accountNumbers {
		sc.store.mu.Lock()
		id, ok := sc.store.byNumber[number]
		lock := sc.store.locks[id]
		sc.store.mu.Unlock()
		if !ok {
			continue
		}

		if !sc.held[id] {
			if err := sc.acquire(ctx, lock); err != nil {
				return nil, err
			}
			sc.held[id] = true
			sc.lockSeq = append(sc.lockSeq, id)
		}

		sc.store.mu.Lock()
		accounts = append(accounts, *sc.store.accounts[id])
		sc.store.mu.Unlock()
	}
	return accounts, nil
}

func (sc *scope) acquire(ctx context.Context, lock chan struct{}) error {
	var timeout <-chan time.Time
	if sc.store.lockTimeout > 0 {
		timer := time.NewTimer(sc.store.lockTimeout)
		defer timer.Stop()
		timeout = timer.C
	}
	select {
	case lock <- struct{}{}:
		return nil
	case <-timeout:
		return apperrors.Wrap(apperrors.CodeConcurrencyTimeout, repository.ConcurrencyMessage,
			errors.New("lock accounts: lock wait timed out"))
	case <-ctx.Done():
		return contextError(ctx.Err())
	}
}

func (sc *scope) UpdateBalance(_ context.Context, accountID string, balance int64, at time.Time) error {
	if sc.done {
		return errScopeDone
	}
	if !sc.held[accountID] {
		return storageError(fmt.Errorf("update balance: account %s not locked in scope", accountID))
	}
	sc.balances[accountID] = balanceWrite{balance: balance, at: at}
	return nil
}

func (sc *scope) AppendEntry(_ context.Context, entry *models.LedgerEntry) error {
	if sc.done {
		return errScopeDone
	}
	if !sc.held[entry.AccountID] {
		return storageError(fmt.Errorf("append ledger entry: account %s not locked in scope", entry.AccountID))
	}
	sc.entries = append(sc.entries, *entry)
	return nil
}

// commit applies staged writes in one critical section. A scope whose
// context has ended is rolled back instead, as database/sql does.
func (sc *scope) commit(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return contextError(err)
	}
	for id, write := range sc.balances {
		if write.balance < 0 {
			return storageError(fmt.Errorf("commit transfer: account %s balance would be negative", id))
		}
	}

	sc.store.mu.Lock()
	defer sc.store.mu.Unlock()
	for id, write := range sc.balances {
		account := sc.store.accounts[id]
		account.Balance = write.balance
		account.UpdatedAt = write.at
	}
	sc.store.entries = append(sc.store.entries, sc.entries...)
	return nil
}

func (sc *scope) release() {
	sc.done = true
	for i := len(sc.lockSeq) - 1; i >= 0; i-- {
		sc.store.mu.Lock()
		lock := sc.store.locks[sc.lockSeq[i]]
		sc.store.mu.Unlock()
		<-lock
	}
	sc.lockSeq = nil
}

var errScopeDone = storageError(errors.New("scope already finished"))

func storageError(err error) error {
	return apperrors.Wrap(apperrors.CodeStorage, apperrors.GenericStorageMessage, err)
}

func contextError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.Wrap(apperrors.CodeConcurrencyTimeout, repository.ConcurrencyMessage, err)
	}
	return storageError(err)
}
