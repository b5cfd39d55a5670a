package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/set-night/bountyhub/internal/domain"
	"github.com/set-night/bountyhub/internal/events"
	"github.com/set-night/bountyhub/internal/metrics"
	"github.com/shopspring/decimal"
)

// Entry is a ledger entry request. Empty Status means success.
type Entry struct {
	Type        domain.TxType
	Amount      decimal.Decimal
	Description string
	Status      domain.TxStatus
	Key         string
}

// CommitHook runs after an account update with ledger entries has been committed.
type CommitHook func(ctx context.Context, acc *domain.Account, entries []domain.Transaction)

type LedgerService struct {
	dir   Directory
	bus   *events.Bus
	hooks []CommitHook
	now   func() time.Time
}

func NewLedgerService(dir Directory, bus *events.Bus) *LedgerService {
	return &LedgerService{dir: dir, bus: bus, now: time.Now}
}

// OnCommit registers h. Not safe to call once the service is in use.
func (s *LedgerService) OnCommit(h CommitHook) {
	s.hooks = append(s.hooks, h)
}

// Txn is the in-flight state of one account update.
type Txn struct {
	Account  *domain.Account
	Now      time.Time
	appended []domain.Transaction
}

// Append adds an entry to the account and applies it to the running balance
// and lifetime earnings.
func (t *Txn) Append(e Entry) (domain.Transaction, error) {
	if t.Account.HasEntryKey(e.Key) {
		return domain.Transaction{}, fmt.Errorf("%s: %w", e.Key, domain.ErrDuplicateTrigger)
	}
	status := e.Status
	if status == "" {
		status = domain.TxStatusSuccess
	}

	entry := domain.Transaction{
		ID:             uuid.New(),
		AccountID:      t.Account.ID,
		Type:           e.Type,
		Amount:         e.Amount,
		Description:    e.Description,
		Status:         status,
		IdempotencyKey: e.Key,
		CreatedAt:      t.Now,
	}
	applyEntry(t.Account, entry)

	t.Account.Ledger = append([]domain.Transaction{entry}, t.Account.Ledger...)
	t.appended = append(t.appended, entry)
	return entry, nil
}

// Appended returns the entries added so far in this update.
func (t *Txn) Appended() []domain.Transaction {
	return t.appended
}

// applyEntry folds entry into the account aggregates. Pending debits hold
// funds immediately; failed entries never touch the balance.
func applyEntry(acc *domain.Account, entry domain.Transaction) {
	switch entry.Status {
	case domain.TxStatusSuccess:
		acc.Balance = acc.Balance.Add(entry.Amount)
		if entry.Amount.IsPositive() {
			acc.TotalEarnings = acc.TotalEarnings.Add(entry.Amount)
		}
	case domain.TxStatusPending:
		if entry.Amount.IsNegative() {
			acc.Balance = acc.Balance.Add(entry.Amount)
		}
	}
}

// Update runs fn as one account transaction and publishes the entries it
// appended once they are committed.
func (s *LedgerService) Update(ctx context.Context, accountID int64, fn func(tx *Txn) error) (*domain.Account, []domain.Transaction, error) {
	var appended []domain.Transaction
	acc, err := s.dir.UpdateAccount(ctx, accountID, func(acc *domain.Account) error {
		tx := &Txn{Account: acc, Now: s.now()}
		if err := fn(tx); err != nil {
			return err
		}
		appended = tx.appended
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	s.committed(ctx, acc, appended)
	return acc, appended, nil
}

// Append writes a single entry to accountID.
func (s *LedgerService) Append(ctx context.Context, accountID int64, e Entry) (domain.Transaction, error) {
	var entry domain.Transaction
	_, _, err := s.Update(ctx, accountID, func(tx *Txn) error {
		var err error
		entry, err = tx.Append(e)
		return err
	})
	if err != nil {
		return domain.Transaction{}, err
	}
	return entry, nil
}

// Entries returns the account ledger, newest first.
func (s *LedgerService) Entries(ctx context.Context, accountID int64, limit int) ([]domain.Transaction, error) {
	acc, err := s.dir.GetAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(acc.Ledger) > limit {
		return acc.Ledger[:limit], nil
	}
	return acc.Ledger, nil
}

func (s *LedgerService) committed(ctx context.Context, acc *domain.Account, entries []domain.Transaction) {
	if len(entries) == 0 {
		return
	}
	for _, e := range entries {
		metrics.ObserveEntry(e)
	}
	if s.bus != nil {
		evs := make([]domain.LedgerEvent, 0, len(entries))
		for _, e := range entries {
			evs = append(evs, domain.LedgerEvent{
				Entry:         e,
				Balance:       acc.Balance,
				TotalEarnings: acc.TotalEarnings,
				VIPLevel:      acc.VIPLevel,
			})
		}
		s.bus.Publish(evs...)
	}
	for _, h := range s.hooks {
		h(ctx, acc, entries)
	}
}
