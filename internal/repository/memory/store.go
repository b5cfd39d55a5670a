// Package memory is an in-process store used for development and tests.
package memory

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/set-night/bountyhub/internal/domain"
)

// Store keeps committed snapshots only. Readers get clones; writers work on a
// clone under the account's write lock and swap it in on success.
type Store struct {
	mu         sync.RWMutex
	accounts   map[int64]*domain.Account
	writeLocks map[int64]*sync.Mutex
	byPhone    map[string]int64
	byCode     map[string]int64
	children   map[int64][]int64
	claimOwner map[uuid.UUID]int64
	nextID     int64

	platforms      map[int64]*domain.Platform
	nextPlatformID int64

	messages map[int64][]*domain.Message
}

func New() *Store {
	return &Store{
		accounts:   make(map[int64]*domain.Account),
		writeLocks: make(map[int64]*sync.Mutex),
		byPhone:    make(map[string]int64),
		byCode:     make(map[string]int64),
		children:   make(map[int64][]int64),
		claimOwner: make(map[uuid.UUID]int64),
		platforms:  make(map[int64]*domain.Platform),
		messages:   make(map[int64][]*domain.Message),
	}
}

func (s *Store) CreateAccount(_ context.Context, acc *domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byPhone[acc.Phone]; ok {
		return domain.ErrAccountExists
	}
	if _, ok := s.byCode[acc.ReferralCode]; ok {
		return domain.ErrAccountExists
	}
	if acc.ReferrerID != nil {
		if _, ok := s.accounts[*acc.ReferrerID]; !ok {
			return domain.ErrReferrerNotFound
		}
	}

	s.nextID++
	acc.ID = s.nextID
	acc.Version = 1
	for i := range acc.Ledger {
		acc.Ledger[i].AccountID = acc.ID
	}
	for _, c := range acc.Tasks {
		c.AccountID = acc.ID
		s.claimOwner[c.ID] = acc.ID
	}

	s.accounts[acc.ID] = acc.Clone()
	s.writeLocks[acc.ID] = &sync.Mutex{}
	s.byPhone[acc.Phone] = acc.ID
	s.byCode[acc.ReferralCode] = acc.ID
	if acc.ReferrerID != nil {
		s.children[*acc.ReferrerID] = append(s.children[*acc.ReferrerID], acc.ID)
	}
	return nil
}

func (s *Store) GetAccount(_ context.Context, id int64) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	acc, ok := s.accounts[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return acc.Clone(), nil
}

func (s *Store) GetAccountByPhone(ctx context.Context, phone string) (*domain.Account, error) {
	s.mu.RLock()
	id, ok := s.byPhone[phone]
	s.mu.RUnlock()
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return s.GetAccount(ctx, id)
}

func (s *Store) GetAccountByReferralCode(ctx context.Context, code string) (*domain.Account, error) {
	s.mu.RLock()
	id, ok := s.byCode[code]
	s.mu.RUnlock()
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return s.GetAccount(ctx, id)
}

func (s *Store) ListAccounts(_ context.Context) ([]*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.Account, 0, len(s.accounts))
	for _, acc := range s.accounts {
		out = append(out, acc.Clone())
	}
	slices.SortFunc(out, func(a, b *domain.Account) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return out, nil
}

func (s *Store) Referrals(_ context.Context, referrerID int64) ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.children[referrerID]), nil
}

// UpdateAccount holds the account's write lock for the whole
// read-modify-write, so fn always sees the latest committed state.
func (s *Store) UpdateAccount(_ context.Context, id int64, fn func(acc *domain.Account) error) (*domain.Account, error) {
	s.mu.RLock()
	lock, ok := s.writeLocks[id]
	s.mu.RUnlock()
	if !ok {
		return nil, domain.ErrAccountNotFound
	}

	lock.Lock()
	defer lock.Unlock()

	s.mu.RLock()
	draft := s.accounts[id].Clone()
	s.mu.RUnlock()

	if err := fn(draft); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	draft.Version++
	for _, c := range draft.Tasks {
		s.claimOwner[c.ID] = id
	}
	// fn may have kept pointers into draft.
	s.accounts[id] = draft.Clone()
	return draft.Clone(), nil
}

func (s *Store) ClaimOwner(_ context.Context, claimID uuid.UUID) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.claimOwner[claimID]
	if !ok {
		return 0, domain.ErrClaimNotFound
	}
	return id, nil
}

func (s *Store) ClaimsByStatus(_ context.Context, status domain.ClaimStatus) ([]*domain.Claim, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.Claim
	for _, acc := range s.accounts {
		for _, c := range acc.Tasks {
			if c.Status == status {
				cp := *c
				out = append(out, &cp)
			}
		}
	}
	return out, nil
}
