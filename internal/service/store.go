package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/set-night/bountyhub/internal/domain"
)

// Directory is the account collection.
//
// UpdateAccount is the single coordination point for writes: fn runs against
// a private copy of the account while the account is locked, and the copy is
// committed only if fn returns nil. Implementations must serialize concurrent
// updates of the same account. ListAccounts may leave Tasks and Ledger empty.
type Directory interface {
	CreateAccount(ctx context.Context, acc *domain.Account) error
	GetAccount(ctx context.Context, id int64) (*domain.Account, error)
	GetAccountByPhone(ctx context.Context, phone string) (*domain.Account, error)
	GetAccountByReferralCode(ctx context.Context, code string) (*domain.Account, error)
	ListAccounts(ctx context.Context) ([]*domain.Account, error)
	Referrals(ctx context.Context, referrerID int64) ([]int64, error)
	UpdateAccount(ctx context.Context, id int64, fn func(acc *domain.Account) error) (*domain.Account, error)

	ClaimOwner(ctx context.Context, claimID uuid.UUID) (int64, error)
	ClaimsByStatus(ctx context.Context, status domain.ClaimStatus) ([]*domain.Claim, error)
}

type PlatformStore interface {
	CreatePlatform(ctx context.Context, p *domain.Platform) error
	GetPlatform(ctx context.Context, id int64) (*domain.Platform, error)
	ListPlatforms(ctx context.Context) ([]*domain.Platform, error)
	SetPlatformStatus(ctx context.Context, id int64, status domain.PlatformStatus) error

	// Reserve decrements RemainingQty of an online platform in one step.
	Reserve(ctx context.Context, id int64) (*domain.Platform, error)
	Release(ctx context.Context, id int64) error
}

type MessageStore interface {
	AddMessage(ctx context.Context, m *domain.Message) error
	ListMessages(ctx context.Context, accountID int64) ([]*domain.Message, error)
	MarkMessagesRead(ctx context.Context, accountID int64) error
}

// KeyGuard records request keys. Acquire returns false when key was seen within ttl.
// Release forgets a key so a failed request can be re-issued.
type KeyGuard interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}
