package domain

import (
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Account struct {
	ID            int64
	Phone         string
	PasswordHash  string
	ReferralCode  string
	Locale        string
	Currency      string
	Balance       decimal.Decimal
	TotalEarnings decimal.Decimal
	ReferrerID    *int64
	VIPLevel      int
	Banned        bool
	BankInfo      string

	Tasks  []*Claim
	Ledger []Transaction // newest first

	Version   int64
	CreatedAt time.Time
}

// DisplayName masks the phone number for third-party views.
func (a *Account) DisplayName() string {
	r := []rune(a.Phone)
	if len(r) <= 4 {
		return a.Phone
	}
	keep := 3
	if len(r) < 8 {
		keep = 1
	}
	masked := make([]rune, 0, len(r))
	masked = append(masked, r[:keep]...)
	for range r[keep : len(r)-4] {
		masked = append(masked, '*')
	}
	masked = append(masked, r[len(r)-4:]...)
	return string(masked)
}

func (a *Account) Claim(id uuid.UUID) *Claim {
	for _, c := range a.Tasks {
		if c.ID == id {
			return c
		}
	}
	return nil
}

func (a *Account) ClaimForPlatform(platformID int64) *Claim {
	for _, c := range a.Tasks {
		if c.PlatformID == platformID {
			return c
		}
	}
	return nil
}

func (a *Account) HasEntryKey(key string) bool {
	if key == "" {
		return false
	}
	return slices.ContainsFunc(a.Ledger, func(t Transaction) bool {
		return t.IdempotencyKey == key
	})
}

// Clone returns a deep copy that shares no mutable state with a.
func (a *Account) Clone() *Account {
	cp := *a
	if a.ReferrerID != nil {
		id := *a.ReferrerID
		cp.ReferrerID = &id
	}
	cp.Tasks = make([]*Claim, len(a.Tasks))
	for i, c := range a.Tasks {
		cc := *c
		cp.Tasks[i] = &cc
	}
	cp.Ledger = slices.Clone(a.Ledger)
	return &cp
}
