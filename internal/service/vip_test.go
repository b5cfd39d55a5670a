package service_test

import (
	"testing"
	"time"

	"github.com/set-night/bountyhub/internal/config"
	"github.com/set-night/bountyhub/internal/domain"
	"github.com/set-night/bountyhub/internal/service"
	"github.com/stretchr/testify/require"
)

func TestVIPMultiTierJumpBooksOneEntry(t *testing.T) {
	h := newHarness(t)
	// th signup bonus is 80; a 520 reward lifts lifetime earnings to 600.
	u := h.registerIn(t, "+10000000001", "th", nil)
	requireAmount(t, d(80), u.TotalEarnings)
	require.Equal(t, 1, u.VIPLevel)

	res := h.complete(t, u, h.platform(t, 520, 5))
	require.NotNil(t, res.VIPBonus)
	requireAmount(t, d(5+10+25), res.VIPBonus.Amount)

	got := h.account(t, u.ID)
	require.Equal(t, 4, got.VIPLevel)
	vip := entriesOf(got, domain.TxTypeVIPBonus)
	require.Len(t, vip, 1)
	require.Equal(t, "VIP upgrade to level 4 (from 1)", vip[0].Description)
	requireAmount(t, d(80+520+40), got.Balance)
	requireAmount(t, d(80+520+40), got.TotalEarnings)
	requireLedgerConsistent(t, got)

	msgs, err := h.accounts.Messages(h.ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	require.Equal(t, domain.MessageKindVIP, msgs[0].Kind)
	requireAmount(t, d(40), msgs[0].Amount)
}

func TestVIPEvaluateIsSinglePass(t *testing.T) {
	markets, err := config.NewMarkets("en", &domain.Market{
		Locale: "en",
		Tiers: []domain.Tier{
			{Level: 2, Threshold: d(100), Bonus: d(200)},
			{Level: 3, Threshold: d(250), Bonus: d(10)},
		},
	})
	require.NoError(t, err)
	eval := service.NewTierEvaluator(markets, nil)

	acc := &domain.Account{ID: 1, Locale: "en", VIPLevel: 1, TotalEarnings: d(150), Balance: d(150)}
	tx := &service.Txn{Account: acc, Now: time.Now()}

	entry, err := eval.Evaluate(tx)
	require.NoError(t, err)
	require.NotNil(t, entry)
	requireAmount(t, d(200), entry.Amount)
	require.Equal(t, 2, acc.VIPLevel, "the bonus itself does not climb further")
	requireAmount(t, d(350), acc.TotalEarnings)

	// The next evaluation picks up the tier the bonus reached.
	entry, err = eval.Evaluate(tx)
	require.NoError(t, err)
	require.NotNil(t, entry)
	require.Equal(t, 3, acc.VIPLevel)
	require.Len(t, tx.Appended(), 2)
}

func TestVIPEvaluateNoChange(t *testing.T) {
	h := newHarness(t)

	tests := []struct {
		name     string
		level    int
		earnings int64
	}{
		{"below first threshold", 1, 99},
		{"already at reached level", 3, 300},
		{"top of configured ladder", 4, 100000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			acc := &domain.Account{Locale: "en", VIPLevel: tt.level, TotalEarnings: d(tt.earnings)}
			tx := &service.Txn{Account: acc, Now: time.Now()}

			entry, err := h.tiers.Evaluate(tx)
			require.NoError(t, err)
			require.Nil(t, entry)
			require.Equal(t, tt.level, acc.VIPLevel)
			require.Empty(t, acc.Ledger)
		})
	}
}

func TestVIPThresholdIsInclusive(t *testing.T) {
	h := newHarness(t)
	acc := &domain.Account{Locale: "en", VIPLevel: 1, TotalEarnings: d(100)}
	tx := &service.Txn{Account: acc, Now: time.Now()}

	entry, err := h.tiers.Evaluate(tx)
	require.NoError(t, err)
	require.NotNil(t, entry)
	require.Equal(t, 2, acc.VIPLevel)
	require.Equal(t, "VIP upgrade to level 2", entry.Description)
}
