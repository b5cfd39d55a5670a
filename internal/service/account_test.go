package service_test

import (
	"testing"

	"github.com/set-night/bountyhub/internal/config"
	"github.com/set-night/bountyhub/internal/domain"
	"github.com/set-night/bountyhub/internal/service"
	"github.com/stretchr/testify/require"
)

func TestRegisterCreatesAccountInMarket(t *testing.T) {
	h := newHarness(t)

	acc := h.registerIn(t, "+66812345678", "th", nil)
	require.NotZero(t, acc.ID)
	require.Equal(t, "th", acc.Locale)
	require.Equal(t, "฿", acc.Currency)
	require.Equal(t, config.MinVIPLevel, acc.VIPLevel)
	require.Len(t, acc.ReferralCode, config.ReferralCodeLength)
	require.Nil(t, acc.ReferrerID)
	require.NotEqual(t, "secret", acc.PasswordHash)

	require.Len(t, acc.Ledger, 1)
	require.Equal(t, domain.TxTypeSystemBonus, acc.Ledger[0].Type)
	require.Equal(t, acc.ID, acc.Ledger[0].AccountID)
	requireAmount(t, d(80), acc.Balance)
	requireAmount(t, d(80), acc.TotalEarnings)

	// Unknown locales land in the default market.
	other := h.registerIn(t, "+10000000002", "xx", nil)
	require.Equal(t, "en", other.Locale)
	require.Equal(t, "$", other.Currency)
}

func TestRegisterWithoutSignupBonus(t *testing.T) {
	markets, err := config.NewMarkets("en", &domain.Market{Locale: "en", Currency: "$"})
	require.NoError(t, err)
	h := newHarness(t)
	accounts := service.NewAccountService(h.store, h.ledger, h.store, markets)

	acc, err := accounts.Register(h.ctx, service.RegisterParams{Phone: "+10000000001", Password: "pw"})
	require.NoError(t, err)
	require.Empty(t, acc.Ledger)
	require.True(t, acc.Balance.IsZero())
}

func TestRegisterErrors(t *testing.T) {
	h := newHarness(t)
	h.register(t, "+10000000001", nil)

	tests := []struct {
		name   string
		params service.RegisterParams
		want   error
	}{
		{"duplicate phone", service.RegisterParams{Phone: "+10000000001", Password: "pw"}, domain.ErrAccountExists},
		{"unknown invite code", service.RegisterParams{Phone: "+10000000002", Password: "pw", InviteCode: "NOPE42"}, domain.ErrReferrerNotFound},
		{"missing password", service.RegisterParams{Phone: "+10000000003"}, domain.ErrInvalidCredentials},
		{"missing phone", service.RegisterParams{Password: "pw"}, domain.ErrInvalidCredentials},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.accounts.Register(h.ctx, tt.params)
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestRegisterLinksReferrer(t *testing.T) {
	h := newHarness(t)
	a := h.register(t, "+10000000001", nil)
	u := h.register(t, "+10000000002", a)

	require.NotNil(t, u.ReferrerID)
	require.Equal(t, a.ID, *u.ReferrerID)
	require.NotEqual(t, a.ReferralCode, u.ReferralCode)

	ids, err := h.store.Referrals(h.ctx, a.ID)
	require.NoError(t, err)
	require.Equal(t, []int64{u.ID}, ids)
}

func TestAuthenticate(t *testing.T) {
	h := newHarness(t)
	acc := h.register(t, "+10000000001", nil)

	got, err := h.accounts.Authenticate(h.ctx, "+10000000001", "secret")
	require.NoError(t, err)
	require.Equal(t, acc.ID, got.ID)

	_, err = h.accounts.Authenticate(h.ctx, "+10000000001", "wrong")
	require.ErrorIs(t, err, domain.ErrInvalidCredentials)
	_, err = h.accounts.Authenticate(h.ctx, "+19999999999", "secret")
	require.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = h.accounts.SetBanned(h.ctx, acc.ID, true)
	require.NoError(t, err)
	_, err = h.accounts.Authenticate(h.ctx, "+10000000001", "secret")
	require.ErrorIs(t, err, domain.ErrAccountBanned)
}

func TestTeamStats(t *testing.T) {
	h := newHarness(t)
	accs := h.chain(t, 4)
	root, l1 := accs[0], accs[1]
	h.register(t, "+50000000001", root)

	h.complete(t, accs[3], h.platform(t, 100, 5))

	stats, err := h.accounts.Team(h.ctx, root.ID)
	require.NoError(t, err)
	require.Equal(t, [config.MaxCommissionLevel]int{2, 1, 1}, stats.Levels)
	require.Equal(t, 4, stats.Total)
	requireAmount(t, d(0), stats.Commissions[0])
	requireAmount(t, d(0), stats.Commissions[1])
	requireAmount(t, d(5), stats.Commissions[2])

	stats, err = h.accounts.Team(h.ctx, l1.ID)
	require.NoError(t, err)
	require.Equal(t, [config.MaxCommissionLevel]int{1, 1, 0}, stats.Levels)
	requireAmount(t, d(10), stats.Commissions[1])
}

func TestListAccountsSorting(t *testing.T) {
	h := newHarness(t)
	first := h.register(t, "+10000000001", nil)
	second := h.register(t, "+10000000002", nil)
	_, err := h.ledger.Append(h.ctx, first.ID, service.Entry{Type: domain.TxTypeAdminGift, Amount: d(10)})
	require.NoError(t, err)

	byBalance, err := h.accounts.List(h.ctx, service.AccountSortBalance)
	require.NoError(t, err)
	require.Equal(t, first.ID, byBalance[0].ID)

	newest, err := h.accounts.List(h.ctx, service.AccountSortNewest)
	require.NoError(t, err)
	require.Equal(t, second.ID, newest[0].ID)
}
