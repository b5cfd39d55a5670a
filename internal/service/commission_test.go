package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/set-night/bountyhub/internal/domain"
	"github.com/set-night/bountyhub/internal/service"
	"github.com/stretchr/testify/require"
)

// chain registers root <- ... <- leaf and returns them root first.
func (h *harness) chain(t *testing.T, n int) []*domain.Account {
	t.Helper()
	var out []*domain.Account
	var parent *domain.Account
	for i := range n {
		acc := h.register(t, "+2000000000"+string(rune('0'+i)), parent)
		out = append(out, acc)
		parent = acc
	}
	return out
}

func TestCommissionPaysThreeGenerationsOfOriginalReward(t *testing.T) {
	h := newHarness(t)
	// E <- C <- B <- A <- U: E sits four levels above U.
	accs := h.chain(t, 5)
	e, c, b, a, u := accs[0], accs[1], accs[2], accs[3], accs[4]

	res := h.complete(t, u, h.platform(t, 100, 10))
	require.NoError(t, res.CommissionErr)
	require.Len(t, res.Commissions, 3)

	want := map[int64]int64{a.ID: 20, b.ID: 10, c.ID: 5}
	for i, credit := range res.Commissions {
		require.Equal(t, i+1, credit.Level)
		require.False(t, credit.Duplicate)
		requireAmount(t, d(want[credit.AccountID]), credit.Amount)
	}

	for id, amount := range want {
		acc := h.account(t, id)
		bonuses := entriesOf(acc, domain.TxTypeReferralBonus)
		require.Len(t, bonuses, 1)
		requireAmount(t, d(amount), bonuses[0].Amount)
		requireAmount(t, d(50+amount), acc.Balance)
		requireLedgerConsistent(t, acc)
	}

	require.Empty(t, entriesOf(h.account(t, e.ID), domain.TxTypeReferralBonus))
	require.Contains(t, entriesOf(h.account(t, a.ID), domain.TxTypeReferralBonus)[0].Description, "Level 1 commission")
	require.Contains(t, entriesOf(h.account(t, c.ID), domain.TxTypeReferralBonus)[0].Description, "Level 3 commission")
}

func TestCommissionZeroRewardCreditsNobody(t *testing.T) {
	h := newHarness(t)
	accs := h.chain(t, 4)

	res := h.complete(t, accs[3], h.platform(t, 0, 10))
	require.NoError(t, res.CommissionErr)
	require.Empty(t, res.Commissions)

	for _, acc := range accs[:3] {
		require.Empty(t, entriesOf(h.account(t, acc.ID), domain.TxTypeReferralBonus))
	}
	u := h.account(t, accs[3].ID)
	require.Len(t, entriesOf(u, domain.TxTypeTaskReward), 1)
	requireAmount(t, d(50), u.Balance)
}

func TestCommissionShortChainStopsAtRoot(t *testing.T) {
	h := newHarness(t)
	accs := h.chain(t, 2)
	a, u := accs[0], accs[1]

	res := h.complete(t, u, h.platform(t, 100, 10))
	require.NoError(t, res.CommissionErr)
	require.Len(t, res.Commissions, 1)
	require.Equal(t, a.ID, res.Commissions[0].AccountID)

	// No upline at all.
	loner := h.register(t, "+30000000001", nil)
	res = h.complete(t, loner, h.platform(t, 100, 10))
	require.NoError(t, res.CommissionErr)
	require.Empty(t, res.Commissions)
}

func TestCommissionFanOutTriggersUplineVIP(t *testing.T) {
	h := newHarness(t)
	accs := h.chain(t, 2)
	a, u := accs[0], accs[1]

	// 20% of 250 lifts A from 50 to 100 lifetime earnings.
	h.complete(t, u, h.platform(t, 250, 10))

	got := h.account(t, a.ID)
	require.Equal(t, 2, got.VIPLevel)
	vip := entriesOf(got, domain.TxTypeVIPBonus)
	require.Len(t, vip, 1)
	requireAmount(t, d(5), vip[0].Amount)
}

// brokenDirectory fails every write to one account.
type brokenDirectory struct {
	service.Directory
	broken int64
}

var errStorage = errors.New("storage unavailable")

func (b *brokenDirectory) UpdateAccount(ctx context.Context, id int64, fn func(*domain.Account) error) (*domain.Account, error) {
	if id == b.broken {
		return nil, errStorage
	}
	return b.Directory.UpdateAccount(ctx, id, fn)
}

func TestCommissionFailureKeepsOwnerReward(t *testing.T) {
	broken := &brokenDirectory{}
	h := newHarnessWith(t, func(dir service.Directory) service.Directory {
		broken.Directory = dir
		return broken
	})
	accs := h.chain(t, 4)
	c, b, a, u := accs[0], accs[1], accs[2], accs[3]
	broken.broken = b.ID

	res := h.complete(t, u, h.platform(t, 100, 10))
	require.ErrorIs(t, res.CommissionErr, errStorage)
	require.Len(t, res.Commissions, 1)
	require.Equal(t, a.ID, res.Commissions[0].AccountID)

	owner := h.account(t, u.ID)
	require.Len(t, entriesOf(owner, domain.TxTypeTaskReward), 1)
	require.Equal(t, domain.ClaimCompleted, owner.Tasks[0].Status)
	require.Empty(t, entriesOf(h.account(t, c.ID), domain.TxTypeReferralBonus))

	// Once storage recovers the retry fills in the missing levels only.
	broken.broken = 0
	credits, err := h.tasks.RetryFanOut(h.ctx, res.Claim.ID)
	require.NoError(t, err)
	require.Len(t, credits, 3)
	require.True(t, credits[0].Duplicate)
	require.False(t, credits[1].Duplicate)
	require.False(t, credits[2].Duplicate)

	require.Len(t, entriesOf(h.account(t, a.ID), domain.TxTypeReferralBonus), 1)
	require.Len(t, entriesOf(h.account(t, b.ID), domain.TxTypeReferralBonus), 1)
	require.Len(t, entriesOf(h.account(t, c.ID), domain.TxTypeReferralBonus), 1)
}

func TestRetryFanOutRequiresCompletedClaim(t *testing.T) {
	h := newHarness(t)
	u := h.register(t, "+10000000001", nil)
	claim := h.submitted(t, u, h.platform(t, 100, 10))

	_, err := h.tasks.RetryFanOut(h.ctx, claim.ID)
	require.ErrorIs(t, err, domain.ErrInvalidState)
}
