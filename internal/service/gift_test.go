package service_test

import (
	"testing"

	"github.com/set-night/bountyhub/internal/domain"
	"github.com/set-night/bountyhub/internal/service"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestGiftToOneAccount(t *testing.T) {
	h := newHarness(t)
	u := h.register(t, "+10000000001", nil)
	v := h.register(t, "+10000000002", nil)

	res, err := h.gifts.Send(h.ctx, service.Gift{
		Target: &u.ID,
		Title:  "Festival bonus",
		Body:   "Thanks for staying with us",
		Amount: d(25),
	})
	require.NoError(t, err)
	require.Equal(t, 1, res.Delivered)

	got := h.account(t, u.ID)
	gifts := entriesOf(got, domain.TxTypeAdminGift)
	require.Len(t, gifts, 1)
	require.Equal(t, "Festival bonus", gifts[0].Description)
	requireAmount(t, d(75), got.Balance)
	requireAmount(t, d(75), got.TotalEarnings)

	msgs, err := h.accounts.Messages(h.ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	require.Equal(t, domain.MessageKindGift, msgs[0].Kind)
	require.Equal(t, "Thanks for staying with us", msgs[0].Body)

	require.Empty(t, entriesOf(h.account(t, v.ID), domain.TxTypeAdminGift))
}

func TestGiftBroadcast(t *testing.T) {
	h := newHarness(t)
	ids := []int64{
		h.register(t, "+10000000001", nil).ID,
		h.register(t, "+10000000002", nil).ID,
		h.register(t, "+10000000003", nil).ID,
	}

	res, err := h.gifts.Send(h.ctx, service.Gift{Title: "Launch", Amount: d(10)})
	require.NoError(t, err)
	require.Equal(t, len(ids), res.Delivered)
	require.Empty(t, res.Failed)

	for _, id := range ids {
		requireAmount(t, d(60), h.account(t, id).Balance)
	}
}

func TestGiftZeroAmountSendsMessageOnly(t *testing.T) {
	h := newHarness(t)
	u := h.register(t, "+10000000001", nil)

	_, err := h.gifts.Send(h.ctx, service.Gift{Target: &u.ID, Title: "Maintenance tonight"})
	require.NoError(t, err)

	got := h.account(t, u.ID)
	require.Len(t, got.Ledger, 1)
	msgs, err := h.accounts.Messages(h.ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 1)

	require.NoError(t, h.accounts.MarkMessagesRead(h.ctx, u.ID))
	msgs, err = h.accounts.Messages(h.ctx, u.ID)
	require.NoError(t, err)
	require.True(t, msgs[0].Read)
}

func TestGiftRequestKeyIsSingleUse(t *testing.T) {
	h := newHarness(t)
	u := h.register(t, "+10000000001", nil)
	gift := service.Gift{Target: &u.ID, Title: "Bonus", Amount: d(10), RequestKey: "req-1"}

	_, err := h.gifts.Send(h.ctx, gift)
	require.NoError(t, err)
	_, err = h.gifts.Send(h.ctx, gift)
	require.ErrorIs(t, err, domain.ErrDuplicateTrigger)

	requireAmount(t, d(60), h.account(t, u.ID).Balance)
}

func TestGiftValidation(t *testing.T) {
	h := newHarness(t)
	u := h.register(t, "+10000000001", nil)

	_, err := h.gifts.Send(h.ctx, service.Gift{Target: &u.ID, Amount: d(-5)})
	require.ErrorIs(t, err, domain.ErrInvalidAmount)

	_, err = h.gifts.Send(h.ctx, service.Gift{Target: &u.ID, Amount: decimal.New(1005, -3)})
	require.ErrorIs(t, err, domain.ErrInvalidAmount)

	missing := int64(999)
	_, err = h.gifts.Send(h.ctx, service.Gift{Target: &missing, Amount: d(5)})
	require.ErrorIs(t, err, domain.ErrNotFound)

	requireAmount(t, d(50), h.account(t, u.ID).Balance)
}

func TestGiftRetryAfterStorageFailure(t *testing.T) {
	broken := &brokenDirectory{}
	h := newHarnessWith(t, func(dir service.Directory) service.Directory {
		broken.Directory = dir
		return broken
	})
	u := h.register(t, "+10000000001", nil)
	gift := service.Gift{Target: &u.ID, Title: "Bonus", Amount: d(10), RequestKey: "req-1"}

	broken.broken = u.ID
	_, err := h.gifts.Send(h.ctx, gift)
	require.ErrorIs(t, err, errStorage)
	requireAmount(t, d(50), h.account(t, u.ID).Balance)

	broken.broken = 0
	res, err := h.gifts.Send(h.ctx, gift)
	require.NoError(t, err)
	require.Equal(t, 1, res.Delivered)

	_, err = h.gifts.Send(h.ctx, gift)
	require.ErrorIs(t, err, domain.ErrDuplicateTrigger)

	got := h.account(t, u.ID)
	require.Len(t, entriesOf(got, domain.TxTypeAdminGift), 1)
	requireAmount(t, d(60), got.Balance)
	requireLedgerConsistent(t, got)
}

func TestGiftBroadcastRetryPaysOnlyMissedAccounts(t *testing.T) {
	broken := &brokenDirectory{}
	h := newHarnessWith(t, func(dir service.Directory) service.Directory {
		broken.Directory = dir
		return broken
	})
	a := h.register(t, "+10000000001", nil)
	b := h.register(t, "+10000000002", nil)
	gift := service.Gift{Title: "Launch", Amount: d(10), RequestKey: "launch"}

	broken.broken = b.ID
	res, err := h.gifts.Send(h.ctx, gift)
	require.NoError(t, err)
	require.Equal(t, 1, res.Delivered)
	require.Equal(t, []int64{b.ID}, res.Failed)

	broken.broken = 0
	res, err = h.gifts.Send(h.ctx, gift)
	require.NoError(t, err)
	require.Equal(t, 2, res.Delivered)
	require.Empty(t, res.Failed)

	for _, id := range []int64{a.ID, b.ID} {
		got := h.account(t, id)
		require.Len(t, entriesOf(got, domain.TxTypeAdminGift), 1)
		requireAmount(t, d(60), got.Balance)
	}
	msgs, err := h.accounts.Messages(h.ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
}
