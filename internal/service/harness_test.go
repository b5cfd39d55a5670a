package service_test

import (
	"context"
	"testing"

	"github.com/set-night/bountyhub/internal/config"
	"github.com/set-night/bountyhub/internal/domain"
	"github.com/set-night/bountyhub/internal/events"
	"github.com/set-night/bountyhub/internal/repository/memory"
	"github.com/set-night/bountyhub/internal/service"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func d(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

func requireAmount(t *testing.T, want, got decimal.Decimal) {
	t.Helper()
	require.True(t, want.Equal(got), "want %s, got %s", want, got)
}

var testTiers = []domain.Tier{
	{Level: 2, Threshold: d(100), Bonus: d(5)},
	{Level: 3, Threshold: d(250), Bonus: d(10)},
	{Level: 4, Threshold: d(500), Bonus: d(25)},
}

// en: signup 50, min withdrawal 100. th: signup 80, min withdrawal 300.
func testMarkets(t *testing.T) *config.Markets {
	t.Helper()
	m, err := config.NewMarkets("en",
		&domain.Market{Locale: "en", Currency: "$", SignupBonus: d(50), MinWithdrawal: d(100), Tiers: testTiers},
		&domain.Market{Locale: "th", Currency: "฿", SignupBonus: d(80), MinWithdrawal: d(300), Tiers: testTiers},
	)
	require.NoError(t, err)
	return m
}

type harness struct {
	ctx         context.Context
	store       *memory.Store
	bus         *events.Bus
	markets     *config.Markets
	ledger      *service.LedgerService
	tiers       *service.TierEvaluator
	commissions *service.CommissionService
	accounts    *service.AccountService
	tasks       *service.TaskService
	withdrawals *service.WithdrawalService
	gifts       *service.GiftService
	platforms   *service.PlatformService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return newHarnessWith(t, nil)
}

// newHarnessWith lets a test wrap the directory seen by the services.
func newHarnessWith(t *testing.T, wrap func(service.Directory) service.Directory) *harness {
	t.Helper()

	store := memory.New()
	var dir service.Directory = store
	if wrap != nil {
		dir = wrap(store)
	}
	bus := events.NewBus(config.EventBufferSize)
	markets := testMarkets(t)

	ledger := service.NewLedgerService(dir, bus)
	tiers := service.NewTierEvaluator(markets, store)
	ledger.OnCommit(tiers.NotifyUpgrades)
	commissions := service.NewCommissionService(dir, ledger, tiers)

	return &harness{
		ctx:         context.Background(),
		store:       store,
		bus:         bus,
		markets:     markets,
		ledger:      ledger,
		tiers:       tiers,
		commissions: commissions,
		accounts:    service.NewAccountService(dir, ledger, store, markets),
		tasks:       service.NewTaskService(dir, store, ledger, tiers, commissions),
		withdrawals: service.NewWithdrawalService(ledger, markets),
		gifts:       service.NewGiftService(dir, ledger, tiers, store, memory.NewKeyGuard()),
		platforms:   service.NewPlatformService(store, nil),
	}
}

func (h *harness) register(t *testing.T, phone string, inviter *domain.Account) *domain.Account {
	t.Helper()
	return h.registerIn(t, phone, "en", inviter)
}

func (h *harness) registerIn(t *testing.T, phone, locale string, inviter *domain.Account) *domain.Account {
	t.Helper()
	params := service.RegisterParams{Phone: phone, Password: "secret", Locale: locale}
	if inviter != nil {
		params.InviteCode = inviter.ReferralCode
	}
	acc, err := h.accounts.Register(h.ctx, params)
	require.NoError(t, err)
	return acc
}

func (h *harness) platform(t *testing.T, reward int64, qty int) *domain.Platform {
	t.Helper()
	p, err := h.platforms.Create(h.ctx, service.CreatePlatformParams{
		Name:     "Partner",
		Reward:   d(reward),
		TotalQty: qty,
	})
	require.NoError(t, err)
	return p
}

func (h *harness) account(t *testing.T, id int64) *domain.Account {
	t.Helper()
	acc, err := h.store.GetAccount(h.ctx, id)
	require.NoError(t, err)
	return acc
}

// submitted joins p and submits proof, leaving the claim in review.
func (h *harness) submitted(t *testing.T, acc *domain.Account, p *domain.Platform) *domain.Claim {
	t.Helper()
	claim, err := h.tasks.Join(h.ctx, acc.ID, p.ID)
	require.NoError(t, err)
	claim, err = h.tasks.SubmitProof(h.ctx, acc.ID, claim.ID, "screenshot.png")
	require.NoError(t, err)
	return claim
}

func (h *harness) complete(t *testing.T, acc *domain.Account, p *domain.Platform) *service.AuditResult {
	t.Helper()
	claim := h.submitted(t, acc, p)
	res, err := h.tasks.Audit(h.ctx, claim.ID, domain.DecisionApprove, "")
	require.NoError(t, err)
	return res
}

func entriesOf(acc *domain.Account, typ domain.TxType) []domain.Transaction {
	var out []domain.Transaction
	for _, e := range acc.Ledger {
		if e.Type == typ {
			out = append(out, e)
		}
	}
	return out
}

// requireLedgerConsistent checks the aggregates against the ledger.
func requireLedgerConsistent(t *testing.T, acc *domain.Account) {
	t.Helper()
	balance, earnings := decimal.Zero, decimal.Zero
	for _, e := range acc.Ledger {
		switch {
		case e.Status == domain.TxStatusSuccess:
			balance = balance.Add(e.Amount)
			if e.Amount.IsPositive() {
				earnings = earnings.Add(e.Amount)
			}
		case e.Status == domain.TxStatusPending && e.Amount.IsNegative():
			balance = balance.Add(e.Amount)
		}
	}
	requireAmount(t, balance, acc.Balance)
	requireAmount(t, earnings, acc.TotalEarnings)
}
