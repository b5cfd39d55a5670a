package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/set-night/bountyhub/internal/config"
	"github.com/set-night/bountyhub/internal/domain"
	"github.com/shopspring/decimal"
)

// TierEvaluator promotes accounts along their market's VIP ladder.
type TierEvaluator struct {
	markets  *config.Markets
	messages MessageStore
}

func NewTierEvaluator(markets *config.Markets, messages MessageStore) *TierEvaluator {
	return &TierEvaluator{markets: markets, messages: messages}
}

// Evaluate runs inside an account update after its earnings changed. It
// climbs the ladder one level at a time while lifetime earnings cover the
// next threshold and books every crossed tier's bonus as one vip_bonus entry.
// Bonuses booked here are not fed back into the threshold check; the next
// evaluation picks them up.
func (e *TierEvaluator) Evaluate(tx *Txn) (*domain.Transaction, error) {
	acc := tx.Account
	market := e.markets.For(acc.Locale)

	from := max(acc.VIPLevel, config.MinVIPLevel)
	level := from
	bonus := decimal.Zero
	for level < config.MaxVIPLevel {
		tier, ok := market.TierFor(level + 1)
		if !ok || acc.TotalEarnings.LessThan(tier.Threshold) {
			break
		}
		bonus = bonus.Add(tier.Bonus)
		level++
	}
	if level == from {
		return nil, nil
	}

	acc.VIPLevel = level
	entry, err := tx.Append(Entry{
		Type:        domain.TxTypeVIPBonus,
		Amount:      bonus,
		Description: vipDescription(from, level),
	})
	if err != nil {
		return nil, fmt.Errorf("append vip bonus: %w", err)
	}
	return &entry, nil
}

func vipDescription(from, to int) string {
	if to-from == 1 {
		return fmt.Sprintf("VIP upgrade to level %d", to)
	}
	return fmt.Sprintf("VIP upgrade to level %d (from %d)", to, from)
}

// NotifyUpgrades writes an inbox message for each committed vip_bonus entry.
func (e *TierEvaluator) NotifyUpgrades(ctx context.Context, acc *domain.Account, entries []domain.Transaction) {
	if e.messages == nil {
		return
	}
	for _, entry := range entries {
		if entry.Type != domain.TxTypeVIPBonus {
			continue
		}
		msg := &domain.Message{
			ID:        uuid.New(),
			AccountID: acc.ID,
			Kind:      domain.MessageKindVIP,
			Title:     fmt.Sprintf("Welcome to VIP %d", acc.VIPLevel),
			Body:      fmt.Sprintf("%s: %s%s credited to your balance.", entry.Description, acc.Currency, entry.Amount.StringFixed(2)),
			Amount:    entry.Amount,
			CreatedAt: time.Now(),
		}
		if err := e.messages.AddMessage(ctx, msg); err != nil {
			slog.Error("failed to add vip message", "account_id", acc.ID, "error", err)
		}
	}
}
