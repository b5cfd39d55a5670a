package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/set-night/bountyhub/internal/config"
	"github.com/set-night/bountyhub/internal/domain"
	"github.com/shopspring/decimal"
)

// Gift is an admin credit with an inbox message. A nil Target broadcasts to
// every account. A zero Amount sends the message only.
type Gift struct {
	Target     *int64
	Title      string
	Body       string
	Amount     decimal.Decimal
	RequestKey string
}

type GiftResult struct {
	Delivered int
	Failed    []int64
}

type GiftService struct {
	dir      Directory
	ledger   *LedgerService
	tiers    *TierEvaluator
	messages MessageStore
	guard    KeyGuard
}

func NewGiftService(dir Directory, ledger *LedgerService, tiers *TierEvaluator, messages MessageStore, guard KeyGuard) *GiftService {
	return &GiftService{dir: dir, ledger: ledger, tiers: tiers, messages: messages, guard: guard}
}

// Send delivers g. The request key is released again when any delivery
// fails, so the same request can be re-issued; credits that already landed
// are recognised by their ledger key and not paid twice.
func (s *GiftService) Send(ctx context.Context, g Gift) (*GiftResult, error) {
	if g.Amount.IsNegative() {
		return nil, domain.ErrInvalidAmount
	}
	if err := domain.CheckAmountScale(g.Amount); err != nil {
		return nil, err
	}
	guarded := g.RequestKey != "" && s.guard != nil
	if guarded {
		ok, err := s.guard.Acquire(ctx, "gift:"+g.RequestKey, config.RequestKeyTTL)
		if err != nil {
			return nil, fmt.Errorf("acquire request key: %w", err)
		}
		if !ok {
			return nil, domain.ErrDuplicateTrigger
		}
	}

	res, err := s.send(ctx, g)
	if guarded && (err != nil || len(res.Failed) > 0) {
		if relErr := s.guard.Release(ctx, "gift:"+g.RequestKey); relErr != nil {
			slog.Error("failed to release gift request key",
				"request_key", g.RequestKey,
				"error", relErr,
			)
		}
	}
	if err != nil {
		return nil, err
	}

	slog.Info("gift sent",
		"title", g.Title,
		"amount", g.Amount.String(),
		"delivered", res.Delivered,
		"failed", len(res.Failed),
	)
	return res, nil
}

func (s *GiftService) send(ctx context.Context, g Gift) (*GiftResult, error) {
	targets, err := s.targets(ctx, g.Target)
	if err != nil {
		return nil, err
	}

	res := &GiftResult{}
	for _, id := range targets {
		if err := s.deliver(ctx, id, g); err != nil {
			if g.Target != nil {
				return nil, err
			}
			slog.Error("gift delivery failed", "account_id", id, "error", err)
			res.Failed = append(res.Failed, id)
			continue
		}
		res.Delivered++
	}
	return res, nil
}

func (s *GiftService) targets(ctx context.Context, target *int64) ([]int64, error) {
	if target != nil {
		if _, err := s.dir.GetAccount(ctx, *target); err != nil {
			return nil, err
		}
		return []int64{*target}, nil
	}
	accounts, err := s.dir.ListAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	ids := make([]int64, 0, len(accounts))
	for _, acc := range accounts {
		ids = append(ids, acc.ID)
	}
	return ids, nil
}

func (s *GiftService) deliver(ctx context.Context, accountID int64, g Gift) error {
	if g.Amount.IsPositive() {
		key := ""
		if g.RequestKey != "" {
			key = "gift:" + g.RequestKey
		}
		_, _, err := s.ledger.Update(ctx, accountID, func(tx *Txn) error {
			if _, err := tx.Append(Entry{
				Type:        domain.TxTypeAdminGift,
				Amount:      g.Amount,
				Description: g.Title,
				Key:         key,
			}); err != nil {
				return err
			}
			_, err := s.tiers.Evaluate(tx)
			return err
		})
		if errors.Is(err, domain.ErrDuplicateTrigger) {
			// Credited by an earlier attempt of the same request.
			return nil
		}
		if err != nil {
			return err
		}
	}

	return s.messages.AddMessage(ctx, &domain.Message{
		ID:        uuid.New(),
		AccountID: accountID,
		Kind:      domain.MessageKindGift,
		Title:     g.Title,
		Body:      g.Body,
		Amount:    g.Amount,
		CreatedAt: time.Now(),
	})
}
