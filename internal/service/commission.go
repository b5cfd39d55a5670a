package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/set-night/bountyhub/internal/config"
	"github.com/set-night/bountyhub/internal/domain"
	"github.com/set-night/bountyhub/internal/metrics"
	"github.com/shopspring/decimal"
)

// Credit is one ancestor payout produced by a fan-out.
type Credit struct {
	Level     int
	AccountID int64
	Amount    decimal.Decimal
	EntryID   uuid.UUID
	Duplicate bool
}

type CommissionService struct {
	dir    Directory
	ledger *LedgerService
	tiers  *TierEvaluator
}

func NewCommissionService(dir Directory, ledger *LedgerService, tiers *TierEvaluator) *CommissionService {
	return &CommissionService{dir: dir, ledger: ledger, tiers: tiers}
}

func commissionKey(claimID uuid.UUID, level int) string {
	if claimID == uuid.Nil {
		return ""
	}
	return fmt.Sprintf("commission:%s:%d", claimID, level)
}

// Distribute credits up to MaxCommissionLevel ancestors of sourceID with a
// fixed share of the original amount. Each credit is its own account
// transaction; a failure stops the walk but leaves earlier credits in place.
// Credits already booked for claimID are reported as duplicates and skipped.
func (s *CommissionService) Distribute(ctx context.Context, sourceID int64, claimID uuid.UUID, amount decimal.Decimal) ([]Credit, error) {
	var credits []Credit
	err := s.distribute(ctx, sourceID, claimID, amount, 1, &credits)
	return credits, err
}

func (s *CommissionService) distribute(ctx context.Context, accountID int64, claimID uuid.UUID, amount decimal.Decimal, level int, credits *[]Credit) error {
	if level > config.MaxCommissionLevel {
		return nil
	}
	acc, err := s.dir.GetAccount(ctx, accountID)
	if err != nil {
		return fmt.Errorf("level %d: lookup account %d: %w", level, accountID, err)
	}
	if acc.ReferrerID == nil {
		return nil
	}
	uplineID := *acc.ReferrerID

	commission := amount.Mul(config.CommissionRates[level])
	if !commission.IsPositive() {
		return nil
	}

	var entry domain.Transaction
	_, _, err = s.ledger.Update(ctx, uplineID, func(tx *Txn) error {
		var err error
		entry, err = tx.Append(Entry{
			Type:        domain.TxTypeReferralBonus,
			Amount:      commission,
			Description: fmt.Sprintf("Level %d commission from %s", level, acc.DisplayName()),
			Key:         commissionKey(claimID, level),
		})
		if err != nil {
			return err
		}
		if s.tiers != nil {
			_, err = s.tiers.Evaluate(tx)
		}
		return err
	})

	switch {
	case errors.Is(err, domain.ErrDuplicateTrigger):
		metrics.ObserveCommission(level, "duplicate")
		slog.Info("commission already credited",
			"claim_id", claimID,
			"level", level,
			"upline_id", uplineID,
		)
		*credits = append(*credits, Credit{Level: level, AccountID: uplineID, Amount: commission, Duplicate: true})
	case err != nil:
		metrics.ObserveCommission(level, "failed")
		return fmt.Errorf("level %d: credit upline %d: %w", level, uplineID, err)
	default:
		metrics.ObserveCommission(level, "credited")
		*credits = append(*credits, Credit{Level: level, AccountID: uplineID, Amount: commission, EntryID: entry.ID})
	}

	return s.distribute(ctx, uplineID, claimID, amount, level+1, credits)
}
