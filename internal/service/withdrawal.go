package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/set-night/bountyhub/internal/config"
	"github.com/set-night/bountyhub/internal/domain"
	"github.com/shopspring/decimal"
)

type WithdrawalService struct {
	ledger  *LedgerService
	markets *config.Markets
}

func NewWithdrawalService(ledger *LedgerService, markets *config.Markets) *WithdrawalService {
	return &WithdrawalService{ledger: ledger, markets: markets}
}

// Request books a pending withdrawal. Funds leave the balance immediately;
// settlement happens outside the engine. An empty accountRef falls back to
// the account's bound payout details.
func (s *WithdrawalService) Request(ctx context.Context, accountID int64, amount decimal.Decimal, accountRef string) (*domain.Transaction, error) {
	if !amount.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}
	if err := domain.CheckAmountScale(amount); err != nil {
		return nil, err
	}

	var entry domain.Transaction
	_, _, err := s.ledger.Update(ctx, accountID, func(tx *Txn) error {
		acc := tx.Account
		if acc.Banned {
			return domain.ErrAccountBanned
		}
		market := s.markets.For(acc.Locale)
		if amount.LessThan(market.MinWithdrawal) {
			return domain.ErrBelowMinimum
		}
		if amount.GreaterThan(acc.Balance) {
			return domain.ErrInsufficientBalance
		}

		ref := strings.TrimSpace(accountRef)
		if ref == "" {
			ref = acc.BankInfo
		}
		if ref == "" {
			return domain.ErrNoPayoutAccount
		}

		var err error
		entry, err = tx.Append(Entry{
			Type:        domain.TxTypeWithdraw,
			Amount:      amount.Neg(),
			Description: fmt.Sprintf("Withdrawal to %s", ref),
			Status:      domain.TxStatusPending,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	slog.Info("withdrawal requested",
		"account_id", accountID,
		"amount", amount.String(),
		"entry_id", entry.ID,
	)
	return &entry, nil
}
