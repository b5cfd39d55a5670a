package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TxType string

const (
	TxTypeTaskReward    TxType = "task_reward"
	TxTypeReferralBonus TxType = "referral_bonus"
	TxTypeWithdraw      TxType = "withdraw"
	TxTypeAdminGift     TxType = "admin_gift"
	TxTypeSystemBonus   TxType = "system_bonus"
	TxTypeVIPBonus      TxType = "vip_bonus"
)

// AmountScale is the most decimal places an amount may carry when it enters
// the ledger from outside. Ledger columns hold four, which leaves room for the
// smallest commission rate applied to such an amount.
const AmountScale int32 = 2

// CheckAmountScale returns ErrInvalidAmount when any amount has more than
// AmountScale decimal places.
func CheckAmountScale(amounts ...decimal.Decimal) error {
	for _, a := range amounts {
		if !a.Equal(a.Truncate(AmountScale)) {
			return fmt.Errorf("%w: %s has more than %d decimal places", ErrInvalidAmount, a, AmountScale)
		}
	}
	return nil
}

type TxStatus string

const (
	TxStatusSuccess TxStatus = "success"
	TxStatusPending TxStatus = "pending"
	TxStatusFailed  TxStatus = "failed"
)

// Transaction is one immutable ledger entry.
type Transaction struct {
	ID             uuid.UUID
	AccountID      int64
	Type           TxType
	Amount         decimal.Decimal
	Description    string
	Status         TxStatus
	IdempotencyKey string
	CreatedAt      time.Time
}

// LedgerEvent is published once per committed ledger entry.
type LedgerEvent struct {
	Entry         Transaction
	Balance       decimal.Decimal
	TotalEarnings decimal.Decimal
	VIPLevel      int
}
