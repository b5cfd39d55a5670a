package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/set-night/bountyhub/internal/config"
	"github.com/set-night/bountyhub/internal/domain"
	"github.com/shopspring/decimal"
)

const referralCodeCharset = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

func generateReferralCode() (string, error) {
	code := make([]byte, config.ReferralCodeLength)
	for i := range code {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(referralCodeCharset))))
		if err != nil {
			return "", fmt.Errorf("random int: %w", err)
		}
		code[i] = referralCodeCharset[n.Int64()]
	}
	return string(code), nil
}

func generateUniqueReferralCode(ctx context.Context, dir Directory) (string, error) {
	for range config.ReferralCodeAttempts {
		code, err := generateReferralCode()
		if err != nil {
			return "", err
		}
		_, err = dir.GetAccountByReferralCode(ctx, code)
		if errors.Is(err, domain.ErrNotFound) {
			return code, nil
		}
		if err != nil {
			return "", fmt.Errorf("check referral code: %w", err)
		}
	}
	return "", fmt.Errorf("failed to generate unique referral code after %d attempts", config.ReferralCodeAttempts)
}

// TeamStats summarizes an account's downline.
type TeamStats struct {
	Levels      [config.MaxCommissionLevel]int
	Commissions [config.MaxCommissionLevel]decimal.Decimal
	Total       int
}

// Team walks the downline breadth-first to MaxCommissionLevel generations.
func (s *AccountService) Team(ctx context.Context, accountID int64) (*TeamStats, error) {
	acc, err := s.dir.GetAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	stats := &TeamStats{}
	frontier := []int64{accountID}
	for level := 0; level < config.MaxCommissionLevel && len(frontier) > 0; level++ {
		var next []int64
		for _, id := range frontier {
			children, err := s.dir.Referrals(ctx, id)
			if err != nil {
				return nil, fmt.Errorf("referrals of %d: %w", id, err)
			}
			next = append(next, children...)
		}
		stats.Levels[level] = len(next)
		stats.Total += len(next)
		frontier = next
	}

	for i := range stats.Commissions {
		stats.Commissions[i] = decimal.Zero
	}
	for _, e := range acc.Ledger {
		if e.Type != domain.TxTypeReferralBonus || e.Status != domain.TxStatusSuccess {
			continue
		}
		if level := commissionLevel(e.IdempotencyKey); level > 0 {
			stats.Commissions[level-1] = stats.Commissions[level-1].Add(e.Amount)
		}
	}
	return stats, nil
}

// commissionLevel extracts the level from a commission entry key.
func commissionLevel(key string) int {
	i := strings.LastIndexByte(key, ':')
	if i < 0 || !strings.HasPrefix(key, "commission:") {
		return 0
	}
	level, err := strconv.Atoi(key[i+1:])
	if err != nil || level < 1 || level > config.MaxCommissionLevel {
		return 0
	}
	return level
}
