package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/set-night/bountyhub/internal/config"
	"github.com/set-night/bountyhub/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

type RegisterParams struct {
	Phone      string
	Password   string
	Locale     string
	InviteCode string
}

type AccountService struct {
	dir      Directory
	ledger   *LedgerService
	messages MessageStore
	markets  *config.Markets
	now      func() time.Time
}

func NewAccountService(dir Directory, ledger *LedgerService, messages MessageStore, markets *config.Markets) *AccountService {
	return &AccountService{dir: dir, ledger: ledger, messages: messages, markets: markets, now: time.Now}
}

// Register creates an account in the market of p.Locale. The signup bonus,
// when the market has one, is stored with the account as its first ledger
// entry.
func (s *AccountService) Register(ctx context.Context, p RegisterParams) (*domain.Account, error) {
	phone := strings.TrimSpace(p.Phone)
	if phone == "" || p.Password == "" {
		return nil, domain.ErrInvalidCredentials
	}
	if _, err := s.dir.GetAccountByPhone(ctx, phone); err == nil {
		return nil, domain.ErrAccountExists
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("check phone: %w", err)
	}

	var referrerID *int64
	if code := strings.TrimSpace(p.InviteCode); code != "" {
		referrer, err := s.dir.GetAccountByReferralCode(ctx, code)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, domain.ErrReferrerNotFound
			}
			return nil, fmt.Errorf("lookup referrer: %w", err)
		}
		referrerID = &referrer.ID
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(p.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	code, err := generateUniqueReferralCode(ctx, s.dir)
	if err != nil {
		return nil, err
	}

	market := s.markets.For(p.Locale)
	now := s.now()
	acc := &domain.Account{
		Phone:        phone,
		PasswordHash: string(hash),
		ReferralCode: code,
		Locale:       market.Locale,
		Currency:     market.Currency,
		ReferrerID:   referrerID,
		VIPLevel:     config.MinVIPLevel,
		CreatedAt:    now,
	}
	tx := &Txn{Account: acc, Now: now}
	if !market.SignupBonus.IsZero() {
		if _, err := tx.Append(Entry{
			Type:        domain.TxTypeSystemBonus,
			Amount:      market.SignupBonus,
			Description: "Signup bonus",
			Key:         "signup",
		}); err != nil {
			return nil, err
		}
	}
	if err := s.dir.CreateAccount(ctx, acc); err != nil {
		return nil, err
	}
	s.ledger.committed(ctx, acc, acc.Ledger)

	slog.Info("account registered",
		"account_id", acc.ID,
		"locale", acc.Locale,
		"referrer_id", referrerID,
	)
	return acc, nil
}

// Authenticate resolves a phone and password to an account.
func (s *AccountService) Authenticate(ctx context.Context, phone, password string) (*domain.Account, error) {
	acc, err := s.dir.GetAccountByPhone(ctx, strings.TrimSpace(phone))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}
	if acc.Banned {
		return nil, domain.ErrAccountBanned
	}
	return acc, nil
}

func (s *AccountService) Get(ctx context.Context, id int64) (*domain.Account, error) {
	return s.dir.GetAccount(ctx, id)
}

func (s *AccountService) BindPayout(ctx context.Context, id int64, bankInfo string) (*domain.Account, error) {
	bankInfo = strings.TrimSpace(bankInfo)
	if bankInfo == "" {
		return nil, domain.ErrNoPayoutAccount
	}
	return s.dir.UpdateAccount(ctx, id, func(acc *domain.Account) error {
		acc.BankInfo = bankInfo
		return nil
	})
}

func (s *AccountService) SetBanned(ctx context.Context, id int64, banned bool) (*domain.Account, error) {
	acc, err := s.dir.UpdateAccount(ctx, id, func(acc *domain.Account) error {
		acc.Banned = banned
		return nil
	})
	if err != nil {
		return nil, err
	}
	slog.Info("account ban updated", "account_id", id, "banned", banned)
	return acc, nil
}

type AccountSort string

const (
	AccountSortNewest  AccountSort = "newest"
	AccountSortBalance AccountSort = "balance"
)

// List returns every account, newest first or richest first.
func (s *AccountService) List(ctx context.Context, sortBy AccountSort) ([]*domain.Account, error) {
	accounts, err := s.dir.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}
	if sortBy == AccountSortBalance {
		slices.SortStableFunc(accounts, func(a, b *domain.Account) int {
			return b.Balance.Cmp(a.Balance)
		})
		return accounts, nil
	}
	slices.SortStableFunc(accounts, func(a, b *domain.Account) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return accounts, nil
}

func (s *AccountService) Messages(ctx context.Context, id int64) ([]*domain.Message, error) {
	if _, err := s.dir.GetAccount(ctx, id); err != nil {
		return nil, err
	}
	return s.messages.ListMessages(ctx, id)
}

func (s *AccountService) MarkMessagesRead(ctx context.Context, id int64) error {
	return s.messages.MarkMessagesRead(ctx, id)
}
