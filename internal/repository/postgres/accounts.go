// Package postgres implements the account directory, platform catalogue and
// inbox on PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/set-night/bountyhub/internal/domain"
)

// querier is satisfied by both the pool and a transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Store struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const accountColumns = `id, phone, password_hash, referral_code, locale, currency, balance,
	total_earnings, referrer_id, vip_level, banned, bank_info, version, created_at`

const claimColumns = `id, account_id, platform_id, platform_name, logo_url, reward, status,
	started_at, submitted_at, audited_at, proof_ref, reject_reason`

const entryColumns = `id, account_id, type, amount, description, status, idempotency_key, created_at`

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var a domain.Account
	err := row.Scan(
		&a.ID, &a.Phone, &a.PasswordHash, &a.ReferralCode, &a.Locale, &a.Currency, &a.Balance,
		&a.TotalEarnings, &a.ReferrerID, &a.VIPLevel, &a.Banned, &a.BankInfo, &a.Version, &a.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("scan account: %w", err)
	}
	return &a, nil
}

func scanClaim(row pgx.Row) (*domain.Claim, error) {
	var (
		c                  domain.Claim
		submitted, audited pgtype.Timestamptz
	)
	err := row.Scan(
		&c.ID, &c.AccountID, &c.PlatformID, &c.PlatformName, &c.LogoURL, &c.Reward, &c.Status,
		&c.StartedAt, &submitted, &audited, &c.ProofRef, &c.RejectReason,
	)
	if err != nil {
		return nil, err
	}
	c.SubmittedAt = pgTimestamptzToTimePtr(submitted)
	c.AuditedAt = pgTimestamptzToTimePtr(audited)
	return &c, nil
}

// loadAccount reads the account row and its owned collections. With
// forUpdate the account row stays locked until q's transaction ends.
func loadAccount(ctx context.Context, q querier, id int64, forUpdate bool) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	acc, err := scanAccount(q.QueryRow(ctx, query, id))
	if err != nil {
		return nil, err
	}

	rows, err := q.Query(ctx, `SELECT `+claimColumns+` FROM claims WHERE account_id = $1 ORDER BY started_at`, id)
	if err != nil {
		return nil, fmt.Errorf("query claims: %w", err)
	}
	acc.Tasks, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (*domain.Claim, error) {
		return scanClaim(row)
	})
	if err != nil {
		return nil, fmt.Errorf("scan claims: %w", err)
	}

	rows, err = q.Query(ctx, `SELECT `+entryColumns+` FROM transactions WHERE account_id = $1 ORDER BY seq DESC`, id)
	if err != nil {
		return nil, fmt.Errorf("query ledger: %w", err)
	}
	acc.Ledger, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Transaction, error) {
		var t domain.Transaction
		err := row.Scan(&t.ID, &t.AccountID, &t.Type, &t.Amount, &t.Description, &t.Status, &t.IdempotencyKey, &t.CreatedAt)
		return t, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan ledger: %w", err)
	}
	return acc, nil
}

// insertEntries writes entries oldest first so seq order matches ledger order.
func insertEntries(ctx context.Context, q querier, accountID int64, newestFirst []domain.Transaction) error {
	for i := len(newestFirst) - 1; i >= 0; i-- {
		e := newestFirst[i]
		_, err := q.Exec(ctx, `INSERT INTO transactions (`+entryColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			e.ID, accountID, e.Type, e.Amount, e.Description, e.Status, e.IdempotencyKey, e.CreatedAt,
		)
		if err != nil {
			if code := pgErrorCode(err); code == uniqueViolation {
				return fmt.Errorf("%s: %w", e.IdempotencyKey, domain.ErrDuplicateTrigger)
			}
			return fmt.Errorf("insert ledger entry: %w", err)
		}
	}
	return nil
}

func upsertClaim(ctx context.Context, q querier, c *domain.Claim) error {
	_, err := q.Exec(ctx, `INSERT INTO claims (`+claimColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			submitted_at = EXCLUDED.submitted_at,
			audited_at = EXCLUDED.audited_at,
			proof_ref = EXCLUDED.proof_ref,
			reject_reason = EXCLUDED.reject_reason`,
		c.ID, c.AccountID, c.PlatformID, c.PlatformName, c.LogoURL, c.Reward, c.Status,
		c.StartedAt, timePtrToPgTimestamptz(c.SubmittedAt), timePtrToPgTimestamptz(c.AuditedAt),
		c.ProofRef, c.RejectReason,
	)
	if err != nil {
		if code := pgErrorCode(err); code == uniqueViolation {
			return domain.ErrAlreadyJoined
		}
		return fmt.Errorf("upsert claim: %w", err)
	}
	return nil
}

func (s *Store) CreateAccount(ctx context.Context, acc *domain.Account) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `INSERT INTO accounts
		(phone, password_hash, referral_code, locale, currency, balance, total_earnings,
		 referrer_id, vip_level, banned, bank_info, version, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, 1, $12)
		RETURNING id, version`,
		acc.Phone, acc.PasswordHash, acc.ReferralCode, acc.Locale, acc.Currency, acc.Balance,
		acc.TotalEarnings, acc.ReferrerID, acc.VIPLevel, acc.Banned, acc.BankInfo, acc.CreatedAt,
	).Scan(&acc.ID, &acc.Version)
	if err != nil {
		switch code := pgErrorCode(err); code {
		case uniqueViolation:
			return domain.ErrAccountExists
		case foreignKeyViolation:
			return domain.ErrReferrerNotFound
		}
		return fmt.Errorf("insert account: %w", err)
	}

	for i := range acc.Ledger {
		acc.Ledger[i].AccountID = acc.ID
	}
	if err := insertEntries(ctx, tx, acc.ID, acc.Ledger); err != nil {
		return err
	}
	for _, c := range acc.Tasks {
		c.AccountID = acc.ID
		if err := upsertClaim(ctx, tx, c); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *Store) GetAccount(ctx context.Context, id int64) (*domain.Account, error) {
	return loadAccount(ctx, s.pool, id, false)
}

func (s *Store) getAccountBy(ctx context.Context, column, value string) (*domain.Account, error) {
	var id int64
	err := s.pool.QueryRow(ctx, `SELECT id FROM accounts WHERE `+column+` = $1`, value).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("lookup account by %s: %w", column, err)
	}
	return s.GetAccount(ctx, id)
}

func (s *Store) GetAccountByPhone(ctx context.Context, phone string) (*domain.Account, error) {
	return s.getAccountBy(ctx, "phone", phone)
}

func (s *Store) GetAccountByReferralCode(ctx context.Context, code string) (*domain.Account, error) {
	return s.getAccountBy(ctx, "referral_code", code)
}

// ListAccounts returns account rows without claims or ledger.
func (s *Store) ListAccounts(ctx context.Context) ([]*domain.Account, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+accountColumns+` FROM accounts ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query accounts: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*domain.Account, error) {
		return scanAccount(row)
	})
}

func (s *Store) Referrals(ctx context.Context, referrerID int64) ([]int64, error) {
	rows, err := s.pool.Query(ctx, `SELECT id FROM accounts WHERE referrer_id = $1 ORDER BY id`, referrerID)
	if err != nil {
		return nil, fmt.Errorf("query referrals: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowTo[int64])
}

// UpdateAccount locks the account row for the duration of fn, then persists
// new ledger entries, changed claims and the account aggregates in the same
// transaction.
func (s *Store) UpdateAccount(ctx context.Context, id int64, fn func(acc *domain.Account) error) (*domain.Account, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	acc, err := loadAccount(ctx, tx, id, true)
	if err != nil {
		return nil, err
	}
	known := len(acc.Ledger)
	before := make(map[uuid.UUID]domain.Claim, len(acc.Tasks))
	for _, c := range acc.Tasks {
		before[c.ID] = *c
	}

	if err := fn(acc); err != nil {
		return nil, err
	}

	if err := insertEntries(ctx, tx, id, acc.Ledger[:len(acc.Ledger)-known]); err != nil {
		return nil, err
	}
	for _, c := range acc.Tasks {
		if old, ok := before[c.ID]; ok && claimUnchanged(old, *c) {
			continue
		}
		if err := upsertClaim(ctx, tx, c); err != nil {
			return nil, err
		}
	}

	err = tx.QueryRow(ctx, `UPDATE accounts SET
		balance = $2, total_earnings = $3, vip_level = $4, banned = $5, bank_info = $6,
		version = version + 1
		WHERE id = $1
		RETURNING version`,
		id, acc.Balance, acc.TotalEarnings, acc.VIPLevel, acc.Banned, acc.BankInfo,
	).Scan(&acc.Version)
	if err != nil {
		return nil, fmt.Errorf("update account: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return acc, nil
}

func claimUnchanged(a, b domain.Claim) bool {
	return a.Status == b.Status && a.ProofRef == b.ProofRef && a.RejectReason == b.RejectReason
}

func (s *Store) ClaimOwner(ctx context.Context, claimID uuid.UUID) (int64, error) {
	var owner int64
	err := s.pool.QueryRow(ctx, `SELECT account_id FROM claims WHERE id = $1`, claimID).Scan(&owner)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, domain.ErrClaimNotFound
		}
		return 0, fmt.Errorf("lookup claim owner: %w", err)
	}
	return owner, nil
}

func (s *Store) ClaimsByStatus(ctx context.Context, status domain.ClaimStatus) ([]*domain.Claim, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+claimColumns+` FROM claims WHERE status = $1`, status)
	if err != nil {
		return nil, fmt.Errorf("query claims: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*domain.Claim, error) {
		return scanClaim(row)
	})
}
