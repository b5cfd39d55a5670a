package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/set-night/bountyhub/internal/domain"
)

const platformColumns = `id, name, logo_url, description, download_link, first_deposit, reward,
	launch_date, hot, remaining_qty, total_qty, steps, rules, status, type, target_locales, created_at`

func scanPlatform(row pgx.Row) (*domain.Platform, error) {
	var p domain.Platform
	err := row.Scan(
		&p.ID, &p.Name, &p.LogoURL, &p.Description, &p.DownloadLink, &p.FirstDeposit, &p.Reward,
		&p.LaunchDate, &p.Hot, &p.RemainingQty, &p.TotalQty, &p.Steps, &p.Rules, &p.Status, &p.Type,
		&p.TargetLocales, &p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPlatformNotFound
		}
		return nil, fmt.Errorf("scan platform: %w", err)
	}
	return &p, nil
}

func nonNil(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}

func (s *Store) CreatePlatform(ctx context.Context, p *domain.Platform) error {
	err := s.pool.QueryRow(ctx, `INSERT INTO platforms
		(name, logo_url, description, download_link, first_deposit, reward, launch_date, hot,
		 remaining_qty, total_qty, steps, rules, status, type, target_locales, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING id`,
		p.Name, p.LogoURL, p.Description, p.DownloadLink, p.FirstDeposit, p.Reward, p.LaunchDate, p.Hot,
		p.RemainingQty, p.TotalQty, nonNil(p.Steps), p.Rules, p.Status, p.Type, nonNil(p.TargetLocales), p.CreatedAt,
	).Scan(&p.ID)
	if err != nil {
		return fmt.Errorf("insert platform: %w", err)
	}
	return nil
}

func (s *Store) GetPlatform(ctx context.Context, id int64) (*domain.Platform, error) {
	return scanPlatform(s.pool.QueryRow(ctx, `SELECT `+platformColumns+` FROM platforms WHERE id = $1`, id))
}

func (s *Store) ListPlatforms(ctx context.Context) ([]*domain.Platform, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+platformColumns+` FROM platforms ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query platforms: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*domain.Platform, error) {
		return scanPlatform(row)
	})
}

func (s *Store) SetPlatformStatus(ctx context.Context, id int64, status domain.PlatformStatus) error {
	tag, err := s.pool.Exec(ctx, `UPDATE platforms SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("update platform status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrPlatformNotFound
	}
	return nil
}

// Reserve takes one slot with a conditional decrement; the row is only
// touched when the platform is online and has capacity left.
func (s *Store) Reserve(ctx context.Context, id int64) (*domain.Platform, error) {
	p, err := scanPlatform(s.pool.QueryRow(ctx, `UPDATE platforms
		SET remaining_qty = remaining_qty - 1
		WHERE id = $1 AND status = $2 AND remaining_qty > 0
		RETURNING `+platformColumns, id, domain.PlatformOnline))
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	current, err := s.GetPlatform(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status != domain.PlatformOnline {
		return nil, domain.ErrPlatformOffline
	}
	return nil, domain.ErrSoldOut
}

func (s *Store) Release(ctx context.Context, id int64) error {
	_, err := s.pool.Exec(ctx, `UPDATE platforms
		SET remaining_qty = remaining_qty + 1
		WHERE id = $1 AND remaining_qty < total_qty`, id)
	if err != nil {
		return fmt.Errorf("release platform slot: %w", err)
	}
	return nil
}
