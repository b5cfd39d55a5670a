package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/set-night/bountyhub/internal/domain"
)

func (s *Store) AddMessage(ctx context.Context, m *domain.Message) error {
	_, err := s.pool.Exec(ctx, `INSERT INTO messages (id, account_id, kind, title, body, amount, read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		m.ID, m.AccountID, m.Kind, m.Title, m.Body, m.Amount, m.Read, m.CreatedAt,
	)
	if err != nil {
		if pgErrorCode(err) == foreignKeyViolation {
			return domain.ErrAccountNotFound
		}
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

func (s *Store) ListMessages(ctx context.Context, accountID int64) ([]*domain.Message, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, account_id, kind, title, body, amount, read, created_at
		FROM messages WHERE account_id = $1 ORDER BY created_at DESC`, accountID)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*domain.Message, error) {
		var m domain.Message
		err := row.Scan(&m.ID, &m.AccountID, &m.Kind, &m.Title, &m.Body, &m.Amount, &m.Read, &m.CreatedAt)
		return &m, err
	})
}

func (s *Store) MarkMessagesRead(ctx context.Context, accountID int64) error {
	if _, err := s.pool.Exec(ctx, `UPDATE messages SET read = TRUE WHERE account_id = $1 AND NOT read`, accountID); err != nil {
		return fmt.Errorf("mark messages read: %w", err)
	}
	return nil
}
