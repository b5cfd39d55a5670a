package memory

import (
	"context"
	"sync"
	"time"

	"github.com/set-night/bountyhub/internal/domain"
)

func (s *Store) AddMessage(_ context.Context, m *domain.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[m.AccountID]; !ok {
		return domain.ErrAccountNotFound
	}
	cp := *m
	s.messages[m.AccountID] = append(s.messages[m.AccountID], &cp)
	return nil
}

// ListMessages returns the inbox newest first.
func (s *Store) ListMessages(_ context.Context, accountID int64) ([]*domain.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	msgs := s.messages[accountID]
	out := make([]*domain.Message, 0, len(msgs))
	for i := len(msgs) - 1; i >= 0; i-- {
		cp := *msgs[i]
		out = append(out, &cp)
	}
	return out, nil
}

func (s *Store) MarkMessagesRead(_ context.Context, accountID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, m := range s.messages[accountID] {
		m.Read = true
	}
	return nil
}

// KeyGuard is a process-local request key registry.
type KeyGuard struct {
	mu   sync.Mutex
	seen map[string]time.Time
	now  func() time.Time
}

func NewKeyGuard() *KeyGuard {
	return &KeyGuard{seen: make(map[string]time.Time), now: time.Now}
}

func (g *KeyGuard) Acquire(_ context.Context, key string, ttl time.Duration) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	for k, exp := range g.seen {
		if now.After(exp) {
			delete(g.seen, k)
		}
	}
	if _, ok := g.seen[key]; ok {
		return false, nil
	}
	g.seen[key] = now.Add(ttl)
	return true, nil
}

func (g *KeyGuard) Release(_ context.Context, key string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.seen, key)
	return nil
}
