package memory

import (
	"cmp"
	"context"
	"slices"

	"github.com/set-night/bountyhub/internal/domain"
)

func clonePlatform(p *domain.Platform) *domain.Platform {
	cp := *p
	cp.Steps = slices.Clone(p.Steps)
	cp.TargetLocales = slices.Clone(p.TargetLocales)
	return &cp
}

func (s *Store) CreatePlatform(_ context.Context, p *domain.Platform) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextPlatformID++
	p.ID = s.nextPlatformID
	s.platforms[p.ID] = clonePlatform(p)
	return nil
}

func (s *Store) GetPlatform(_ context.Context, id int64) (*domain.Platform, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.platforms[id]
	if !ok {
		return nil, domain.ErrPlatformNotFound
	}
	return clonePlatform(p), nil
}

func (s *Store) ListPlatforms(_ context.Context) ([]*domain.Platform, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.Platform, 0, len(s.platforms))
	for _, p := range s.platforms {
		out = append(out, clonePlatform(p))
	}
	slices.SortFunc(out, func(a, b *domain.Platform) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return out, nil
}

func (s *Store) SetPlatformStatus(_ context.Context, id int64, status domain.PlatformStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.platforms[id]
	if !ok {
		return domain.ErrPlatformNotFound
	}
	p.Status = status
	return nil
}

func (s *Store) Reserve(_ context.Context, id int64) (*domain.Platform, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.platforms[id]
	if !ok {
		return nil, domain.ErrPlatformNotFound
	}
	if p.Status != domain.PlatformOnline {
		return nil, domain.ErrPlatformOffline
	}
	if p.RemainingQty <= 0 {
		return nil, domain.ErrSoldOut
	}
	p.RemainingQty--
	return clonePlatform(p), nil
}

func (s *Store) Release(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.platforms[id]
	if !ok {
		return domain.ErrPlatformNotFound
	}
	if p.RemainingQty < p.TotalQty {
		p.RemainingQty++
	}
	return nil
}
