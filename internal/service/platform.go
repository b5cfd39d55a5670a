package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/set-night/bountyhub/internal/domain"
	"github.com/shopspring/decimal"
)

type CreatePlatformParams struct {
	Name          string
	LogoURL       string
	Description   string
	DownloadLink  string
	FirstDeposit  decimal.Decimal
	Reward        decimal.Decimal
	LaunchDate    time.Time
	Hot           bool
	TotalQty      int
	Steps         []string
	Rules         string
	Type          domain.PlatformType
	TargetLocales []string
}

type PlatformService struct {
	store   PlatformStore
	preview *LinkPreviewer
	now     func() time.Time
}

func NewPlatformService(store PlatformStore, preview *LinkPreviewer) *PlatformService {
	return &PlatformService{store: store, preview: preview, now: time.Now}
}

// Create publishes an online platform. Name, logo and description left empty
// are filled from the download page when a previewer is configured.
func (s *PlatformService) Create(ctx context.Context, p CreatePlatformParams) (*domain.Platform, error) {
	if p.Reward.IsNegative() || p.FirstDeposit.IsNegative() || p.TotalQty < 0 {
		return nil, domain.ErrInvalidAmount
	}
	if err := domain.CheckAmountScale(p.Reward, p.FirstDeposit); err != nil {
		return nil, err
	}

	if s.preview != nil && p.DownloadLink != "" && (p.Name == "" || p.LogoURL == "" || p.Description == "") {
		preview, err := s.preview.Fetch(ctx, p.DownloadLink)
		if err != nil {
			slog.Warn("link preview failed", "url", p.DownloadLink, "error", err)
		} else {
			p.Name = firstNonEmpty(p.Name, preview.Title)
			p.LogoURL = firstNonEmpty(p.LogoURL, preview.ImageURL)
			p.Description = firstNonEmpty(p.Description, preview.Description)
		}
	}
	if strings.TrimSpace(p.Name) == "" {
		return nil, fmt.Errorf("platform name: %w", domain.ErrInvalidState)
	}

	now := s.now()
	launch := p.LaunchDate
	if launch.IsZero() {
		launch = now
	}
	typ := p.Type
	if typ == "" {
		typ = domain.PlatformTypeRegister
	}

	platform := &domain.Platform{
		Name:          strings.TrimSpace(p.Name),
		LogoURL:       p.LogoURL,
		Description:   p.Description,
		DownloadLink:  p.DownloadLink,
		FirstDeposit:  p.FirstDeposit,
		Reward:        p.Reward,
		LaunchDate:    launch,
		Hot:           p.Hot,
		RemainingQty:  p.TotalQty,
		TotalQty:      p.TotalQty,
		Steps:         p.Steps,
		Rules:         p.Rules,
		Status:        domain.PlatformOnline,
		Type:          typ,
		TargetLocales: p.TargetLocales,
		CreatedAt:     now,
	}
	if err := s.store.CreatePlatform(ctx, platform); err != nil {
		return nil, fmt.Errorf("create platform: %w", err)
	}

	slog.Info("platform published", "platform_id", platform.ID, "name", platform.Name)
	return platform, nil
}

func (s *PlatformService) Get(ctx context.Context, id int64) (*domain.Platform, error) {
	return s.store.GetPlatform(ctx, id)
}

// List returns the online platforms offered in locale. An empty locale
// lists every online platform.
func (s *PlatformService) List(ctx context.Context, locale string, sortBy domain.SortOption) ([]*domain.Platform, error) {
	all, err := s.store.ListPlatforms(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]*domain.Platform, 0, len(all))
	for _, p := range all {
		if p.Status != domain.PlatformOnline {
			continue
		}
		if locale != "" && !p.AvailableIn(locale) {
			continue
		}
		out = append(out, p)
	}

	switch sortBy {
	case domain.SortHighestReward:
		slices.SortStableFunc(out, func(a, b *domain.Platform) int {
			return b.Reward.Cmp(a.Reward)
		})
	case domain.SortLowestDeposit:
		slices.SortStableFunc(out, func(a, b *domain.Platform) int {
			return a.FirstDeposit.Cmp(b.FirstDeposit)
		})
	default:
		slices.SortStableFunc(out, func(a, b *domain.Platform) int {
			return b.LaunchDate.Compare(a.LaunchDate)
		})
	}
	return out, nil
}

func (s *PlatformService) SetStatus(ctx context.Context, id int64, status domain.PlatformStatus) error {
	if status != domain.PlatformOnline && status != domain.PlatformOffline {
		return fmt.Errorf("platform status %q: %w", status, domain.ErrInvalidState)
	}
	return s.store.SetPlatformStatus(ctx, id, status)
}
