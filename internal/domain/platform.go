package domain

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

type PlatformStatus string

const (
	PlatformOnline  PlatformStatus = "online"
	PlatformOffline PlatformStatus = "offline"
)

type PlatformType string

const (
	PlatformTypeDeposit  PlatformType = "deposit"
	PlatformTypeRegister PlatformType = "register"
	PlatformTypeShare    PlatformType = "share"
)

type SortOption string

const (
	SortNewest        SortOption = "NEWEST"
	SortHighestReward SortOption = "HIGHEST_REWARD"
	SortLowestDeposit SortOption = "LOWEST_DEPOSIT"
)

type Platform struct {
	ID            int64
	Name          string
	LogoURL       string
	Description   string
	DownloadLink  string
	FirstDeposit  decimal.Decimal
	Reward        decimal.Decimal
	LaunchDate    time.Time
	Hot           bool
	RemainingQty  int
	TotalQty      int
	Steps         []string
	Rules         string
	Status        PlatformStatus
	Type          PlatformType
	TargetLocales []string // empty means every market
	CreatedAt     time.Time
}

// AvailableIn reports whether the platform targets the given locale.
func (p *Platform) AvailableIn(locale string) bool {
	return len(p.TargetLocales) == 0 || slices.Contains(p.TargetLocales, locale)
}
