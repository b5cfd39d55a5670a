package config

import (
	"fmt"
	"os"
	"slices"

	"github.com/set-night/bountyhub/internal/domain"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Markets resolves the economics of a locale, falling back to the default locale.
type Markets struct {
	byLocale      map[string]*domain.Market
	defaultLocale string
}

type marketDefaults struct {
	currency      string
	signupBonus   int64
	minWithdrawal int64
	scale         int64
}

// Currency symbols and amounts per locale.
var defaultMarkets = map[string]marketDefaults{
	"en": {currency: "$", signupBonus: 50, minWithdrawal: 100, scale: 1},
	"zh": {currency: "¥", signupBonus: 50, minWithdrawal: 100, scale: 1},
	"id": {currency: "Rp", signupBonus: 50000, minWithdrawal: 100000, scale: 1000},
	"th": {currency: "฿", signupBonus: 50, minWithdrawal: 300, scale: 10},
	"vi": {currency: "₫", signupBonus: 50000, minWithdrawal: 200000, scale: 1000},
	"ms": {currency: "RM", signupBonus: 10, minWithdrawal: 50, scale: 1},
	"tl": {currency: "₱", signupBonus: 50, minWithdrawal: 500, scale: 10},
}

// DefaultTiers builds the VIP ladder for levels 2..MaxVIPLevel, multiplied by scale.
func DefaultTiers(scale int64) []domain.Tier {
	k := decimal.NewFromInt(scale)
	tiers := []domain.Tier{
		{Level: 2, Threshold: decimal.NewFromInt(100), Bonus: decimal.NewFromInt(5)},
		{Level: 3, Threshold: decimal.NewFromInt(250), Bonus: decimal.NewFromInt(10)},
		{Level: 4, Threshold: decimal.NewFromInt(500), Bonus: decimal.NewFromInt(25)},
	}
	threshold := decimal.NewFromInt(500)
	for level := 5; level <= MaxVIPLevel; level++ {
		threshold = threshold.Mul(decimal.NewFromInt(2))
		tiers = append(tiers, domain.Tier{
			Level:     level,
			Threshold: threshold,
			Bonus:     threshold.Div(decimal.NewFromInt(20)),
		})
	}
	for i := range tiers {
		tiers[i].Threshold = tiers[i].Threshold.Mul(k)
		tiers[i].Bonus = tiers[i].Bonus.Mul(k)
	}
	return tiers
}

func NewMarkets(defaultLocale string, markets ...*domain.Market) (*Markets, error) {
	m := &Markets{byLocale: make(map[string]*domain.Market), defaultLocale: defaultLocale}
	for _, mk := range markets {
		if err := validateTiers(mk.Tiers); err != nil {
			return nil, fmt.Errorf("market %s: %w", mk.Locale, err)
		}
		if err := domain.CheckAmountScale(mk.SignupBonus, mk.MinWithdrawal); err != nil {
			return nil, fmt.Errorf("market %s: %w", mk.Locale, err)
		}
		m.byLocale[mk.Locale] = mk
	}
	if _, ok := m.byLocale[defaultLocale]; !ok {
		return nil, fmt.Errorf("default locale %q has no market", defaultLocale)
	}
	return m, nil
}

// LoadMarkets returns the built-in markets, overridden by the YAML file at path when set.
func LoadMarkets(path, defaultLocale string) (*Markets, error) {
	byLocale := make(map[string]*domain.Market, len(defaultMarkets))
	for locale, d := range defaultMarkets {
		byLocale[locale] = &domain.Market{
			Locale:        locale,
			Currency:      d.currency,
			SignupBonus:   decimal.NewFromInt(d.signupBonus),
			MinWithdrawal: decimal.NewFromInt(d.minWithdrawal),
			Tiers:         DefaultTiers(d.scale),
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read markets file: %w", err)
		}
		var file struct {
			Markets []*domain.Market `yaml:"markets"`
		}
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("parse markets file: %w", err)
		}
		for _, mk := range file.Markets {
			if base, ok := byLocale[mk.Locale]; ok && len(mk.Tiers) == 0 {
				mk.Tiers = base.Tiers
			}
			byLocale[mk.Locale] = mk
		}
	}

	markets := make([]*domain.Market, 0, len(byLocale))
	for _, mk := range byLocale {
		markets = append(markets, mk)
	}
	return NewMarkets(defaultLocale, markets...)
}

func (m *Markets) For(locale string) *domain.Market {
	if mk, ok := m.byLocale[locale]; ok {
		return mk
	}
	return m.byLocale[m.defaultLocale]
}

// Locale normalizes an unknown locale to the default one.
func (m *Markets) Locale(locale string) string {
	if _, ok := m.byLocale[locale]; ok {
		return locale
	}
	return m.defaultLocale
}

func (m *Markets) Locales() []string {
	locales := make([]string, 0, len(m.byLocale))
	for l := range m.byLocale {
		locales = append(locales, l)
	}
	slices.Sort(locales)
	return locales
}

func validateTiers(tiers []domain.Tier) error {
	prevLevel := MinVIPLevel
	prevThreshold := decimal.Zero
	for _, t := range tiers {
		if t.Level <= prevLevel || t.Level > MaxVIPLevel {
			return fmt.Errorf("tier level %d out of order or range", t.Level)
		}
		if !t.Threshold.GreaterThan(prevThreshold) {
			return fmt.Errorf("tier %d threshold %s not above previous", t.Level, t.Threshold)
		}
		if t.Bonus.IsNegative() {
			return fmt.Errorf("tier %d has negative bonus", t.Level)
		}
		if err := domain.CheckAmountScale(t.Bonus); err != nil {
			return fmt.Errorf("tier %d: %w", t.Level, err)
		}
		prevLevel = t.Level
		prevThreshold = t.Threshold
	}
	return nil
}
