package domain

import "github.com/shopspring/decimal"

type Tier struct {
	Level     int             `yaml:"level"`
	Threshold decimal.Decimal `yaml:"threshold"`
	Bonus     decimal.Decimal `yaml:"bonus"`
}

// Market holds the per-locale economics.
type Market struct {
	Locale        string          `yaml:"locale"`
	Currency      string          `yaml:"currency"`
	SignupBonus   decimal.Decimal `yaml:"signup_bonus"`
	MinWithdrawal decimal.Decimal `yaml:"min_withdrawal"`
	Tiers         []Tier          `yaml:"tiers"`
}

// TierFor returns the tier configured for level.
func (m *Market) TierFor(level int) (Tier, bool) {
	for _, t := range m.Tiers {
		if t.Level == level {
			return t, true
		}
	}
	return Tier{}, false
}
