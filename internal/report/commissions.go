// Package report renders admin spreadsheets.
package report

import (
	"context"
	"fmt"

	"github.com/set-night/bountyhub/internal/domain"
	"github.com/set-night/bountyhub/internal/service"
	"github.com/xuri/excelize/v2"
)

const commissionSheet = "Commissions"

var commissionHeaders = []string{
	"Account ID", "Phone", "Referral code", "Locale", "VIP level",
	"Level 1 members", "Level 2 members", "Level 3 members",
	"Level 1 commission", "Level 2 commission", "Level 3 commission", "Total commission",
	"Balance", "Total earnings", "Banned", "Registered",
}

type AccountSource interface {
	List(ctx context.Context, sortBy service.AccountSort) ([]*domain.Account, error)
	Team(ctx context.Context, accountID int64) (*service.TeamStats, error)
}

// Commissions builds one row per account with its downline sizes and the
// commission it earned from each referral level, highest balance first.
func Commissions(ctx context.Context, src AccountSource) (*excelize.File, error) {
	accounts, err := src.List(ctx, service.AccountSortBalance)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}

	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", commissionSheet); err != nil {
		f.Close()
		return nil, err
	}
	for i, header := range commissionHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(commissionSheet, cell, header)
	}

	for i, acc := range accounts {
		team, err := src.Team(ctx, acc.ID)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("team of %d: %w", acc.ID, err)
		}

		total := team.Commissions[0].Add(team.Commissions[1]).Add(team.Commissions[2])
		row := []any{
			acc.ID, acc.DisplayName(), acc.ReferralCode, acc.Locale, acc.VIPLevel,
			team.Levels[0], team.Levels[1], team.Levels[2],
			team.Commissions[0].InexactFloat64(), team.Commissions[1].InexactFloat64(), team.Commissions[2].InexactFloat64(),
			total.InexactFloat64(),
			acc.Balance.InexactFloat64(), acc.TotalEarnings.InexactFloat64(),
			acc.Banned, acc.CreatedAt.Format("02.01.2006 15:04"),
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(commissionSheet, cell, &row); err != nil {
			f.Close()
			return nil, fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	f.SetColWidth(commissionSheet, "B", "C", 16)
	f.SetColWidth(commissionSheet, "F", "P", 18)
	return f, nil
}
