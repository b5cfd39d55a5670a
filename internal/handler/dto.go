package handler

import (
	"time"

	"github.com/google/uuid"
	"github.com/set-night/bountyhub/internal/domain"
	"github.com/set-night/bountyhub/internal/service"
	"github.com/shopspring/decimal"
)

type accountView struct {
	ID            int64           `json:"id"`
	Phone         string          `json:"phone"`
	ReferralCode  string          `json:"referral_code"`
	ReferralLink  string          `json:"referral_link"`
	Locale        string          `json:"locale"`
	Currency      string          `json:"currency"`
	Balance       decimal.Decimal `json:"balance"`
	TotalEarnings decimal.Decimal `json:"total_earnings"`
	VIPLevel      int             `json:"vip_level"`
	ReferrerID    *int64          `json:"referrer_id,omitempty"`
	BankInfo      string          `json:"bank_info,omitempty"`
	Banned        bool            `json:"banned"`
	CreatedAt     time.Time       `json:"created_at"`
}

func (h *Handler) accountView(acc *domain.Account) accountView {
	return accountView{
		ID:            acc.ID,
		Phone:         acc.Phone,
		ReferralCode:  acc.ReferralCode,
		ReferralLink:  h.cfg.ReferralLink(acc.ReferralCode),
		Locale:        acc.Locale,
		Currency:      acc.Currency,
		Balance:       acc.Balance,
		TotalEarnings: acc.TotalEarnings,
		VIPLevel:      acc.VIPLevel,
		ReferrerID:    acc.ReferrerID,
		BankInfo:      acc.BankInfo,
		Banned:        acc.Banned,
		CreatedAt:     acc.CreatedAt,
	}
}

type transactionView struct {
	ID          uuid.UUID       `json:"id"`
	Type        domain.TxType   `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Status      domain.TxStatus `json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
}

func newTransactionView(t domain.Transaction) transactionView {
	return transactionView{
		ID:          t.ID,
		Type:        t.Type,
		Amount:      t.Amount,
		Description: t.Description,
		Status:      t.Status,
		CreatedAt:   t.CreatedAt,
	}
}

func transactionViews(ts []domain.Transaction) []transactionView {
	out := make([]transactionView, 0, len(ts))
	for _, t := range ts {
		out = append(out, newTransactionView(t))
	}
	return out
}

type claimView struct {
	ID           uuid.UUID          `json:"id"`
	AccountID    int64              `json:"account_id"`
	PlatformID   int64              `json:"platform_id"`
	PlatformName string             `json:"platform_name"`
	LogoURL      string             `json:"logo_url,omitempty"`
	Reward       decimal.Decimal    `json:"reward"`
	Status       domain.ClaimStatus `json:"status"`
	StartedAt    time.Time          `json:"started_at"`
	SubmittedAt  *time.Time         `json:"submitted_at,omitempty"`
	AuditedAt    *time.Time         `json:"audited_at,omitempty"`
	ProofRef     string             `json:"proof_ref,omitempty"`
	RejectReason string             `json:"reject_reason,omitempty"`
}

func newClaimView(c *domain.Claim) claimView {
	return claimView{
		ID:           c.ID,
		AccountID:    c.AccountID,
		PlatformID:   c.PlatformID,
		PlatformName: c.PlatformName,
		LogoURL:      c.LogoURL,
		Reward:       c.Reward,
		Status:       c.Status,
		StartedAt:    c.StartedAt,
		SubmittedAt:  c.SubmittedAt,
		AuditedAt:    c.AuditedAt,
		ProofRef:     c.ProofRef,
		RejectReason: c.RejectReason,
	}
}

func claimViews(cs []*domain.Claim) []claimView {
	out := make([]claimView, 0, len(cs))
	for _, c := range cs {
		out = append(out, newClaimView(c))
	}
	return out
}

type platformView struct {
	ID            int64                 `json:"id"`
	Name          string                `json:"name"`
	LogoURL       string                `json:"logo_url,omitempty"`
	Description   string                `json:"description,omitempty"`
	DownloadLink  string                `json:"download_link,omitempty"`
	FirstDeposit  decimal.Decimal       `json:"first_deposit"`
	Reward        decimal.Decimal       `json:"reward"`
	LaunchDate    time.Time             `json:"launch_date"`
	Hot           bool                  `json:"hot"`
	RemainingQty  int                   `json:"remaining_qty"`
	TotalQty      int                   `json:"total_qty"`
	Steps         []string              `json:"steps,omitempty"`
	Rules         string                `json:"rules,omitempty"`
	Status        domain.PlatformStatus `json:"status"`
	Type          domain.PlatformType   `json:"type"`
	TargetLocales []string              `json:"target_locales,omitempty"`
}

func newPlatformView(p *domain.Platform) platformView {
	return platformView{
		ID:            p.ID,
		Name:          p.Name,
		LogoURL:       p.LogoURL,
		Description:   p.Description,
		DownloadLink:  p.DownloadLink,
		FirstDeposit:  p.FirstDeposit,
		Reward:        p.Reward,
		LaunchDate:    p.LaunchDate,
		Hot:           p.Hot,
		RemainingQty:  p.RemainingQty,
		TotalQty:      p.TotalQty,
		Steps:         p.Steps,
		Rules:         p.Rules,
		Status:        p.Status,
		Type:          p.Type,
		TargetLocales: p.TargetLocales,
	}
}

type messageView struct {
	ID        uuid.UUID          `json:"id"`
	Kind      domain.MessageKind `json:"kind"`
	Title     string             `json:"title"`
	Body      string             `json:"body,omitempty"`
	Amount    decimal.Decimal    `json:"amount"`
	Read      bool               `json:"read"`
	CreatedAt time.Time          `json:"created_at"`
}

func newMessageView(m *domain.Message) messageView {
	return messageView{
		ID:        m.ID,
		Kind:      m.Kind,
		Title:     m.Title,
		Body:      m.Body,
		Amount:    m.Amount,
		Read:      m.Read,
		CreatedAt: m.CreatedAt,
	}
}

type creditView struct {
	Level     int             `json:"level"`
	AccountID int64           `json:"account_id"`
	Amount    decimal.Decimal `json:"amount"`
	EntryID   uuid.UUID       `json:"entry_id"`
	Duplicate bool            `json:"duplicate,omitempty"`
}

func creditViews(cs []service.Credit) []creditView {
	out := make([]creditView, 0, len(cs))
	for _, c := range cs {
		out = append(out, creditView{
			Level:     c.Level,
			AccountID: c.AccountID,
			Amount:    c.Amount,
			EntryID:   c.EntryID,
			Duplicate: c.Duplicate,
		})
	}
	return out
}

type auditView struct {
	Claim           claimView        `json:"claim"`
	Reward          *transactionView `json:"reward,omitempty"`
	VIPBonus        *transactionView `json:"vip_bonus,omitempty"`
	Commissions     []creditView     `json:"commissions"`
	CommissionError string           `json:"commission_error,omitempty"`
}

func newAuditView(res *service.AuditResult) auditView {
	v := auditView{
		Claim:       newClaimView(res.Claim),
		Commissions: creditViews(res.Commissions),
	}
	if res.Reward != nil {
		t := newTransactionView(*res.Reward)
		v.Reward = &t
	}
	if res.VIPBonus != nil {
		t := newTransactionView(*res.VIPBonus)
		v.VIPBonus = &t
	}
	if res.CommissionErr != nil {
		v.CommissionError = res.CommissionErr.Error()
	}
	return v
}

type teamView struct {
	Levels      []int             `json:"levels"`
	Commissions []decimal.Decimal `json:"commissions"`
	Total       int               `json:"total"`
}

func newTeamView(t *service.TeamStats) teamView {
	return teamView{
		Levels:      t.Levels[:],
		Commissions: t.Commissions[:],
		Total:       t.Total,
	}
}

type eventView struct {
	Entry         transactionView `json:"entry"`
	Balance       decimal.Decimal `json:"balance"`
	TotalEarnings decimal.Decimal `json:"total_earnings"`
	VIPLevel      int             `json:"vip_level"`
}

func newEventView(ev domain.LedgerEvent) eventView {
	return eventView{
		Entry:         newTransactionView(ev.Entry),
		Balance:       ev.Balance,
		TotalEarnings: ev.TotalEarnings,
		VIPLevel:      ev.VIPLevel,
	}
}
