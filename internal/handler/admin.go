package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/set-night/bountyhub/internal/domain"
	"github.com/set-night/bountyhub/internal/report"
	"github.com/set-night/bountyhub/internal/service"
	"github.com/shopspring/decimal"
)

func (h *Handler) adminAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.accounts.List(r.Context(), service.AccountSort(r.URL.Query().Get("sort")))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	out := make([]accountView, 0, len(accounts))
	for _, acc := range accounts {
		out = append(out, h.accountView(acc))
	}
	writeJSON(w, http.StatusOK, out)
}

type banRequest struct {
	Banned bool `json:"banned"`
}

func (h *Handler) adminBan(w http.ResponseWriter, r *http.Request) {
	id, err := int64Param(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req banRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	acc, err := h.accounts.SetBanned(r.Context(), id, req.Banned)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.accountView(acc))
}

func (h *Handler) reviewQueue(w http.ResponseWriter, r *http.Request) {
	claims, err := h.tasks.ReviewQueue(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, claimViews(claims))
}

type auditRequest struct {
	Decision domain.Decision `json:"decision"`
	Reason   string          `json:"reason"`
}

func (h *Handler) audit(w http.ResponseWriter, r *http.Request) {
	claimID, err := uuidParam(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req auditRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	res, err := h.tasks.Audit(r.Context(), claimID, req.Decision, req.Reason)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if res.CommissionErr != nil && h.opsLog != nil {
		h.opsLog.LogError(r.Context(), res.CommissionErr, "commission fan-out for claim "+claimID.String())
	}
	writeJSON(w, http.StatusOK, newAuditView(res))
}

func (h *Handler) retryFanOut(w http.ResponseWriter, r *http.Request) {
	claimID, err := uuidParam(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	credits, err := h.tasks.RetryFanOut(r.Context(), claimID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, creditViews(credits))
}

type giftRequest struct {
	AccountID *int64          `json:"account_id"`
	Title     string          `json:"title"`
	Body      string          `json:"body"`
	Amount    decimal.Decimal `json:"amount"`
}

type giftResponse struct {
	Delivered int     `json:"delivered"`
	Failed    []int64 `json:"failed,omitempty"`
}

// gift sends to one account, or to everyone when account_id is omitted.
func (h *Handler) gift(w http.ResponseWriter, r *http.Request) {
	var req giftRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	res, err := h.gifts.Send(r.Context(), service.Gift{
		Target:     req.AccountID,
		Title:      req.Title,
		Body:       req.Body,
		Amount:     req.Amount,
		RequestKey: r.Header.Get(idempotencyHeader),
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, giftResponse{Delivered: res.Delivered, Failed: res.Failed})
}

type createPlatformRequest struct {
	Name          string              `json:"name"`
	LogoURL       string              `json:"logo_url"`
	Description   string              `json:"description"`
	DownloadLink  string              `json:"download_link"`
	FirstDeposit  decimal.Decimal     `json:"first_deposit"`
	Reward        decimal.Decimal     `json:"reward"`
	LaunchDate    time.Time           `json:"launch_date"`
	Hot           bool                `json:"hot"`
	TotalQty      int                 `json:"total_qty"`
	Steps         []string            `json:"steps"`
	Rules         string              `json:"rules"`
	Type          domain.PlatformType `json:"type"`
	TargetLocales []string            `json:"target_locales"`
}

func (h *Handler) createPlatform(w http.ResponseWriter, r *http.Request) {
	var req createPlatformRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	p, err := h.platforms.Create(r.Context(), service.CreatePlatformParams{
		Name:          req.Name,
		LogoURL:       req.LogoURL,
		Description:   req.Description,
		DownloadLink:  req.DownloadLink,
		FirstDeposit:  req.FirstDeposit,
		Reward:        req.Reward,
		LaunchDate:    req.LaunchDate,
		Hot:           req.Hot,
		TotalQty:      req.TotalQty,
		Steps:         req.Steps,
		Rules:         req.Rules,
		Type:          req.Type,
		TargetLocales: req.TargetLocales,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newPlatformView(p))
}

type platformStatusRequest struct {
	Status domain.PlatformStatus `json:"status"`
}

func (h *Handler) setPlatformStatus(w http.ResponseWriter, r *http.Request) {
	id, err := int64Param(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req platformStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.platforms.SetStatus(r.Context(), id, req.Status); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) commissionReport(w http.ResponseWriter, r *http.Request) {
	f, err := report.Commissions(r.Context(), h.accounts)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	defer f.Close()

	filename := fmt.Sprintf("commissions_%s.xlsx", time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if err := f.Write(w); err != nil {
		slog.Error("write commission report", "error", err)
	}
}
