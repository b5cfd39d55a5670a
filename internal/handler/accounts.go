package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/set-night/bountyhub/internal/config"
	"github.com/set-night/bountyhub/internal/middleware"
	"github.com/set-night/bountyhub/internal/service"
)

type registerRequest struct {
	Phone      string `json:"phone"`
	Password   string `json:"password"`
	Locale     string `json:"locale"`
	InviteCode string `json:"invite_code"`
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	acc, err := h.accounts.Register(r.Context(), service.RegisterParams{
		Phone:      req.Phone,
		Password:   req.Password,
		Locale:     req.Locale,
		InviteCode: req.InviteCode,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, h.accountView(acc))
}

type loginRequest struct {
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	acc, err := h.accounts.Authenticate(r.Context(), req.Phone, req.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.accountView(acc))
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.accountView(middleware.GetAccount(r.Context())))
}

func (h *Handler) myLedger(w http.ResponseWriter, r *http.Request) {
	limit := config.LedgerPageSize
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeErrorMessage(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	entries, err := h.ledger.Entries(r.Context(), middleware.AccountID(r.Context()), limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, transactionViews(entries))
}

func (h *Handler) myTasks(w http.ResponseWriter, r *http.Request) {
	claims, err := h.tasks.Claims(r.Context(), middleware.AccountID(r.Context()))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, claimViews(claims))
}

func (h *Handler) myMessages(w http.ResponseWriter, r *http.Request) {
	msgs, err := h.accounts.Messages(r.Context(), middleware.AccountID(r.Context()))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	out := make([]messageView, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, newMessageView(m))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) markMessagesRead(w http.ResponseWriter, r *http.Request) {
	if err := h.accounts.MarkMessagesRead(r.Context(), middleware.AccountID(r.Context())); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) myTeam(w http.ResponseWriter, r *http.Request) {
	stats, err := h.accounts.Team(r.Context(), middleware.AccountID(r.Context()))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newTeamView(stats))
}

func (h *Handler) referralQR(w http.ResponseWriter, r *http.Request) {
	acc := middleware.GetAccount(r.Context())
	png, err := service.ReferralQR(h.cfg.ReferralLink(acc.ReferralCode), config.QRCodeSize)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "private, max-age=3600")
	if _, err := w.Write(png); err != nil {
		slog.Warn("write qr code", "account_id", acc.ID, "error", err)
	}
}

type payoutRequest struct {
	BankInfo string `json:"bank_info"`
}

func (h *Handler) bindPayout(w http.ResponseWriter, r *http.Request) {
	var req payoutRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	acc, err := h.accounts.BindPayout(r.Context(), middleware.AccountID(r.Context()), req.BankInfo)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.accountView(acc))
}
