package handler

import (
	"net/http"

	"github.com/set-night/bountyhub/internal/domain"
	"github.com/set-night/bountyhub/internal/middleware"
	"github.com/shopspring/decimal"
)

func (h *Handler) listPlatforms(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	platforms, err := h.platforms.List(r.Context(), q.Get("locale"), domain.SortOption(q.Get("sort")))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	out := make([]platformView, 0, len(platforms))
	for _, p := range platforms {
		out = append(out, newPlatformView(p))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) getPlatform(w http.ResponseWriter, r *http.Request) {
	id, err := int64Param(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	p, err := h.platforms.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newPlatformView(p))
}

func (h *Handler) join(w http.ResponseWriter, r *http.Request) {
	platformID, err := int64Param(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	claim, err := h.tasks.Join(r.Context(), middleware.AccountID(r.Context()), platformID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newClaimView(claim))
}

type proofRequest struct {
	ProofRef string `json:"proof_ref"`
}

func (h *Handler) submitProof(w http.ResponseWriter, r *http.Request) {
	claimID, err := uuidParam(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req proofRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	claim, err := h.tasks.SubmitProof(r.Context(), middleware.AccountID(r.Context()), claimID, req.ProofRef)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newClaimView(claim))
}

type withdrawalRequest struct {
	Amount     decimal.Decimal `json:"amount"`
	AccountRef string          `json:"account_ref"`
}

func (h *Handler) withdraw(w http.ResponseWriter, r *http.Request) {
	var req withdrawalRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	entry, err := h.withdrawals.Request(r.Context(), middleware.AccountID(r.Context()), req.Amount, req.AccountRef)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newTransactionView(*entry))
}
