package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/portalops/ledger-backend/internal/api/httpx"
	"github.com/portalops/ledger-backend/internal/api/validate"
	"github.com/portalops/ledger-backend/internal/middleware"
	"github.com/portalops/ledger-backend/internal/models"
	"github.com/portalops/ledger-backend/internal/money"
	repo "github.com/portalops/ledger-backend/internal/repository"
	"github.com/portalops/ledger-backend/internal/services"
)

type LedgerHandler struct {
	balances *services.BalanceService
}

func NewLedgerHandler(bs *services.BalanceService) *LedgerHandler {
	return &LedgerHandler{balances: bs}
}

// entryDTO renders amounts as decimal strings; minor units never leak to
// JSON consumers as numbers they might float-parse.
type entryDTO struct {
	ID             string    `json:"id"`
	ClientID       string    `json:"client_id"`
	Amount         string    `json:"amount"`
	BalanceAfter   string    `json:"balance_after"`
	Reason         string    `json:"reason"`
	Actor          string    `json:"actor"`
	IdempotencyKey *string   `json:"idempotency_key,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

type balanceDTO struct {
	ClientID       string    `json:"client_id"`
	CurrentBalance string    `json:"current_balance"`
	Version        int64     `json:"version"`
	LastUpdatedAt  time.Time `json:"last_updated_at"`
}

type mutationResp struct {
	Entry    entryDTO   `json:"entry"`
	Balance  balanceDTO `json:"balance"`
	Replayed bool       `json:"replayed"`
}

func toEntryDTO(e models.LedgerEntry) entryDTO {
	return entryDTO{
		ID:             e.ID,
		ClientID:       e.ClientID,
		Amount:         money.Format(e.Amount),
		BalanceAfter:   money.Format(e.BalanceAfter),
		Reason:         e.Reason,
		Actor:          e.Actor,
		IdempotencyKey: e.IdempotencyKey,
		CreatedAt:      e.CreatedAt,
	}
}

func toBalanceDTO(b models.ClientBalance) balanceDTO {
	return balanceDTO{
		ClientID:       b.ClientID,
		CurrentBalance: money.Format(b.CurrentBalance),
		Version:        b.Version,
		LastUpdatedAt:  b.LastUpdatedAt,
	}
}

func toMutationResp(res repo.AppendResult) mutationResp {
	return mutationResp{
		Entry:    toEntryDTO(res.Entry),
		Balance:  toBalanceDTO(res.Balance),
		Replayed: res.Replayed,
	}
}

type adjustReq struct {
	Amount         string `json:"amount" validate:"required"`
	Reason         string `json:"reason" validate:"required"`
	AllowOverdraft bool   `json:"allow_overdraft"`
}

// Adjust commits one signed credit/debit for a client. The optional
// Idempotency-Key header (a submit nonce from the dashboard form) guards
// against double-click double-submission.
func (h *LedgerHandler) Adjust(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFrom(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "not authenticated", nil)
		return
	}

	var req adjustReq
	if err := validate.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "validation_error", "invalid request", err)
		return
	}
	amount, err := money.ParseAmount(req.Amount)
	if err != nil {
		httpx.WriteDomainError(w, err)
		return
	}

	res, err := h.balances.CreditOrDebit(
		r.Context(),
		chi.URLParam(r, "id"),
		amount,
		req.Reason,
		actor,
		r.Header.Get("Idempotency-Key"),
		req.AllowOverdraft,
	)
	if err != nil {
		httpx.WriteDomainError(w, err)
		return
	}
	status := http.StatusCreated
	if res.Replayed {
		status = http.StatusOK
	}
	httpx.WriteJSON(w, status, toMutationResp(res))
}

func (h *LedgerHandler) Balance(w http.ResponseWriter, r *http.Request) {
	b, err := h.balances.GetCurrentBalance(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.WriteDomainError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toBalanceDTO(b))
}

type historyResp struct {
	Entries    []entryDTO `json:"entries"`
	NextCursor string     `json:"next_cursor,omitempty"`
}

func (h *LedgerHandler) History(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}

	entries, next, err := h.balances.GetHistory(r.Context(), chi.URLParam(r, "id"), limit, r.URL.Query().Get("cursor"))
	if err != nil {
		httpx.WriteDomainError(w, err)
		return
	}

	resp := historyResp{Entries: make([]entryDTO, 0, len(entries)), NextCursor: next}
	for _, e := range entries {
		resp.Entries = append(resp.Entries, toEntryDTO(e))
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

type recomputeResp struct {
	Balance    balanceDTO `json:"balance"`
	Replayed   string     `json:"replayed"`
	EntryCount int64      `json:"entry_count"`
	Drift      string     `json:"drift"`
	Repaired   bool       `json:"repaired"`
}

func (h *LedgerHandler) Recompute(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFrom(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "not authenticated", nil)
		return
	}
	res, err := h.balances.Recompute(r.Context(), chi.URLParam(r, "id"), actor)
	if err != nil {
		httpx.WriteDomainError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, recomputeResp{
		Balance:    toBalanceDTO(res.Balance),
		Replayed:   money.Format(res.Replayed),
		EntryCount: res.EntryCount,
		Drift:      money.Format(res.Drift),
		Repaired:   res.Repaired,
	})
}
