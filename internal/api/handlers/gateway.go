package handlers

import (
	"fmt"
	"net/http"

	"github.com/portalops/ledger-backend/internal/api/httpx"
	"github.com/portalops/ledger-backend/internal/api/validate"
	"github.com/portalops/ledger-backend/internal/apperrors"
	"github.com/portalops/ledger-backend/internal/middleware"
	"github.com/portalops/ledger-backend/internal/money"
	"github.com/portalops/ledger-backend/internal/services"
)

type GatewayHandler struct {
	balances *services.BalanceService
}

func NewGatewayHandler(bs *services.BalanceService) *GatewayHandler {
	return &GatewayHandler{balances: bs}
}

type paymentCallbackReq struct {
	ClientID    string `json:"client_id" validate:"required"`
	Amount      string `json:"amount" validate:"required"`
	Method      string `json:"method" validate:"required"`
	ProviderRef string `json:"provider_ref" validate:"required"`
}

// Payment handles a gateway callback. Gateways redeliver callbacks, so
// the provider's transaction reference doubles as the idempotency key: a
// redelivered callback returns the originally committed entry.
func (h *GatewayHandler) Payment(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFrom(r.Context())
	if !ok || actor.Role != services.RoleGateway {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "not a recognized gateway", nil)
		return
	}

	var req paymentCallbackReq
	if err := validate.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "validation_error", "invalid request", err)
		return
	}
	amount, err := money.ParseAmount(req.Amount)
	if err != nil {
		httpx.WriteDomainError(w, err)
		return
	}
	if amount <= 0 {
		httpx.WriteDomainError(w, apperrors.Validationf("amount", "must be positive"))
		return
	}

	reason := fmt.Sprintf("%s payment via %s (ref %s)", req.Method, actor.ID, req.ProviderRef)
	res, err := h.balances.CreditOrDebit(r.Context(), req.ClientID, amount, reason, actor, req.ProviderRef, false)
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
