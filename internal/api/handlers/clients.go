package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/portalops/ledger-backend/internal/api/httpx"
	"github.com/portalops/ledger-backend/internal/api/validate"
	"github.com/portalops/ledger-backend/internal/services"
)

type ClientsHandler struct {
	clients *services.ClientService
}

func NewClientsHandler(cs *services.ClientService) *ClientsHandler {
	return &ClientsHandler{clients: cs}
}

type createClientReq struct {
	Name  string `json:"name" validate:"required,min=2"`
	Email string `json:"email" validate:"required,email"`
}

func (h *ClientsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createClientReq
	if err := validate.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "validation_error", "invalid request", err)
		return
	}
	c, err := h.clients.Create(r.Context(), req.Name, req.Email)
	if err != nil {
		httpx.WriteDomainError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, c)
}

func (h *ClientsHandler) Get(w http.ResponseWriter, r *http.Request) {
	c, err := h.clients.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.WriteDomainError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, c)
}

func (h *ClientsHandler) List(w http.ResponseWriter, r *http.Request) {
	cs, err := h.clients.List(r.Context())
	if err != nil {
		httpx.WriteDomainError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, cs)
}
