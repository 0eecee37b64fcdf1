package services

import "github.com/portalops/ledger-backend/internal/models"

// RoleGateway marks a recognized external payment gateway. Gateways are
// not users; they authenticate with a shared key and may only credit.
const RoleGateway = "gateway"

// Actor is the authenticated principal behind a request.
type Actor struct {
	ID   string // user id, or gateway name
	Role string // models.RoleAdmin, models.RoleViewer, RoleGateway
}

// Ref is the audit-friendly identifier stored on ledger entries.
func (a Actor) Ref() string { return a.Role + ":" + a.ID }

func (a Actor) CanMutate() bool {
	return a.Role == models.RoleAdmin || a.Role == RoleGateway
}

func (a Actor) IsAdmin() bool { return a.Role == models.RoleAdmin }
