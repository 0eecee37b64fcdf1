package postgres

import (
	"github.com/jackc/pgx/v5/pgxpool"
	repo "github.com/portalops/ledger-backend/internal/repository"
)

type Repositories struct {
	Ledger    repo.Ledger
	Clients   repo.Clients
	Users     repo.Users
	AuditLogs repo.AuditLogs
}

func NewRepositories(pool *pgxpool.Pool) Repositories {
	return Repositories{
		Ledger:    &ledgerRepo{pool},
		Clients:   &clientsRepo{pool},
		Users:     &usersRepo{pool},
		AuditLogs: &auditLogsRepo{pool},
	}
}
