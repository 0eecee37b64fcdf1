package repository

import (
	"context"
	"time"

	"github.com/portalops/ledger-backend/internal/models"
)

// AppendRequest describes one proposed balance mutation. Amount is signed
// minor units: positive credits, negative debits.
type AppendRequest struct {
	ClientID       string
	Amount         int64
	Reason         string
	Actor          string
	IdempotencyKey *string
	AllowOverdraft bool
}

// AppendResult carries the committed (or replayed) entry together with the
// balance cursor as of that entry. Replayed is true when the idempotency
// key matched an already committed entry and no new row was written.
type AppendResult struct {
	Entry    models.LedgerEntry
	Balance  models.ClientBalance
	Replayed bool
}

// EntryCursor is the keyset position of the last entry a caller has seen.
type EntryCursor struct {
	CreatedAt time.Time
	ID        string
}

// RecomputeResult reports a full replay of a client's ledger against the
// cached cursor.
type RecomputeResult struct {
	Balance    models.ClientBalance
	Replayed   int64 // sum of amounts over all entries
	EntryCount int64
	Drift      int64 // cursor value minus replayed value before repair
	Repaired   bool
}

// Ledger is the durable store for ledger entries and the balance cursor.
// Append is the only write path; entries are never updated or deleted.
type Ledger interface {
	// Append commits one entry atomically: idempotency check, balance read
	// with a per-client row lock, invariant check, entry insert, and cursor
	// update all happen in a single transaction.
	Append(ctx context.Context, req AppendRequest) (AppendResult, error)

	// GetBalance is a point read of the cached cursor. Returns
	// apperrors.ErrNotFound when the client has no cursor yet.
	GetBalance(ctx context.Context, clientID string) (models.ClientBalance, error)

	// ListEntries returns entries in descending commit order, keyset
	// paginated. A nil cursor starts from the newest entry.
	ListEntries(ctx context.Context, clientID string, limit int, before *EntryCursor) ([]models.LedgerEntry, error)

	// Recompute replays the full ledger history, repairing the cursor if it
	// drifted. Reconciliation path only, never the hot path.
	Recompute(ctx context.Context, clientID string) (RecomputeResult, error)
}

type Clients interface {
	Create(ctx context.Context, c models.Client) (models.Client, error)
	GetByID(ctx context.Context, id string) (models.Client, error)
	List(ctx context.Context) ([]models.Client, error)
	Exists(ctx context.Context, id string) (bool, error)
}

type Users interface {
	Create(ctx context.Context, username, email, passwordHash, role string) (models.User, error)
	GetByID(ctx context.Context, id string) (models.User, error)
	GetByEmail(ctx context.Context, email string) (models.User, error)
}

type AuditLogs interface {
	Create(ctx context.Context, l models.AuditLog) error
}
