package models

import "time"

// LedgerEntry is one committed row of the client ledger. Entries are
// append-only: once committed they are never updated or deleted, and
// BalanceAfter is frozen at commit time.
type LedgerEntry struct {
	ID             string    `json:"id"`
	ClientID       string    `json:"client_id"`
	Amount         int64     `json:"amount"` // minor units; positive = credit, negative = debit
	BalanceAfter   int64     `json:"balance_after"`
	Reason         string    `json:"reason"`
	Actor          string    `json:"actor"`
	IdempotencyKey *string   `json:"idempotency_key,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}
