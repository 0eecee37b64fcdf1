package models

import "time"

// ClientBalance is the cached cursor over a client's ledger. The ledger
// itself is the source of truth: CurrentBalance always equals the
// balance_after of the most recently committed entry, or zero when the
// client has no entries yet. Version increments on every commit and backs
// optimistic-concurrency checks.
type ClientBalance struct {
	ClientID       string    `json:"client_id"`
	CurrentBalance int64     `json:"current_balance"` // minor units
	Version        int64     `json:"version"`
	LastUpdatedAt  time.Time `json:"last_updated_at"`
}
