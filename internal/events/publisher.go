// Package events publishes ledger domain events for downstream consumers
// (the portal's notification pipeline). Publishing is best effort: a
// committed entry is never rolled back because the broker was down.
package events

import (
	"encoding/json"
	"log/slog"

	"github.com/nats-io/nats.go"
	"github.com/portalops/ledger-backend/internal/models"
)

const SubjectEntryCommitted = "ledger.entry.committed"

type Publisher struct {
	nc *nats.Conn
}

// NewPublisher wraps a NATS connection. A nil connection yields a disabled
// publisher, which keeps call sites unconditional.
func NewPublisher(nc *nats.Conn) *Publisher {
	return &Publisher{nc: nc}
}

func (p *Publisher) EntryCommitted(e models.LedgerEntry) {
	if p == nil || p.nc == nil {
		return
	}
	data, err := json.Marshal(e)
	if err != nil {
		slog.Error("event marshal", "err", err)
		return
	}
	if err := p.nc.Publish(SubjectEntryCommitted, data); err != nil {
		slog.Warn("event publish", "subject", SubjectEntryCommitted, "err", err)
	}
}
