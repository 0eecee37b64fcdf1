package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/portalops/ledger-backend/internal/apperrors"
	"github.com/portalops/ledger-backend/internal/models"
	repo "github.com/portalops/ledger-backend/internal/repository"
)

// fakeLedger mirrors the store's contract: appends for one client are
// serialized by a per-client lock, the idempotency check happens under
// that lock, and entries are append-only. Each client owns its state so
// cross-client tests exercise real parallelism without sharing anything
// but the registry map.
type fakeLedger struct {
	mu      sync.Mutex // guards the clients map
	clients map[string]*clientState
}

type clientState struct {
	mu      sync.Mutex
	entries []models.LedgerEntry
	cursor  *models.ClientBalance // nil until the first append
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{clients: map[string]*clientState{}}
}

func (f *fakeLedger) state(clientID string) *clientState {
	f.mu.Lock()
	defer f.mu.Unlock()
	st, ok := f.clients[clientID]
	if !ok {
		st = &clientState{}
		f.clients[clientID] = st
	}
	return st
}

func (f *fakeLedger) Append(ctx context.Context, req repo.AppendRequest) (repo.AppendResult, error) {
	st := f.state(req.ClientID)
	st.mu.Lock()
	defer st.mu.Unlock()

	if st.cursor == nil {
		st.cursor = &models.ClientBalance{ClientID: req.ClientID}
	}
	cur := st.cursor

	if req.IdempotencyKey != nil {
		for _, e := range st.entries {
			if e.IdempotencyKey != nil && *e.IdempotencyKey == *req.IdempotencyKey {
				return repo.AppendResult{Entry: e, Balance: *cur, Replayed: true}, nil
			}
		}
	}

	newBalance := cur.CurrentBalance + req.Amount
	if newBalance < 0 && !req.AllowOverdraft {
		return repo.AppendResult{}, apperrors.ErrInsufficientBalance
	}

	entry := models.LedgerEntry{
		ID:             uuid.NewString(),
		ClientID:       req.ClientID,
		Amount:         req.Amount,
		BalanceAfter:   newBalance,
		Reason:         req.Reason,
		Actor:          req.Actor,
		IdempotencyKey: req.IdempotencyKey,
		CreatedAt:      time.Now(),
	}
	st.entries = append(st.entries, entry)
	cur.CurrentBalance = newBalance
	cur.Version++
	cur.LastUpdatedAt = entry.CreatedAt
	return repo.AppendResult{Entry: entry, Balance: *cur}, nil
}

func (f *fakeLedger) GetBalance(ctx context.Context, clientID string) (models.ClientBalance, error) {
	st := f.state(clientID)
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.cursor == nil {
		return models.ClientBalance{}, apperrors.ErrNotFound
	}
	return *st.cursor, nil
}

func (f *fakeLedger) ListEntries(ctx context.Context, clientID string, limit int, before *repo.EntryCursor) ([]models.LedgerEntry, error) {
	st := f.state(clientID)
	st.mu.Lock()
	defer st.mu.Unlock()

	all := append([]models.LedgerEntry(nil), st.entries...)
	sort.Slice(all, func(i, j int) bool { // descending commit order
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID > all[j].ID
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	var out []models.LedgerEntry
	for _, e := range all {
		if before != nil {
			if !e.CreatedAt.Before(before.CreatedAt) && !(e.CreatedAt.Equal(before.CreatedAt) && e.ID < before.ID) {
				continue
			}
		}
		out = append(out, e)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeLedger) Recompute(ctx context.Context, clientID string) (repo.RecomputeResult, error) {
	st := f.state(clientID)
	st.mu.Lock()
	defer st.mu.Unlock()
	cur := st.cursor
	if cur == nil {
		return repo.RecomputeResult{}, apperrors.ErrNotFound
	}
	var sum int64
	for _, e := range st.entries {
		sum += e.Amount
	}
	res := repo.RecomputeResult{
		Balance:    *cur,
		Replayed:   sum,
		EntryCount: int64(len(st.entries)),
		Drift:      cur.CurrentBalance - sum,
	}
	if res.Drift != 0 {
		cur.CurrentBalance = sum
		cur.Version++
		res.Balance = *cur
		res.Repaired = true
	}
	return res, nil
}

// corruptCursor skews the stored balance without touching the entry log,
// simulating drift for repair tests.
func (f *fakeLedger) corruptCursor(clientID string, balance int64) {
	st := f.state(clientID)
	st.mu.Lock()
	defer st.mu.Unlock()
	st.cursor.CurrentBalance = balance
}

type fakeClients struct {
	mu  sync.Mutex
	ids map[string]bool
}

func newFakeClients(ids ...string) *fakeClients {
	m := map[string]bool{}
	for _, id := range ids {
		m[id] = true
	}
	return &fakeClients{ids: m}
}

func (f *fakeClients) Create(ctx context.Context, c models.Client) (models.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	f.ids[c.ID] = true
	return c, nil
}

func (f *fakeClients) GetByID(ctx context.Context, id string) (models.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.ids[id] {
		return models.Client{}, apperrors.ErrNotFound
	}
	return models.Client{ID: id}, nil
}

func (f *fakeClients) List(ctx context.Context) ([]models.Client, error) { return nil, nil }

func (f *fakeClients) Exists(ctx context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ids[id], nil
}

type fakeAudit struct {
	mu   sync.Mutex
	logs []models.AuditLog
}

func (f *fakeAudit) Create(ctx context.Context, l models.AuditLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logs = append(f.logs, l)
	return nil
}
