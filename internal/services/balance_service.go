package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/portalops/ledger-backend/internal/apperrors"
	"github.com/portalops/ledger-backend/internal/events"
	"github.com/portalops/ledger-backend/internal/idempotency"
	"github.com/portalops/ledger-backend/internal/metrics"
	"github.com/portalops/ledger-backend/internal/models"
	"github.com/portalops/ledger-backend/internal/pagination"
	repo "github.com/portalops/ledger-backend/internal/repository"
	"github.com/portalops/ledger-backend/internal/worker"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
)

// BalanceService is the only public entry point for balance mutation. It
// wraps the ledger store with authorization and input validation; the
// store owns atomicity and per-client serialization.
type BalanceService struct {
	ledger  repo.Ledger
	clients repo.Clients
	audit   repo.AuditLogs
	idem    *idempotency.Cache // may be nil
	pub     *events.Publisher  // may be nil
	wp      *worker.Pool
}

func NewBalanceService(l repo.Ledger, c repo.Clients, a repo.AuditLogs, idem *idempotency.Cache, pub *events.Publisher, wp *worker.Pool) *BalanceService {
	return &BalanceService{ledger: l, clients: c, audit: a, idem: idem, pub: pub, wp: wp}
}

// CreditOrDebit validates and commits one signed balance delta. A positive
// amount credits, a negative amount debits. An empty idemKey means the
// request is single shot; a non-empty key makes retries safe.
func (s *BalanceService) CreditOrDebit(ctx context.Context, clientID string, amount int64, reason string, actor Actor, idemKey string, allowOverdraft bool) (repo.AppendResult, error) {
	if !actor.CanMutate() {
		return repo.AppendResult{}, apperrors.ErrForbidden
	}
	if strings.TrimSpace(clientID) == "" {
		return repo.AppendResult{}, s.reject(apperrors.Validationf("client_id", "required"))
	}
	if amount == 0 {
		return repo.AppendResult{}, s.reject(apperrors.Validationf("amount", "must be nonzero"))
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return repo.AppendResult{}, s.reject(apperrors.Validationf("reason", "required"))
	}
	if actor.Role == RoleGateway {
		// Gateways only ever report received payments.
		if amount < 0 {
			return repo.AppendResult{}, s.reject(apperrors.Validationf("amount", "gateway credits must be positive"))
		}
		if idemKey == "" {
			return repo.AppendResult{}, s.reject(apperrors.Validationf("idempotency_key", "required for gateway callbacks"))
		}
	}
	if allowOverdraft && !actor.IsAdmin() {
		return repo.AppendResult{}, apperrors.ErrForbidden
	}

	ok, err := s.clients.Exists(ctx, clientID)
	if err != nil {
		return repo.AppendResult{}, s.reject(err)
	}
	if !ok {
		return repo.AppendResult{}, s.reject(apperrors.ErrClientNotFound)
	}

	if idemKey != "" {
		if entry, hit := s.idem.Lookup(ctx, clientID, idemKey); hit {
			metrics.IdempotentReplays.Inc()
			bal, err := s.ledger.GetBalance(ctx, clientID)
			if err == nil {
				return repo.AppendResult{Entry: entry, Balance: bal, Replayed: true}, nil
			}
			// Cursor read failed; the store replay path below still works.
		}
	}

	req := repo.AppendRequest{
		ClientID:       clientID,
		Amount:         amount,
		Reason:         reason,
		Actor:          actor.Ref(),
		AllowOverdraft: allowOverdraft,
	}
	if idemKey != "" {
		req.IdempotencyKey = &idemKey
	}

	res, err := s.ledger.Append(ctx, req)
	if err != nil {
		return repo.AppendResult{}, s.reject(err)
	}

	if res.Replayed {
		metrics.IdempotentReplays.Inc()
		return res, nil
	}

	direction := "credit"
	if amount < 0 {
		direction = "debit"
	}
	metrics.AppendsTotal.WithLabelValues(direction, actor.Role).Inc()

	entry := res.Entry
	s.wp.Submit(func() {
		s.auditEntry(entry, "committed", reason)
		s.pub.EntryCommitted(entry)
		if idemKey != "" {
			cctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			s.idem.Store(cctx, clientID, idemKey, entry)
		}
	})
	return res, nil
}

// GetCurrentBalance reads the cached cursor. A client known to the
// registry but without any ledger entry yet reads as zero.
func (s *BalanceService) GetCurrentBalance(ctx context.Context, clientID string) (models.ClientBalance, error) {
	b, err := s.ledger.GetBalance(ctx, clientID)
	if err == nil {
		return b, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return models.ClientBalance{}, err
	}
	ok, exErr := s.clients.Exists(ctx, clientID)
	if exErr != nil {
		return models.ClientBalance{}, exErr
	}
	if !ok {
		return models.ClientBalance{}, apperrors.ErrClientNotFound
	}
	return models.ClientBalance{ClientID: clientID}, nil
}

// GetHistory returns one descending page of entries plus the cursor token
// for the next page ("" when exhausted).
func (s *BalanceService) GetHistory(ctx context.Context, clientID string, limit int, cursorToken string) ([]models.LedgerEntry, string, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	var before *repo.EntryCursor
	if cursorToken != "" {
		createdAt, id, err := pagination.DecodeCursor(cursorToken)
		if err != nil {
			return nil, "", apperrors.Validationf("cursor", "invalid")
		}
		before = &repo.EntryCursor{CreatedAt: createdAt, ID: id}
	}

	entries, err := s.ledger.ListEntries(ctx, clientID, limit, before)
	if err != nil {
		return nil, "", err
	}

	next := ""
	if len(entries) == limit {
		last := entries[len(entries)-1]
		next = pagination.EncodeCursor(last.CreatedAt, last.ID)
	}
	return entries, next, nil
}

// Recompute replays the full history and repairs the cursor on drift.
// Admin-only reconciliation path.
func (s *BalanceService) Recompute(ctx context.Context, clientID string, actor Actor) (repo.RecomputeResult, error) {
	if !actor.IsAdmin() {
		return repo.RecomputeResult{}, apperrors.ErrForbidden
	}
	res, err := s.ledger.Recompute(ctx, clientID)
	if err != nil {
		return repo.RecomputeResult{}, err
	}
	if res.Repaired {
		s.wp.Submit(func() {
			s.auditClient(clientID, "cursor_repaired", map[string]any{
				"drift":   res.Drift,
				"entries": res.EntryCount,
				"actor":   actor.Ref(),
			})
		})
	}
	return res, nil
}

// reject counts the rejection and hands the error back untouched.
func (s *BalanceService) reject(err error) error {
	metrics.AppendsRejected.WithLabelValues(rejectionReason(err)).Inc()
	return err
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, apperrors.ErrValidation):
		return "validation"
	case errors.Is(err, apperrors.ErrInsufficientBalance):
		return "insufficient_balance"
	case errors.Is(err, apperrors.ErrClientNotFound):
		return "not_found"
	case errors.Is(err, apperrors.ErrConcurrencyConflict):
		return "conflict"
	default:
		return "storage"
	}
}

func (s *BalanceService) auditEntry(e models.LedgerEntry, action, details string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = s.audit.Create(ctx, models.AuditLog{
		EntityType: "ledger_entry",
		EntityID:   &e.ID,
		Action:     action,
		Details: map[string]any{
			"client_id":     e.ClientID,
			"amount":        e.Amount,
			"balance_after": e.BalanceAfter,
			"actor":         e.Actor,
			"message":       details,
		},
	})
}

func (s *BalanceService) auditClient(clientID, action string, details map[string]any) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = s.audit.Create(ctx, models.AuditLog{
		EntityType: "client_balance",
		EntityID:   &clientID,
		Action:     action,
		Details:    details,
	})
}
