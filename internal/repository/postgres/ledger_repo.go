package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/portalops/ledger-backend/internal/apperrors"
	"github.com/portalops/ledger-backend/internal/models"
	repo "github.com/portalops/ledger-backend/internal/repository"
)

type ledgerRepo struct{ pool *pgxpool.Pool }

const entryColumns = `id, client_id, amount, balance_after, reason, actor, idempotency_key, created_at`

// Append commits one ledger entry. The ON CONFLICT upsert on
// client_balances both creates the cursor lazily and takes its row lock,
// so every step after it runs serialized per client. The idempotency
// lookup happens under that lock; the partial unique index is a backstop
// for transactions racing on different connections.
func (r *ledgerRepo) Append(ctx context.Context, req repo.AppendRequest) (repo.AppendResult, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.ReadCommitted,
		AccessMode: pgx.ReadWrite,
	})
	if err != nil {
		return repo.AppendResult{}, mapErr(err)
	}
	defer tx.Rollback(ctx)

	var cur models.ClientBalance
	err = tx.QueryRow(ctx,
		`INSERT INTO client_balances (client_id, current_balance, version)
		 VALUES ($1, 0, 0)
		 ON CONFLICT (client_id) DO UPDATE SET client_id = EXCLUDED.client_id
		 RETURNING client_id, current_balance, version, last_updated_at`,
		req.ClientID,
	).Scan(&cur.ClientID, &cur.CurrentBalance, &cur.Version, &cur.LastUpdatedAt)
	if err != nil {
		return repo.AppendResult{}, mapErr(err)
	}

	if req.IdempotencyKey != nil {
		existing, err := scanEntry(tx.QueryRow(ctx,
			`SELECT `+entryColumns+` FROM ledger_entries WHERE client_id=$1 AND idempotency_key=$2`,
			req.ClientID, *req.IdempotencyKey,
		))
		if err == nil {
			// Replay path: return the committed entry unchanged.
			return repo.AppendResult{Entry: existing, Balance: cur, Replayed: true}, nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return repo.AppendResult{}, mapErr(err)
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
	}
	err = tx.QueryRow(ctx,
		`INSERT INTO ledger_entries (id, client_id, amount, balance_after, reason, actor, idempotency_key)
		 VALUES ($1,$2,$3,$4,$5,$6,$7)
		 RETURNING created_at`,
		entry.ID, entry.ClientID, entry.Amount, entry.BalanceAfter, entry.Reason, entry.Actor, entry.IdempotencyKey,
	).Scan(&entry.CreatedAt)
	if err != nil {
		if isUniqueViolation(err, "ledger_entries_client_idem_uq") {
			return repo.AppendResult{}, fmt.Errorf("%w: idempotency key", apperrors.ErrConcurrencyConflict)
		}
		return repo.AppendResult{}, mapErr(err)
	}

	err = tx.QueryRow(ctx,
		`UPDATE client_balances
		    SET current_balance = $2,
		        version = version + 1,
		        last_updated_at = now()
		  WHERE client_id = $1
		  RETURNING version, last_updated_at`,
		req.ClientID, newBalance,
	).Scan(&cur.Version, &cur.LastUpdatedAt)
	if err != nil {
		return repo.AppendResult{}, mapErr(err)
	}
	cur.CurrentBalance = newBalance

	if err := tx.Commit(ctx); err != nil {
		return repo.AppendResult{}, mapErr(err)
	}
	return repo.AppendResult{Entry: entry, Balance: cur}, nil
}

func (r *ledgerRepo) GetBalance(ctx context.Context, clientID string) (models.ClientBalance, error) {
	var b models.ClientBalance
	err := r.pool.QueryRow(ctx,
		`SELECT client_id, current_balance, version, last_updated_at
		   FROM client_balances
		  WHERE client_id=$1`,
		clientID,
	).Scan(&b.ClientID, &b.CurrentBalance, &b.Version, &b.LastUpdatedAt)
	if err != nil {
		return models.ClientBalance{}, mapErr(err)
	}
	return b, nil
}

func (r *ledgerRepo) ListEntries(ctx context.Context, clientID string, limit int, before *repo.EntryCursor) ([]models.LedgerEntry, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if before == nil {
		rows, err = r.pool.Query(ctx,
			`SELECT `+entryColumns+`
			   FROM ledger_entries
			  WHERE client_id=$1
			  ORDER BY created_at DESC, id DESC
			  LIMIT $2`,
			clientID, limit,
		)
	} else {
		rows, err = r.pool.Query(ctx,
			`SELECT `+entryColumns+`
			   FROM ledger_entries
			  WHERE client_id=$1 AND (created_at, id) < ($2, $3)
			  ORDER BY created_at DESC, id DESC
			  LIMIT $4`,
			clientID, before.CreatedAt, before.ID, limit,
		)
	}
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var out []models.LedgerEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, mapErr(err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, mapErr(err)
	}
	return out, nil
}

// Recompute replays the full history under the same row lock appends take,
// so the sum it sees is consistent with the cursor it compares against.
func (r *ledgerRepo) Recompute(ctx context.Context, clientID string) (repo.RecomputeResult, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted, AccessMode: pgx.ReadWrite})
	if err != nil {
		return repo.RecomputeResult{}, mapErr(err)
	}
	defer tx.Rollback(ctx)

	var res repo.RecomputeResult
	err = tx.QueryRow(ctx,
		`SELECT client_id, current_balance, version, last_updated_at
		   FROM client_balances
		  WHERE client_id=$1
		  FOR UPDATE`,
		clientID,
	).Scan(&res.Balance.ClientID, &res.Balance.CurrentBalance, &res.Balance.Version, &res.Balance.LastUpdatedAt)
	if err != nil {
		return repo.RecomputeResult{}, mapErr(err)
	}

	err = tx.QueryRow(ctx,
		`SELECT COALESCE(SUM(amount), 0), COUNT(*) FROM ledger_entries WHERE client_id=$1`,
		clientID,
	).Scan(&res.Replayed, &res.EntryCount)
	if err != nil {
		return repo.RecomputeResult{}, mapErr(err)
	}

	res.Drift = res.Balance.CurrentBalance - res.Replayed
	if res.Drift != 0 {
		err = tx.QueryRow(ctx,
			`UPDATE client_balances
			    SET current_balance = $2,
			        version = version + 1,
			        last_updated_at = now()
			  WHERE client_id = $1
			  RETURNING version, last_updated_at`,
			clientID, res.Replayed,
		).Scan(&res.Balance.Version, &res.Balance.LastUpdatedAt)
		if err != nil {
			return repo.RecomputeResult{}, mapErr(err)
		}
		res.Balance.CurrentBalance = res.Replayed
		res.Repaired = true
	}

	if err := tx.Commit(ctx); err != nil {
		return repo.RecomputeResult{}, mapErr(err)
	}
	return res, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (models.LedgerEntry, error) {
	var e models.LedgerEntry
	err := row.Scan(&e.ID, &e.ClientID, &e.Amount, &e.BalanceAfter, &e.Reason, &e.Actor, &e.IdempotencyKey, &e.CreatedAt)
	return e, err
}
