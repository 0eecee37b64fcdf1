package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/portalops/ledger-backend/internal/apperrors"
	"github.com/portalops/ledger-backend/internal/metrics"
	"github.com/portalops/ledger-backend/internal/models"
	"github.com/portalops/ledger-backend/internal/worker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	admin   = Actor{ID: "u-admin", Role: models.RoleAdmin}
	viewer  = Actor{ID: "u-viewer", Role: models.RoleViewer}
	gateway = Actor{ID: "paypal", Role: RoleGateway}

	registerOnce sync.Once
)

func newTestService(t *testing.T, clientIDs ...string) (*BalanceService, *fakeLedger, *fakeAudit) {
	t.Helper()
	registerOnce.Do(metrics.Init)
	ledger := newFakeLedger()
	audit := &fakeAudit{}
	wp := worker.NewPool(2)
	t.Cleanup(wp.Stop)
	svc := NewBalanceService(ledger, newFakeClients(clientIDs...), audit, nil, nil, wp)
	return svc, ledger, audit
}

func TestCreditOrDebitValidation(t *testing.T) {
	svc, _, _ := newTestService(t, "c1")
	ctx := context.Background()

	_, err := svc.CreditOrDebit(ctx, "c1", 0, "zero", admin, "", false)
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = svc.CreditOrDebit(ctx, "c1", 100, "   ", admin, "", false)
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = svc.CreditOrDebit(ctx, "", 100, "no client", admin, "", false)
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = svc.CreditOrDebit(ctx, "ghost", 100, "unknown client", admin, "", false)
	assert.ErrorIs(t, err, apperrors.ErrClientNotFound)

	_, err = svc.CreditOrDebit(ctx, "c1", 100, "read-only actor", viewer, "", false)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestGatewayRules(t *testing.T) {
	svc, _, _ := newTestService(t, "c1")
	ctx := context.Background()

	// negative amounts and missing keys are rejected for gateways
	_, err := svc.CreditOrDebit(ctx, "c1", -100, "refund", gateway, "ref-1", false)
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = svc.CreditOrDebit(ctx, "c1", 100, "payment", gateway, "", false)
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = svc.CreditOrDebit(ctx, "c1", 100, "payment", gateway, "ref-1", true)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	res, err := svc.CreditOrDebit(ctx, "c1", 2500, "paypal payment ref-1", gateway, "ref-1", false)
	require.NoError(t, err)
	assert.Equal(t, int64(2500), res.Balance.CurrentBalance)
	assert.Equal(t, "gateway:paypal", res.Entry.Actor)
}

func TestInsufficientBalanceLeavesStateUnchanged(t *testing.T) {
	svc, _, _ := newTestService(t, "c1")
	ctx := context.Background()

	_, err := svc.CreditOrDebit(ctx, "c1", 10000, "opening credit", admin, "", false)
	require.NoError(t, err)

	_, err = svc.CreditOrDebit(ctx, "c1", -15000, "too large debit", admin, "", false)
	assert.ErrorIs(t, err, apperrors.ErrInsufficientBalance)

	b, err := svc.GetCurrentBalance(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, int64(10000), b.CurrentBalance)

	// overdraft flag lets an admin push the balance negative
	res, err := svc.CreditOrDebit(ctx, "c1", -15000, "authorized overdraft", admin, "", true)
	require.NoError(t, err)
	assert.Equal(t, int64(-5000), res.Balance.CurrentBalance)
}

func TestIdempotentReplay(t *testing.T) {
	svc, ledger, _ := newTestService(t, "c1")
	ctx := context.Background()

	first, err := svc.CreditOrDebit(ctx, "c1", 5000, "payment received", admin, "key-1", false)
	require.NoError(t, err)
	assert.False(t, first.Replayed)

	// Same key, different reason text: the first result comes back unchanged.
	second, err := svc.CreditOrDebit(ctx, "c1", 5000, "totally different reason", admin, "key-1", false)
	require.NoError(t, err)
	assert.True(t, second.Replayed)
	assert.Equal(t, first.Entry.ID, second.Entry.ID)
	assert.Equal(t, first.Entry.Reason, second.Entry.Reason)

	entries, err := ledger.ListEntries(ctx, "c1", 100, nil)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	b, err := svc.GetCurrentBalance(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, int64(5000), b.CurrentBalance)
}

func TestConcurrentCreditsSerialize(t *testing.T) {
	svc, ledger, _ := newTestService(t, "c1")
	ctx := context.Background()

	const n = 100
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.CreditOrDebit(ctx, "c1", 100, "bulk credit", admin, fmt.Sprintf("key-%d", i), false)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	b, err := svc.GetCurrentBalance(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, int64(n*100), b.CurrentBalance)
	assert.Equal(t, int64(n), b.Version)

	entries, err := ledger.ListEntries(ctx, "c1", n+10, nil)
	require.NoError(t, err)
	require.Len(t, entries, n)

	// every balance_after 100, 200, ... 10000 appears exactly once
	seen := map[int64]int{}
	for _, e := range entries {
		seen[e.BalanceAfter]++
	}
	for v := int64(100); v <= n*100; v += 100 {
		assert.Equal(t, 1, seen[v], "balance_after %d", v)
	}
}

func TestCrossClientIndependence(t *testing.T) {
	svc, ledger, _ := newTestService(t, "a", "b")
	ctx := context.Background()

	var wg sync.WaitGroup
	for _, clientID := range []string{"a", "b"} {
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func(clientID string, i int) {
				defer wg.Done()
				_, err := svc.CreditOrDebit(ctx, clientID, 200, "credit", admin, fmt.Sprintf("%s-%d", clientID, i), false)
				assert.NoError(t, err)
			}(clientID, i)

			// readers interleave with writers on both clients
			wg.Add(1)
			go func(clientID string) {
				defer wg.Done()
				_, err := svc.GetCurrentBalance(ctx, clientID)
				assert.NoError(t, err)
				_, _, err = svc.GetHistory(ctx, clientID, 10, "")
				assert.NoError(t, err)
			}(clientID)
		}
	}
	wg.Wait()

	for _, clientID := range []string{"a", "b"} {
		b, err := svc.GetCurrentBalance(ctx, clientID)
		require.NoError(t, err)
		assert.Equal(t, int64(50*200), b.CurrentBalance)

		entries, err := ledger.ListEntries(ctx, clientID, 100, nil)
		require.NoError(t, err)
		var sum int64
		for _, e := range entries {
			sum += e.Amount
		}
		assert.Equal(t, b.CurrentBalance, sum)
	}
}

func TestReplayConsistencyThroughHistory(t *testing.T) {
	svc, _, _ := newTestService(t, "c1")
	ctx := context.Background()

	amounts := []int64{5000, -1200, 300, -400, 2500}
	for i, a := range amounts {
		_, err := svc.CreditOrDebit(ctx, "c1", a, "movement", admin, fmt.Sprintf("k-%d", i), false)
		require.NoError(t, err)
	}

	// walk paginated history and sum
	var sum int64
	var count int
	cursor := ""
	for {
		page, next, err := svc.GetHistory(ctx, "c1", 2, cursor)
		require.NoError(t, err)
		for _, e := range page {
			sum += e.Amount
			count++
		}
		if next == "" || len(page) == 0 {
			break
		}
		cursor = next
	}

	b, err := svc.GetCurrentBalance(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, b.CurrentBalance, sum)
	assert.Equal(t, len(amounts), count)
}

func TestGetCurrentBalanceUnknownClient(t *testing.T) {
	svc, _, _ := newTestService(t, "c1")
	ctx := context.Background()

	// registered but no entries yet: zero, not an error
	b, err := svc.GetCurrentBalance(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), b.CurrentBalance)

	_, err = svc.GetCurrentBalance(ctx, "ghost")
	assert.ErrorIs(t, err, apperrors.ErrClientNotFound)
}

func TestGetHistoryRejectsBadCursor(t *testing.T) {
	svc, _, _ := newTestService(t, "c1")
	_, _, err := svc.GetHistory(context.Background(), "c1", 10, "garbage-cursor")
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestRecompute(t *testing.T) {
	svc, ledger, _ := newTestService(t, "c1")
	ctx := context.Background()

	_, err := svc.CreditOrDebit(ctx, "c1", 7000, "opening", admin, "", false)
	require.NoError(t, err)

	_, err = svc.Recompute(ctx, "c1", viewer)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	res, err := svc.Recompute(ctx, "c1", admin)
	require.NoError(t, err)
	assert.False(t, res.Repaired)
	assert.Equal(t, int64(7000), res.Replayed)
	assert.Equal(t, int64(1), res.EntryCount)

	// corrupt the cursor behind the store's back, then repair
	ledger.corruptCursor("c1", 9999)
	res, err = svc.Recompute(ctx, "c1", admin)
	require.NoError(t, err)
	assert.True(t, res.Repaired)
	assert.Equal(t, int64(2999), res.Drift)
	assert.Equal(t, int64(7000), res.Balance.CurrentBalance)

	b, err := svc.GetCurrentBalance(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, int64(7000), b.CurrentBalance)

	entries, err := ledger.ListEntries(ctx, "c1", 10, nil)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestErrorsAreTyped(t *testing.T) {
	// retryable vs terminal classification used by callers
	assert.True(t, errors.Is(fmt.Errorf("%w: lock", apperrors.ErrConcurrencyConflict), apperrors.ErrConcurrencyConflict))
	assert.False(t, errors.Is(apperrors.ErrInsufficientBalance, apperrors.ErrValidation))
}
