package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rewards_ledger/model"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	ledger := model.NewLedger("u1")
	ledger.Username = "alice"
	ledger.Points = 7
	ledger.Balance = decimal.RequireFromString("0.35")
	ledger.AddEvent(model.EventEarn, "+1 Point(s) from Ad", time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC))

	require.NoError(t, s.SaveLedger(ctx, ledger))

	got, err := s.GetLedger(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, ledger.Username, got.Username)
	assert.Equal(t, ledger.Points, got.Points)
	assert.True(t, ledger.Balance.Equal(got.Balance))
	assert.Equal(t, ledger.History, got.History)
}

func TestMemoryStoreUnknownUserDefaults(t *testing.T) {
	s := NewMemoryStore()
	got, err := s.GetLedger(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Equal(t, int64(0), got.Points)
	assert.True(t, got.Balance.IsZero())
	assert.Empty(t, got.History)

	n, err := s.CountUsers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), n, "a default read must not create a user")
}

func TestMemoryStoreClonesOnRead(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	ledger := model.NewLedger("u1")
	ledger.AddEvent(model.EventEarn, "first", time.Now().UTC())
	require.NoError(t, s.SaveLedger(ctx, ledger))

	got, _ := s.GetLedger(ctx, "u1")
	got.History[0].Detail = "mutated by caller"

	again, _ := s.GetLedger(ctx, "u1")
	assert.Equal(t, "first", again.History[0].Detail)
}

func TestMemoryStoreConcurrentUpdates(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	const n = 200

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.UpdateLedger(ctx, "u1", func(l *model.UserLedger) error {
				l.Points++
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := s.GetLedger(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(n), got.Points, "no lost updates under concurrent credits")
}

func TestMemoryStoreRequestLifecycle(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	ledger := model.NewLedger("u1")
	ledger.Points = 10
	ledger.Balance = decimal.RequireFromString("0.50")
	require.NoError(t, s.SaveLedger(ctx, ledger))

	req, err := s.CreateRequest(ctx, "u1", func(l *model.UserLedger) (*model.WithdrawalRequest, error) {
		r := &model.WithdrawalRequest{
			Username:  "alice",
			UserID:    "u1",
			Amount:    l.Balance,
			Points:    l.Points,
			Timestamp: time.Now().UTC(),
			Status:    model.StatusPending,
		}
		l.Balance = decimal.Zero
		l.Points = 0
		return r, nil
	})
	require.NoError(t, err)
	assert.NotZero(t, req.ID)

	// Ledger mutation and request creation were one atomic step.
	after, _ := s.GetLedger(ctx, "u1")
	assert.True(t, after.Balance.IsZero())

	got, err := s.GetRequest(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, got.Status)

	_, err = s.TransitionRequest(ctx, req.ID, func(r *model.WithdrawalRequest, _ *model.UserLedger, stats *model.AdminStats) error {
		r.Status = model.StatusApproved
		stats.TotalPaid = stats.TotalPaid.Add(r.Amount)
		return nil
	})
	require.NoError(t, err)

	stats, err := s.GetStats(ctx)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("0.50").Equal(stats.TotalPaid))

	_, err = s.TransitionRequest(ctx, 999999, func(*model.WithdrawalRequest, *model.UserLedger, *model.AdminStats) error {
		return nil
	})
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestMemoryStoreListNewestFirst(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := s.CreateRequest(ctx, "u1", func(l *model.UserLedger) (*model.WithdrawalRequest, error) {
			return &model.WithdrawalRequest{
				UserID:    "u1",
				Amount:    decimal.NewFromInt(int64(i + 1)),
				Timestamp: time.Now().UTC(),
				Status:    model.StatusPending,
			}, nil
		})
		require.NoError(t, err)
	}

	list, err := s.ListRequests(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Greater(t, list[0].ID, list[1].ID)
	assert.Greater(t, list[1].ID, list[2].ID)
}

func TestNextRequestIDCollisionBump(t *testing.T) {
	at := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	base := at.UnixMilli()
	taken := map[int64]bool{base: true, base + 1: true}
	id := nextRequestID(at, func(id int64) bool { return taken[id] })
	assert.Equal(t, base+2, id)
}

func TestSeedDemo(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, SeedDemo(ctx, s))
	list, err := s.ListRequests(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "testuser", list[0].Username)
	assert.Equal(t, model.StatusPending, list[0].Status)
	assert.True(t, decimal.RequireFromString("5").Equal(list[0].Amount))

	// Idempotent: an already-populated log is left alone.
	require.NoError(t, SeedDemo(ctx, s))
	list, _ = s.ListRequests(ctx)
	assert.Len(t, list, 1)
}
