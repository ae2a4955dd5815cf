package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rewards_ledger/model"
)

// SeedDemo inserts a demonstration pending withdrawal. Fixture data only;
// gated behind SEED_DEMO_DATA and skipped when the request log already has
// entries.
func SeedDemo(ctx context.Context, s Store) error {
	existing, err := s.ListRequests(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}
	_, err = s.CreateRequest(ctx, "123456789", func(*model.UserLedger) (*model.WithdrawalRequest, error) {
		return &model.WithdrawalRequest{
			Username:  "testuser",
			UserID:    "123456789",
			Amount:    decimal.NewFromFloat(5.00),
			Timestamp: time.Now().UTC().Add(-10 * time.Second),
			Status:    model.StatusPending,
		}, nil
	})
	return err
}
