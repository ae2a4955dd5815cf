package repository

import (
	"context"

	"github.com/rewards_ledger/model"
)

// Store is the persistence contract for the ledger and the withdrawal log.
// In-memory copies held by clients are caches; every mutation round-trips
// through one of the atomic update methods below.
type Store interface {
	// GetLedger returns the stored ledger, or a zeroed default for unknown users.
	GetLedger(ctx context.Context, userID string) (*model.UserLedger, error)
	// SaveLedger upserts a full ledger record (sync write-through path).
	SaveLedger(ctx context.Context, ledger *model.UserLedger) error
	// UpdateLedger runs fn against the current ledger under a per-user lock
	// and persists the result. fn returning an error aborts without writing.
	UpdateLedger(ctx context.Context, userID string, fn func(*model.UserLedger) error) (*model.UserLedger, error)

	// CreateRequest locks the requester's ledger, calls build to validate and
	// snapshot it, and persists the new request and mutated ledger together.
	CreateRequest(ctx context.Context, userID string, build func(*model.UserLedger) (*model.WithdrawalRequest, error)) (*model.WithdrawalRequest, error)
	// TransitionRequest loads the request, the requester's ledger and the
	// admin stats, applies fn, and persists all three atomically.
	TransitionRequest(ctx context.Context, id int64, fn func(*model.WithdrawalRequest, *model.UserLedger, *model.AdminStats) error) (*model.WithdrawalRequest, error)
	GetRequest(ctx context.Context, id int64) (*model.WithdrawalRequest, error)
	// ListRequests returns the withdrawal log, newest first.
	ListRequests(ctx context.Context) ([]model.WithdrawalRequest, error)

	CountUsers(ctx context.Context) (int64, error)
	CountPendingRequests(ctx context.Context) (int64, error)
	GetStats(ctx context.Context) (*model.AdminStats, error)
	// TopLedgers returns up to n ledgers ordered by points descending.
	TopLedgers(ctx context.Context, n int) ([]model.UserLedger, error)

	// Mode names the backing storage ("postgres" or "memory").
	Mode() string
}
