package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rewards_ledger/model"
	"github.com/rewards_ledger/repository"
)

// errDuplicateToken aborts a credit whose ad-view token was already consumed.
// Internal only; callers see the unchanged ledger, not an error.
var errDuplicateToken = errors.New("duplicate ad-view token")

// LedgerService owns reward accrual and the client sync write-through.
type LedgerService struct {
	store repository.Store
	rate  decimal.Decimal
	log   *zap.Logger
}

func NewLedgerService(store repository.Store, ratePerPoint decimal.Decimal, log *zap.Logger) *LedgerService {
	return &LedgerService{store: store, rate: ratePerPoint, log: log}
}

// GetLedger returns the authoritative ledger, degrading to a zeroed default
// when the store read fails so the client is never blocked.
func (s *LedgerService) GetLedger(ctx context.Context, userID string) (*model.UserLedger, error) {
	ledger, err := s.store.GetLedger(ctx, userID)
	if err != nil {
		s.log.Warn("ledger read failed, serving default", zap.String("user_id", userID), zap.Error(err))
		return model.NewLedger(userID), nil
	}
	return ledger, nil
}

// IssueToken mints an ad-view session token. Passing it back on Credit makes
// a double-fired completion callback a no-op instead of a double credit.
func (s *LedgerService) IssueToken() string {
	return uuid.NewString()
}

// Credit applies a completed ad view: points += units, balance recomputed at
// the configured rate, one earn event prepended. A token seen before for this
// user makes the call a no-op returning the current ledger.
func (s *LedgerService) Credit(ctx context.Context, userID string, units int64, token string) (*model.UserLedger, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: missing user id", model.ErrValidation)
	}
	if units <= 0 {
		return nil, fmt.Errorf("%w: reward units must be positive", model.ErrValidation)
	}

	ledger, err := s.store.UpdateLedger(ctx, userID, func(l *model.UserLedger) error {
		if token != "" && l.SeenTokens.Contains(token) {
			return errDuplicateToken
		}
		l.Points += units
		l.Balance = decimal.NewFromInt(l.Points).Mul(s.rate)
		l.AddEvent(model.EventEarn, fmt.Sprintf("+%d Point(s) from Ad", units), time.Now().UTC())
		if token != "" {
			l.RememberToken(token)
		}
		return nil
	})
	if errors.Is(err, errDuplicateToken) {
		s.log.Info("replayed ad-view token ignored",
			zap.String("user_id", userID), zap.String("token", token))
		return s.GetLedger(ctx, userID)
	}
	if err != nil {
		return nil, err
	}
	return ledger, nil
}

// SaveLedger is the sync-boundary write-through: the client pushes locally
// accrued state and the server accepts it after clamping to invariants.
// Last write wins per user; dedup tokens the server holds are preserved.
func (s *LedgerService) SaveLedger(ctx context.Context, userID string, snapshot model.UserLedger) error {
	if userID == "" {
		return fmt.Errorf("%w: missing user id", model.ErrValidation)
	}
	_, err := s.store.UpdateLedger(ctx, userID, func(l *model.UserLedger) error {
		l.Points = snapshot.Points
		if l.Points < 0 {
			l.Points = 0
		}
		l.Balance = snapshot.Balance
		if l.Balance.IsNegative() {
			l.Balance = decimal.Zero
		}
		l.History = snapshot.History
		if len(l.History) > model.HistoryLimit {
			l.History = l.History[:model.HistoryLimit]
		}
		if snapshot.Username != "" {
			l.Username = snapshot.Username
		}
		return nil
	})
	return err
}
