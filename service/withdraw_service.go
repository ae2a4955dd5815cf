package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rewards_ledger/model"
	"github.com/rewards_ledger/repository"
)

// Notifier pushes withdrawal events to the admin's chat. Fire-and-forget:
// a failed notification never blocks or rolls back the state change.
type Notifier interface {
	WithdrawalRequested(ctx context.Context, req *model.WithdrawalRequest) error
	WithdrawalDecided(ctx context.Context, req *model.WithdrawalRequest) error
}

// WithdrawService runs the withdrawal request lifecycle:
// created pending, then exactly one transition to approved or rejected.
type WithdrawService struct {
	store         repository.Store
	notifier      Notifier // nil when no bot credentials are configured
	minWithdrawal decimal.Decimal
	log           *zap.Logger
}

func NewWithdrawService(store repository.Store, notifier Notifier, minWithdrawal decimal.Decimal, log *zap.Logger) *WithdrawService {
	return &WithdrawService{
		store:         store,
		notifier:      notifier,
		minWithdrawal: minWithdrawal,
		log:           log,
	}
}

// Request creates a pending withdrawal. The full balance is snapshotted onto
// the request and locked (ledger zeroed) in the same store transaction, so two
// racing requests cannot both claim the funds. A rejection refunds the lock.
func (s *WithdrawService) Request(ctx context.Context, userInfo, userID string) (*model.WithdrawalRequest, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: missing user id", model.ErrValidation)
	}
	username := model.ParseUserInfo(userInfo)

	req, err := s.store.CreateRequest(ctx, userID, func(l *model.UserLedger) (*model.WithdrawalRequest, error) {
		if l.Balance.LessThan(s.minWithdrawal) {
			return nil, fmt.Errorf("%w: minimum withdrawal amount is $%s",
				model.ErrValidation, s.minWithdrawal.StringFixed(2))
		}
		now := time.Now().UTC()
		req := &model.WithdrawalRequest{
			Username:  username,
			UserID:    userID,
			Amount:    l.Balance,
			Points:    l.Points,
			Timestamp: now,
			Status:    model.StatusPending,
		}
		l.AddEvent(model.EventWithdraw, fmt.Sprintf("Request for $%s", l.Balance.StringFixed(2)), now)
		l.Balance = decimal.Zero
		l.Points = 0
		return req, nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("withdrawal requested",
		zap.Int64("request_id", req.ID),
		zap.String("user_id", userID),
		zap.String("amount", req.Amount.StringFixed(2)))
	s.notifyAsync(func(ctx context.Context) error {
		return s.notifier.WithdrawalRequested(ctx, req)
	})
	return req, nil
}

// Approve settles a pending request: status flips to approved and the paid
// total grows by the snapshot amount, both in one store transaction.
func (s *WithdrawService) Approve(ctx context.Context, id int64) (*model.WithdrawalRequest, error) {
	req, err := s.store.TransitionRequest(ctx, id, func(req *model.WithdrawalRequest, _ *model.UserLedger, stats *model.AdminStats) error {
		if !req.Pending() {
			return fmt.Errorf("%w: request %d is already %s", model.ErrInvalidTransition, id, req.Status)
		}
		req.Status = model.StatusApproved
		stats.TotalPaid = stats.TotalPaid.Add(req.Amount)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("withdrawal approved", zap.Int64("request_id", id),
		zap.String("amount", req.Amount.StringFixed(2)))
	s.notifyAsync(func(ctx context.Context) error {
		return s.notifier.WithdrawalDecided(ctx, req)
	})
	return req, nil
}

// Reject settles a pending request by refunding the locked balance and points
// to the requester's ledger. The paid total is untouched.
func (s *WithdrawService) Reject(ctx context.Context, id int64) (*model.WithdrawalRequest, error) {
	req, err := s.store.TransitionRequest(ctx, id, func(req *model.WithdrawalRequest, ledger *model.UserLedger, _ *model.AdminStats) error {
		if !req.Pending() {
			return fmt.Errorf("%w: request %d is already %s", model.ErrInvalidTransition, id, req.Status)
		}
		req.Status = model.StatusRejected
		ledger.Balance = ledger.Balance.Add(req.Amount)
		ledger.Points += req.Points
		ledger.AddEvent(model.EventEarn,
			fmt.Sprintf("Refund of $%s (request rejected)", req.Amount.StringFixed(2)), time.Now().UTC())
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("withdrawal rejected", zap.Int64("request_id", id),
		zap.String("amount", req.Amount.StringFixed(2)))
	s.notifyAsync(func(ctx context.Context) error {
		return s.notifier.WithdrawalDecided(ctx, req)
	})
	return req, nil
}

// List returns the withdrawal log, newest first.
func (s *WithdrawService) List(ctx context.Context) ([]model.WithdrawalRequest, error) {
	return s.store.ListRequests(ctx)
}

func (s *WithdrawService) notifyAsync(send func(context.Context) error) {
	if s.notifier == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := send(ctx); err != nil {
			s.log.Warn("admin notification failed", zap.Error(err))
		}
	}()
}
