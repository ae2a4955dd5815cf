package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/rewards_ledger/model"
	"github.com/rewards_ledger/repository"
)

// StatsService derives admin aggregates from the store. Reads are computed
// fresh per call and may be slightly stale relative to in-flight writes.
type StatsService struct {
	store repository.Store
	log   *zap.Logger
}

func NewStatsService(store repository.Store, log *zap.Logger) *StatsService {
	return &StatsService{store: store, log: log}
}

func (s *StatsService) Stats(ctx context.Context) (*model.Stats, error) {
	users, err := s.store.CountUsers(ctx)
	if err != nil {
		return nil, err
	}
	pending, err := s.store.CountPendingRequests(ctx)
	if err != nil {
		return nil, err
	}
	stats, err := s.store.GetStats(ctx)
	if err != nil {
		return nil, err
	}
	return &model.Stats{
		TotalUsers:         users,
		PendingWithdrawals: pending,
		TotalPaid:          stats.TotalPaid,
	}, nil
}

// Leaderboard returns the top earners by points.
func (s *StatsService) Leaderboard(ctx context.Context, limit int) ([]model.LeaderboardEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	ledgers, err := s.store.TopLedgers(ctx, limit)
	if err != nil {
		return nil, err
	}
	entries := make([]model.LeaderboardEntry, 0, len(ledgers))
	for i, l := range ledgers {
		name := l.Username
		if name == "" {
			name = l.UserID
		}
		entries = append(entries, model.LeaderboardEntry{
			Rank:     i + 1,
			UserID:   l.UserID,
			Username: name,
			Points:   l.Points,
		})
	}
	return entries, nil
}
