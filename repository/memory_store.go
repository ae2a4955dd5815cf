package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rewards_ledger/model"
)

// MemoryStore is the volatile fallback used when postgres is unreachable.
// It is safe for concurrent use; one mutex makes every multi-record update
// (request transition + stats + refund) trivially atomic.
type MemoryStore struct {
	mu       sync.RWMutex
	ledgers  map[string]model.UserLedger
	requests map[int64]model.WithdrawalRequest
	stats    model.AdminStats
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		ledgers:  make(map[string]model.UserLedger),
		requests: make(map[int64]model.WithdrawalRequest),
		stats:    model.AdminStats{ID: 1, TotalPaid: decimal.Zero},
	}
}

func (s *MemoryStore) Mode() string { return "memory" }

func (s *MemoryStore) GetLedger(_ context.Context, userID string) (*model.UserLedger, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ledger, ok := s.ledgers[userID]
	if !ok {
		return model.NewLedger(userID), nil
	}
	return cloneLedger(ledger), nil
}

func (s *MemoryStore) SaveLedger(_ context.Context, ledger *model.UserLedger) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.putLedgerLocked(ledger)
	return nil
}

func (s *MemoryStore) UpdateLedger(_ context.Context, userID string, fn func(*model.UserLedger) error) (*model.UserLedger, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ledger := s.ledgerLocked(userID)
	if err := fn(ledger); err != nil {
		return nil, err
	}
	s.putLedgerLocked(ledger)
	return cloneLedger(*ledger), nil
}

func (s *MemoryStore) CreateRequest(_ context.Context, userID string, build func(*model.UserLedger) (*model.WithdrawalRequest, error)) (*model.WithdrawalRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ledger := s.ledgerLocked(userID)
	req, err := build(ledger)
	if err != nil {
		return nil, err
	}
	req.ID = nextRequestID(req.Timestamp, func(id int64) bool {
		_, exists := s.requests[id]
		return exists
	})
	s.requests[req.ID] = *req
	s.putLedgerLocked(ledger)
	out := *req
	return &out, nil
}

func (s *MemoryStore) TransitionRequest(_ context.Context, id int64, fn func(*model.WithdrawalRequest, *model.UserLedger, *model.AdminStats) error) (*model.WithdrawalRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.requests[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	ledger := s.ledgerLocked(req.UserID)
	stats := s.stats
	if err := fn(&req, ledger, &stats); err != nil {
		return nil, err
	}
	req.UpdatedAt = time.Now().UTC()
	s.requests[id] = req
	s.putLedgerLocked(ledger)
	s.stats = stats
	out := req
	return &out, nil
}

func (s *MemoryStore) GetRequest(_ context.Context, id int64) (*model.WithdrawalRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	req, ok := s.requests[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	out := req
	return &out, nil
}

func (s *MemoryStore) ListRequests(_ context.Context) ([]model.WithdrawalRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list := make([]model.WithdrawalRequest, 0, len(s.requests))
	for _, req := range s.requests {
		list = append(list, req)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID > list[j].ID })
	return list, nil
}

func (s *MemoryStore) CountUsers(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.ledgers)), nil
}

func (s *MemoryStore) CountPendingRequests(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, req := range s.requests {
		if req.Status == model.StatusPending {
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) GetStats(_ context.Context) (*model.AdminStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stats := s.stats
	return &stats, nil
}

func (s *MemoryStore) TopLedgers(_ context.Context, n int) ([]model.UserLedger, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list := make([]model.UserLedger, 0, len(s.ledgers))
	for _, ledger := range s.ledgers {
		if ledger.Points > 0 {
			list = append(list, *cloneLedger(ledger))
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Points > list[j].Points })
	if len(list) > n {
		list = list[:n]
	}
	return list, nil
}

func (s *MemoryStore) ledgerLocked(userID string) *model.UserLedger {
	if ledger, ok := s.ledgers[userID]; ok {
		return cloneLedger(ledger)
	}
	return model.NewLedger(userID)
}

func (s *MemoryStore) putLedgerLocked(ledger *model.UserLedger) {
	now := time.Now().UTC()
	if ledger.CreatedAt.IsZero() {
		ledger.CreatedAt = now
	}
	ledger.UpdatedAt = now
	s.ledgers[ledger.UserID] = *cloneLedger(*ledger)
}

func cloneLedger(ledger model.UserLedger) *model.UserLedger {
	out := ledger
	out.History = append(model.EventLog{}, ledger.History...)
	out.SeenTokens = append(model.TokenSet{}, ledger.SeenTokens...)
	return &out
}
