package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/rewards_ledger/model"
)

// GormStore is the durable postgres-backed Store.
type GormStore struct {
	db *gorm.DB
}

var _ Store = (*GormStore)(nil)

func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := model.AutoMigrate(db); err != nil {
		return nil, storeErr("migrate: %v", err)
	}
	// Make sure the stats singleton exists so transitions can row-lock it.
	stats := model.AdminStats{ID: 1}
	if err := db.FirstOrCreate(&stats, model.AdminStats{ID: 1}).Error; err != nil {
		return nil, storeErr("init stats row: %v", err)
	}
	return &GormStore{db: db}, nil
}

func (s *GormStore) Mode() string { return "postgres" }

func (s *GormStore) GetLedger(ctx context.Context, userID string) (*model.UserLedger, error) {
	var ledger model.UserLedger
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&ledger).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.NewLedger(userID), nil
	}
	if err != nil {
		return nil, storeErr("load ledger %s: %v", userID, err)
	}
	return &ledger, nil
}

func (s *GormStore) SaveLedger(ctx context.Context, ledger *model.UserLedger) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		UpdateAll: true,
	}).Create(ledger).Error
	if err != nil {
		return storeErr("save ledger %s: %v", ledger.UserID, err)
	}
	return nil
}

func (s *GormStore) UpdateLedger(ctx context.Context, userID string, fn func(*model.UserLedger) error) (*model.UserLedger, error) {
	var out *model.UserLedger
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ledger, err := lockLedger(tx, userID)
		if err != nil {
			return err
		}
		if err := fn(ledger); err != nil {
			return err
		}
		if err := tx.Save(ledger).Error; err != nil {
			return storeErr("save ledger %s: %v", userID, err)
		}
		out = ledger
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *GormStore) CreateRequest(ctx context.Context, userID string, build func(*model.UserLedger) (*model.WithdrawalRequest, error)) (*model.WithdrawalRequest, error) {
	var out *model.WithdrawalRequest
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ledger, err := lockLedger(tx, userID)
		if err != nil {
			return err
		}
		req, err := build(ledger)
		if err != nil {
			return err
		}
		req.ID = nextRequestID(req.Timestamp, func(id int64) bool {
			var n int64
			tx.Model(&model.WithdrawalRequest{}).Where("id = ?", id).Count(&n)
			return n > 0
		})
		if err := tx.Create(req).Error; err != nil {
			return storeErr("create request: %v", err)
		}
		if err := tx.Save(ledger).Error; err != nil {
			return storeErr("save ledger %s: %v", userID, err)
		}
		out = req
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *GormStore) TransitionRequest(ctx context.Context, id int64, fn func(*model.WithdrawalRequest, *model.UserLedger, *model.AdminStats) error) (*model.WithdrawalRequest, error) {
	var out *model.WithdrawalRequest
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var req model.WithdrawalRequest
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", id).First(&req).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.ErrNotFound
		}
		if err != nil {
			return storeErr("load request %d: %v", id, err)
		}
		ledger, err := lockLedger(tx, req.UserID)
		if err != nil {
			return err
		}
		var stats model.AdminStats
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&stats, 1).Error; err != nil {
			return storeErr("load stats: %v", err)
		}
		if err := fn(&req, ledger, &stats); err != nil {
			return err
		}
		if err := tx.Save(&req).Error; err != nil {
			return storeErr("save request %d: %v", id, err)
		}
		if err := tx.Save(ledger).Error; err != nil {
			return storeErr("save ledger %s: %v", req.UserID, err)
		}
		if err := tx.Save(&stats).Error; err != nil {
			return storeErr("save stats: %v", err)
		}
		out = &req
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *GormStore) GetRequest(ctx context.Context, id int64) (*model.WithdrawalRequest, error) {
	var req model.WithdrawalRequest
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&req).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, storeErr("load request %d: %v", id, err)
	}
	return &req, nil
}

func (s *GormStore) ListRequests(ctx context.Context) ([]model.WithdrawalRequest, error) {
	var list []model.WithdrawalRequest
	if err := s.db.WithContext(ctx).Order("id DESC").Find(&list).Error; err != nil {
		return nil, storeErr("list requests: %v", err)
	}
	return list, nil
}

func (s *GormStore) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&model.UserLedger{}).Count(&n).Error; err != nil {
		return 0, storeErr("count users: %v", err)
	}
	return n, nil
}

func (s *GormStore) CountPendingRequests(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&model.WithdrawalRequest{}).
		Where("status = ?", model.StatusPending).Count(&n).Error
	if err != nil {
		return 0, storeErr("count pending: %v", err)
	}
	return n, nil
}

func (s *GormStore) GetStats(ctx context.Context) (*model.AdminStats, error) {
	var stats model.AdminStats
	if err := s.db.WithContext(ctx).First(&stats, 1).Error; err != nil {
		return nil, storeErr("load stats: %v", err)
	}
	return &stats, nil
}

func (s *GormStore) TopLedgers(ctx context.Context, n int) ([]model.UserLedger, error) {
	var list []model.UserLedger
	err := s.db.WithContext(ctx).Where("points > 0").
		Order("points DESC").Limit(n).Find(&list).Error
	if err != nil {
		return nil, storeErr("top ledgers: %v", err)
	}
	return list, nil
}

// lockLedger loads the user's row FOR UPDATE, creating it when missing so the
// row lock serializes every later writer for the same user.
func lockLedger(tx *gorm.DB, userID string) (*model.UserLedger, error) {
	var ledger model.UserLedger
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).First(&ledger).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		ledger = *model.NewLedger(userID)
		if err := tx.Create(&ledger).Error; err != nil {
			return nil, storeErr("init ledger %s: %v", userID, err)
		}
		return &ledger, nil
	}
	if err != nil {
		return nil, storeErr("lock ledger %s: %v", userID, err)
	}
	return &ledger, nil
}

// storeErr tags backend failures so callers can match model.ErrStoreUnavailable
// and degrade instead of crashing.
func storeErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", model.ErrStoreUnavailable, fmt.Sprintf(format, args...))
}

// nextRequestID derives the id from the creation time in unix milliseconds,
// bumping past collisions when two requests land in the same millisecond.
func nextRequestID(at time.Time, taken func(int64) bool) int64 {
	id := at.UnixMilli()
	for taken(id) {
		id++
	}
	return id
}
