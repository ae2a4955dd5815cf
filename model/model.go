package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func init() {
	// API clients expect plain JSON numbers for money fields.
	decimal.MarshalJSONWithoutQuotes = true
}

// HistoryLimit caps the per-user history log; the oldest entries are evicted.
const HistoryLimit = 50

// TokenLimit caps the remembered ad-view dedup tokens per user.
const TokenLimit = 128

type EventType string

const (
	EventEarn     EventType = "earn"
	EventWithdraw EventType = "withdraw"
)

// LedgerEvent is one immutable entry of a user's history log.
type LedgerEvent struct {
	Type      EventType `json:"type"`
	Detail    string    `json:"detail"`
	Timestamp time.Time `json:"timestamp"`
}

// EventLog is stored as a JSON document column, newest entry first.
type EventLog []LedgerEvent

func (l EventLog) Value() (driver.Value, error) {
	if l == nil {
		l = EventLog{}
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *EventLog) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*l = EventLog{}
		return nil
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return fmt.Errorf("unsupported event log column type %T", value)
	}
}

// TokenSet holds recently seen ad-view dedup tokens, newest first.
type TokenSet []string

func (t TokenSet) Value() (driver.Value, error) {
	if t == nil {
		t = TokenSet{}
	}
	b, err := json.Marshal(t)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (t *TokenSet) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*t = TokenSet{}
		return nil
	case []byte:
		return json.Unmarshal(v, t)
	case string:
		return json.Unmarshal([]byte(v), t)
	default:
		return fmt.Errorf("unsupported token set column type %T", value)
	}
}

func (t TokenSet) Contains(token string) bool {
	for _, seen := range t {
		if seen == token {
			return true
		}
	}
	return false
}

// UserLedger is the per-user points/balance record.
type UserLedger struct {
	UserID     string          `gorm:"primaryKey;column:user_id;type:varchar(64)" json:"userId"`
	Username   string          `gorm:"column:username;type:varchar(128)" json:"username,omitempty"`
	Points     int64           `gorm:"column:points;not null;default:0" json:"points"`
	Balance    decimal.Decimal `gorm:"column:balance;type:decimal(32,8);not null;default:0" json:"balance"`
	History    EventLog        `gorm:"column:history;type:text" json:"historyLog"`
	SeenTokens TokenSet        `gorm:"column:seen_tokens;type:text" json:"-"`
	CreatedAt  time.Time       `gorm:"column:create_time;autoCreateTime" json:"-"`
	UpdatedAt  time.Time       `gorm:"column:update_time;autoUpdateTime" json:"-"`
}

func (UserLedger) TableName() string { return "user_ledgers" }

// NewLedger returns the zeroed default record served for unknown users.
func NewLedger(userID string) *UserLedger {
	return &UserLedger{
		UserID:  userID,
		Balance: decimal.Zero,
		History: EventLog{},
	}
}

// AddEvent prepends an event and evicts the oldest entries beyond HistoryLimit.
func (l *UserLedger) AddEvent(t EventType, detail string, at time.Time) {
	l.History = append(EventLog{{Type: t, Detail: detail, Timestamp: at}}, l.History...)
	if len(l.History) > HistoryLimit {
		l.History = l.History[:HistoryLimit]
	}
}

// RememberToken records a dedup token, evicting the oldest beyond TokenLimit.
func (l *UserLedger) RememberToken(token string) {
	l.SeenTokens = append(TokenSet{token}, l.SeenTokens...)
	if len(l.SeenTokens) > TokenLimit {
		l.SeenTokens = l.SeenTokens[:TokenLimit]
	}
}

type RequestStatus string

const (
	StatusPending  RequestStatus = "pending"
	StatusApproved RequestStatus = "approved"
	StatusRejected RequestStatus = "rejected"
)

// WithdrawalRequest records a user's claim to cash out their balance.
// Identity and amount are snapshots taken at request time, not live-linked.
type WithdrawalRequest struct {
	ID        int64           `gorm:"primaryKey;column:id;autoIncrement:false" json:"id"`
	Username  string          `gorm:"column:username;type:varchar(128)" json:"username"`
	UserID    string          `gorm:"column:user_id;type:varchar(64);index" json:"userId"`
	Amount    decimal.Decimal `gorm:"column:amount;type:decimal(32,8);not null" json:"amount"`
	Points    int64           `gorm:"column:points;not null;default:0" json:"-"`
	Timestamp time.Time       `gorm:"column:timestamp" json:"timestamp"`
	Status    RequestStatus   `gorm:"column:status;type:varchar(16);index" json:"status"`
	UpdatedAt time.Time       `gorm:"column:update_time;autoUpdateTime" json:"-"`
}

func (WithdrawalRequest) TableName() string { return "withdrawal_requests" }

// Pending reports whether the request can still be transitioned.
func (r *WithdrawalRequest) Pending() bool { return r.Status == StatusPending }

// AdminStats is the singleton row holding the cumulative paid-out total.
type AdminStats struct {
	ID        uint            `gorm:"primaryKey" json:"-"`
	TotalPaid decimal.Decimal `gorm:"column:total_paid;type:decimal(32,8);not null;default:0" json:"totalPaid"`
	UpdatedAt time.Time       `gorm:"column:update_time;autoUpdateTime" json:"-"`
}

func (AdminStats) TableName() string { return "admin_stats" }

// Stats is the derived admin summary returned by the stats endpoint.
type Stats struct {
	TotalUsers         int64           `json:"totalUsers"`
	PendingWithdrawals int64           `json:"pendingWithdrawals"`
	TotalPaid          decimal.Decimal `json:"totalPaid"`
}

// LeaderboardEntry is one row of the points leaderboard.
type LeaderboardEntry struct {
	Rank     int    `json:"rank"`
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Points   int64  `json:"points"`
}

// helper: create tables
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&UserLedger{}, &WithdrawalRequest{}, &AdminStats{})
}
