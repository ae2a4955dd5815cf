package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/rewards_ledger/model"
	"github.com/rewards_ledger/service"
)

type UserHandler struct {
	ledger      *service.LedgerService
	withdraw    *service.WithdrawService
	stats       *service.StatsService
	pointsPerAd int64
}

func NewUserHandler(ledger *service.LedgerService, withdraw *service.WithdrawService, stats *service.StatsService, pointsPerAd int64) *UserHandler {
	return &UserHandler{ledger: ledger, withdraw: withdraw, stats: stats, pointsPerAd: pointsPerAd}
}

// GET /api/user/:userId
func (h *UserHandler) GetUser(c *gin.Context) {
	ledger, err := h.ledger.GetLedger(c.Request.Context(), c.Param("userId"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"points": 0, "balance": 0, "historyLog": []model.LedgerEvent{}})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"points":     ledger.Points,
		"balance":    ledger.Balance,
		"historyLog": ledger.History,
	})
}

type saveUserRequest struct {
	UserID string       `json:"userId"`
	Data   saveUserData `json:"data"`
}

type saveUserData struct {
	Username   string          `json:"username"`
	Points     int64           `json:"points"`
	Balance    decimal.Decimal `json:"balance"`
	HistoryLog model.EventLog  `json:"historyLog"`
}

// POST /api/user/save
func (h *UserHandler) SaveUser(c *gin.Context) {
	var req saveUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid request body"})
		return
	}
	snapshot := model.UserLedger{
		Username: req.Data.Username,
		Points:   req.Data.Points,
		Balance:  req.Data.Balance,
		History:  req.Data.HistoryLog,
	}
	if err := h.ledger.SaveLedger(c.Request.Context(), req.UserID, snapshot); err != nil {
		c.JSON(statusFor(err), gin.H{"success": false, "message": reason(err, "failed to save user data")})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

type creditRequest struct {
	UserID string `json:"userId"`
	Units  int64  `json:"units"`
	Token  string `json:"token"`
}

// POST /api/reward/credit
func (h *UserHandler) CreditReward(c *gin.Context) {
	var req creditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid request body"})
		return
	}
	if req.Units == 0 {
		req.Units = h.pointsPerAd
	}
	ledger, err := h.ledger.Credit(c.Request.Context(), req.UserID, req.Units, req.Token)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"success": false, "message": reason(err, "failed to credit reward")})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"points":     ledger.Points,
		"balance":    ledger.Balance,
		"historyLog": ledger.History,
	})
}

// POST /api/reward/session
func (h *UserHandler) NewRewardSession(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"token": h.ledger.IssueToken()})
}

type withdrawalRequestBody struct {
	UserInfo string `json:"userInfo"`
	Amount   any    `json:"amount"` // advisory; the full balance is locked
	UserID   string `json:"userId"`
}

// POST /api/withdrawal/request
func (h *UserHandler) RequestWithdrawal(c *gin.Context) {
	var body withdrawalRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid request body"})
		return
	}
	_, err := h.withdraw.Request(c.Request.Context(), body.UserInfo, body.UserID)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"success": false, "message": reason(err, "failed to process request")})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Withdrawal request added successfully"})
}

// GET /api/leaderboard
func (h *UserHandler) Leaderboard(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	entries, err := h.stats.Leaderboard(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load leaderboard"})
		return
	}
	c.JSON(http.StatusOK, entries)
}
