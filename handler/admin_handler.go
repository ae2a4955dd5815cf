package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/rewards_ledger/service"
)

type AdminHandler struct {
	withdraw *service.WithdrawService
	stats    *service.StatsService
}

func NewAdminHandler(withdraw *service.WithdrawService, stats *service.StatsService) *AdminHandler {
	return &AdminHandler{withdraw: withdraw, stats: stats}
}

// GET /api/admin/stats
func (h *AdminHandler) Stats(c *gin.Context) {
	stats, err := h.stats.Stats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load stats"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// GET /api/admin/withdrawals
func (h *AdminHandler) ListWithdrawals(c *gin.Context) {
	list, err := h.withdraw.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load withdrawals"})
		return
	}
	c.JSON(http.StatusOK, list)
}

// POST /api/admin/withdrawal/:id/approve
func (h *AdminHandler) Approve(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid request id"})
		return
	}
	if _, err := h.withdraw.Approve(c.Request.Context(), id); err != nil {
		c.JSON(statusFor(err), gin.H{"success": false, "message": reason(err, "Server error")})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Withdrawal approved"})
}

// POST /api/admin/withdrawal/:id/reject
func (h *AdminHandler) Reject(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid request id"})
		return
	}
	if _, err := h.withdraw.Reject(c.Request.Context(), id); err != nil {
		c.JSON(statusFor(err), gin.H{"success": false, "message": reason(err, "Server error")})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Withdrawal rejected"})
}
