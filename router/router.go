package router

import (
	"time"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/rewards_ledger/handler"
)

// SetupRouter wires the API surface. storageMode is reported on /healthz so a
// degraded (in-memory) deployment is observable from outside.
func SetupRouter(users *handler.UserHandler, admin *handler.AdminHandler, logger *zap.Logger, allowedOrigins []string, storageMode string) *gin.Engine {
	r := gin.New()
	r.Use(ginzap.Ginzap(logger, time.RFC3339, true))
	r.Use(ginzap.RecoveryWithZap(logger, true))

	corsCfg := cors.DefaultConfig()
	if len(allowedOrigins) == 1 && allowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = allowedOrigins
	}
	corsCfg.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	r.Use(cors.New(corsCfg))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "storage": storageMode})
	})

	api := r.Group("/api")
	{
		api.GET("/user/:userId", users.GetUser)
		api.POST("/user/save", users.SaveUser)
		api.POST("/reward/credit", users.CreditReward)
		api.POST("/reward/session", users.NewRewardSession)
		api.POST("/withdrawal/request", users.RequestWithdrawal)
		api.GET("/leaderboard", users.Leaderboard)

		api.GET("/admin/stats", admin.Stats)
		api.GET("/admin/withdrawals", admin.ListWithdrawals)
		api.POST("/admin/withdrawal/:id/approve", admin.Approve)
		api.POST("/admin/withdrawal/:id/reject", admin.Reject)
	}

	return r
}
