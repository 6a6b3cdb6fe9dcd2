package router

import (
	"github.com/blues/fsb/internal/handler"
	"github.com/blues/fsb/internal/logic"
	"github.com/blues/fsb/internal/order"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func Setup(db *gorm.DB, orch *order.Orchestrator, reward *logic.RewardLogic, sysCfg *logic.SysConfigLogic) *gin.Engine {
	r := gin.Default()

	// 中间件
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(corsMiddleware())

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": "fission-service",
		})
	})

	// API版本组
	v1 := r.Group("/api/v1")
	{
		// 会员相关路由
		memberHandler := handler.NewMemberHandler(db, reward, sysCfg)
		members := v1.Group("/members")
		{
			members.POST("", memberHandler.CreateMember)
			members.GET("", memberHandler.ListMembers)
			members.GET("/:id", memberHandler.GetMember)
			members.PUT("/:id", memberHandler.UpdateMember)
			members.GET("/:id/team", memberHandler.GetTeamStats)
			members.GET("/:id/earnings", memberHandler.GetEarnings)
			members.POST("/:id/grant-vip", memberHandler.GrantVip)
			members.POST("/:id/correct", memberHandler.Correct)
		}

		// 订单相关路由
		orderHandler := handler.NewOrderHandler(db, orch)
		orders := v1.Group("/orders")
		{
			orders.GET("", orderHandler.ListOrders)
			orders.POST("/:order_no/mark-paid", orderHandler.MarkPaid)
			orders.POST("/:order_no/cancel", orderHandler.CancelOrder)
		}
		members.POST("/:id/upgrade-order", orderHandler.CreateUpgradeOrder)
		members.POST("/:id/topup-order", orderHandler.CreateTopUpOrder)
		v1.GET("/recharges", orderHandler.ListRecharges)
		v1.GET("/recharges/stats", orderHandler.GetRechargeStats)

		// 提现相关路由
		withdrawHandler := handler.NewWithdrawHandler(db, sysCfg)
		withdraws := v1.Group("/withdraws")
		{
			withdraws.POST("", withdrawHandler.Apply)
			withdraws.GET("", withdrawHandler.List)
			withdraws.POST("/:id/approve", withdrawHandler.Approve)
			withdraws.POST("/:id/reject", withdrawHandler.Reject)
		}

		// 保底账户路由
		fallbackHandler := handler.NewFallbackHandler(db)
		fallbacks := v1.Group("/fallbacks")
		{
			fallbacks.GET("", fallbackHandler.List)
			fallbacks.POST("", fallbackHandler.Create)
			fallbacks.POST("/:id/deactivate", fallbackHandler.Deactivate)
		}

		// 系统配置路由
		configHandler := handler.NewConfigHandler(sysCfg)
		configs := v1.Group("/configs")
		{
			configs.GET("", configHandler.GetAll)
			configs.POST("", configHandler.Set)
		}
	}

	return r
}

// CORS中间件
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
