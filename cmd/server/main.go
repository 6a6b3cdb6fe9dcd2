package main

import (
	"github.com/blues/fsb/internal/config"
	"github.com/blues/fsb/internal/database"
	"github.com/blues/fsb/internal/gateway"
	"github.com/blues/fsb/internal/logger"
	"github.com/blues/fsb/internal/logic"
	"github.com/blues/fsb/internal/notify"
	"github.com/blues/fsb/internal/order"
	"github.com/blues/fsb/internal/router"
	"github.com/blues/fsb/internal/task"
	"github.com/gin-gonic/gin"
)

func main() {
	// 加载配置
	cfg := config.Load()

	// 初始化日志
	level := logger.ParseLogLevel(cfg.Log.Level)
	if cfg.Log.Output == "file" {
		l, err := logger.NewWithFileRotation(level, cfg.Log.File)
		if err != nil {
			logger.Fatal("Failed to initialize file logger: %v", err)
		}
		logger.SetDefaultLogger(l)
	}

	// 初始化数据库
	db, err := database.Init(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to initialize database: %v", err)
	}

	// 初始化支付网关
	gw, err := gateway.Init(cfg.Chain)
	if err != nil {
		logger.Fatal("Failed to initialize payment gateway: %v", err)
	}

	// 初始化通知器
	var notifier notify.Notifier = notify.Noop{}
	var groupChecker logic.GroupChecker
	tg, err := notify.NewTelegram(cfg.Notify)
	if err != nil {
		logger.Fatal("Failed to initialize telegram notifier: %v", err)
	}
	if tg != nil {
		notifier = tg
		groupChecker = tg
	}

	// 组装核心业务逻辑
	sysCfg := logic.NewSysConfigLogic(db)
	eligibility := logic.NewEligibilityLogic(groupChecker)
	reward := logic.NewRewardLogic(db, sysCfg, eligibility)

	// 初始化订单编排器
	orch, err := order.NewOrchestrator(db, gw, cfg, sysCfg, reward, notifier)
	if err != nil {
		logger.Fatal("Failed to initialize orchestrator: %v", err)
	}
	if err := orch.Load(); err != nil {
		logger.Fatal("Failed to load pending orders: %v", err)
	}

	// 设置Gin模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 初始化路由
	r := router.Setup(db, orch, reward, sysCfg)

	// 启动定时任务
	task.Start(cfg, orch, reward)

	// 启动服务器
	logger.Info("Server starting on port %s", cfg.Server.Port)
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		logger.Fatal("Failed to start server: %v", err)
	}
}
