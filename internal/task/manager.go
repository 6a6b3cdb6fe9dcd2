package task

import (
	"github.com/blues/fsb/internal/config"
	"github.com/blues/fsb/internal/logger"
	"github.com/blues/fsb/internal/logic"
	"github.com/blues/fsb/internal/order"
	"github.com/go-co-op/gocron/v2"
)

// Job 定时任务
type Job interface {
	GetName() string
	GetSchedule() gocron.JobDefinition
	Execute()
}

// Manager 任务管理器
type Manager struct {
	scheduler gocron.Scheduler
	config    *config.Config
}

// NewManager 创建新的任务管理器
func NewManager(cfg *config.Config) *Manager {
	s, err := gocron.NewScheduler()
	if err != nil {
		logger.Fatal("Failed to create scheduler: %v", err)
	}

	return &Manager{
		scheduler: s,
		config:    cfg,
	}
}

// Start 启动任务管理器
func Start(cfg *config.Config, orch *order.Orchestrator, reward *logic.RewardLogic) *Manager {
	manager := NewManager(cfg)

	// 注册所有任务
	manager.Register(NewOrderPollJob(orch, cfg))
	manager.Register(NewOrderExpireJob(orch, cfg))
	manager.Register(NewDistributionRetryJob(reward, cfg))

	// 启动调度器
	manager.scheduler.Start()

	logger.Info("Task manager started successfully")
	return manager
}

// Register 注册任务
func (m *Manager) Register(job Job) {
	_, err := m.scheduler.NewJob(
		job.GetSchedule(),
		gocron.NewTask(job.Execute),
		gocron.WithName(job.GetName()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		logger.Error("Failed to register job %s: %v", job.GetName(), err)
	}
}

// Stop 停止任务管理器
func (m *Manager) Stop() {
	if err := m.scheduler.Shutdown(); err != nil {
		logger.Error("Failed to shutdown scheduler: %v", err)
	}
	logger.Info("Task manager stopped")
}
