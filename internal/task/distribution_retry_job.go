package task

import (
	"time"

	"github.com/blues/fsb/internal/config"
	"github.com/blues/fsb/internal/logger"
	"github.com/blues/fsb/internal/logic"
	"github.com/go-co-op/gocron/v2"
)

// DistributionRetryJob 分润补发对账任务：扫描支付已完成但分润失败的
// 升级订单并重试
type DistributionRetryJob struct {
	reward *logic.RewardLogic
	config *config.Config
}

// NewDistributionRetryJob 创建分润补发任务
func NewDistributionRetryJob(reward *logic.RewardLogic, cfg *config.Config) *DistributionRetryJob {
	return &DistributionRetryJob{reward: reward, config: cfg}
}

// GetName 获取任务名称
func (j *DistributionRetryJob) GetName() string {
	return "distribution_retry"
}

// GetSchedule 获取调度配置
func (j *DistributionRetryJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(time.Duration(j.config.Task.Interval) * time.Second)
}

// Execute 执行任务
func (j *DistributionRetryJob) Execute() {
	settled, err := j.reward.RetryPending()
	if err != nil {
		logger.Error("分润补发任务失败: %v", err)
		return
	}
	if settled > 0 {
		logger.Info("分润补发任务完成，补发 %d 笔", settled)
	}
}
