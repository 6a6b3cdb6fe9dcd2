package task

import (
	"time"

	"github.com/blues/fsb/internal/config"
	"github.com/blues/fsb/internal/order"
	"github.com/go-co-op/gocron/v2"
)

// OrderPollJob 链上到账轮询任务
type OrderPollJob struct {
	orch   *order.Orchestrator
	config *config.Config
}

// NewOrderPollJob 创建到账轮询任务
func NewOrderPollJob(orch *order.Orchestrator, cfg *config.Config) *OrderPollJob {
	return &OrderPollJob{orch: orch, config: cfg}
}

// GetName 获取任务名称
func (j *OrderPollJob) GetName() string {
	return "order_poll"
}

// GetSchedule 获取调度配置
func (j *OrderPollJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(time.Duration(j.config.Order.PollInterval) * time.Second)
}

// Execute 执行任务
func (j *OrderPollJob) Execute() {
	j.orch.PollOnce()
}
