package task

import (
	"time"

	"github.com/blues/fsb/internal/config"
	"github.com/blues/fsb/internal/order"
	"github.com/go-co-op/gocron/v2"
)

// OrderExpireJob 订单超时任务
type OrderExpireJob struct {
	orch   *order.Orchestrator
	config *config.Config
}

// NewOrderExpireJob 创建订单超时任务
func NewOrderExpireJob(orch *order.Orchestrator, cfg *config.Config) *OrderExpireJob {
	return &OrderExpireJob{orch: orch, config: cfg}
}

// GetName 获取任务名称
func (j *OrderExpireJob) GetName() string {
	return "order_expire"
}

// GetSchedule 获取调度配置。超时裁决以库内状态为准，检查频率跟随轮询间隔。
func (j *OrderExpireJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(time.Duration(j.config.Order.PollInterval) * time.Second)
}

// Execute 执行任务
func (j *OrderExpireJob) Execute() {
	j.orch.ExpireOnce()
}
