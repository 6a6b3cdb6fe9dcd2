package model

import (
	"time"
)

// RechargeStatus 充值记录状态
type RechargeStatus string

const (
	RechargeStatusPending   RechargeStatus = "pending"
	RechargeStatusCompleted RechargeStatus = "completed"
	RechargeStatusExpired   RechargeStatus = "expired"
	RechargeStatusCancelled RechargeStatus = "cancelled"
)

// RechargeRecord 充值记录（台账），completed 后不可变
type RechargeRecord struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	MemberId  int64          `json:"member_id" gorm:"index;not null"`
	Amount    float64        `json:"amount" gorm:"not null"`
	OrderNo   string         `json:"order_no" gorm:"uniqueIndex;not null"`
	Status    RechargeStatus `json:"status" gorm:"not null;default:'pending';index"`
	PayMethod string         `json:"pay_method"` // usdt_trc20 / admin 等
	Kind      OrderKind      `json:"kind" gorm:"not null"`

	// 升级订单的分润状态：支付已完成但分润失败时置 pending_distribution，
	// 由重试任务对账后补发
	Distributed         bool `json:"distributed" gorm:"not null;default:false"`
	PendingDistribution bool `json:"pending_distribution" gorm:"not null;default:false;index"`
}

// TableName 自定义表名
func (RechargeRecord) TableName() string {
	return "recharge_record"
}
