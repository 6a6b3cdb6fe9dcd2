package model

import (
	"time"
)

// OrderStatus 订单状态
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"   // 待支付
	OrderStatusCompleted OrderStatus = "completed" // 已完成
	OrderStatusExpired   OrderStatus = "expired"   // 已过期
	OrderStatusCancelled OrderStatus = "cancelled" // 已取消
)

// OrderKind 订单类型
type OrderKind string

const (
	OrderKindUpgrade OrderKind = "vip_upgrade" // 会员升级
	OrderKindTopUp   OrderKind = "top_up"      // 余额充值
)

// PaymentOrder 支付订单
type PaymentOrder struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	OrderNo  string      `json:"order_no" gorm:"uniqueIndex;not null"`
	MemberId int64       `json:"member_id" gorm:"index;not null"`
	Amount   float64     `json:"amount" gorm:"not null"` // 应付金额(U)
	Address  string      `json:"address" gorm:"index"`   // 收款地址
	Kind     OrderKind   `json:"kind" gorm:"not null"`
	Status   OrderStatus `json:"status" gorm:"not null;default:'pending';index"`

	ExpiredAt   time.Time  `json:"expired_at"` // created_at + 订单有效期
	CompletedAt *time.Time `json:"completed_at"`
	TxHash      string     `json:"tx_hash"` // 命中的链上转账哈希
}

// TableName 自定义表名
func (PaymentOrder) TableName() string {
	return "payment_order"
}

// IsTerminal 是否已进入终态
func (o *PaymentOrder) IsTerminal() bool {
	return o.Status != OrderStatusPending
}
