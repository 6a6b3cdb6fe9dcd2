package model

import (
	"time"
)

// EarningsRecord 收益记录（台账），只追加
type EarningsRecord struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`

	FromMemberId int64  `json:"from_member_id" gorm:"index;not null"` // 触发升级的会员
	MemberId     *int64 `json:"member_id" gorm:"index"`               // 受益会员，保底时为空
	FallbackId   *int64 `json:"fallback_id" gorm:"index"`             // 受益保底账户

	OrderNo     string  `json:"order_no" gorm:"index"` // 关联的升级订单
	Level       int     `json:"level" gorm:"not null"` // 层级，1 为直接上级
	Amount      float64 `json:"amount" gorm:"not null"`
	Missed      bool    `json:"missed" gorm:"not null;default:false"` // 不合格错失，未入余额
	Description string  `json:"description"`
}

// TableName 自定义表名
func (EarningsRecord) TableName() string {
	return "earnings_record"
}
