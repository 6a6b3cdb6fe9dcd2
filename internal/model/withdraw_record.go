package model

import (
	"time"
)

// WithdrawStatus 提现状态
type WithdrawStatus string

const (
	WithdrawStatusPending  WithdrawStatus = "pending"  // 待审核
	WithdrawStatusApproved WithdrawStatus = "approved" // 已通过
	WithdrawStatusRejected WithdrawStatus = "rejected" // 已拒绝
)

// WithdrawRecord 提现记录
type WithdrawRecord struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	MemberId    int64          `json:"member_id" gorm:"index;not null"`
	Amount      float64        `json:"amount" gorm:"not null"`
	Address     string         `json:"address" gorm:"not null"` // 到账地址
	Status      WithdrawStatus `json:"status" gorm:"not null;default:'pending';index"`
	ProcessedAt *time.Time     `json:"processed_at"`
	Remark      string         `json:"remark"` // 审核备注
}

// TableName 自定义表名
func (WithdrawRecord) TableName() string {
	return "withdraw_record"
}
