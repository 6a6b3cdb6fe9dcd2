package model

import (
	"time"
)

// FallbackAccount 保底账户，推荐链不足时按插入顺序顶替领奖
type FallbackAccount struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Username    string  `json:"username" gorm:"not null"`
	GroupLink   string  `json:"group_link"`
	Active      bool    `json:"active" gorm:"not null;default:true;index"`
	TotalEarned float64 `json:"total_earned" gorm:"not null;default:0"` // 累计顶替收益(U)
}

// TableName 自定义表名
func (FallbackAccount) TableName() string {
	return "fallback_account"
}
