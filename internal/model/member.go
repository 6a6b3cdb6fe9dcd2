package model

import (
	"time"
)

// Member 会员
type Member struct {
	Id        int64     `json:"id" gorm:"primaryKey;autoIncrement:false"` // 外部用户ID
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Username   string `json:"username" gorm:"index"`
	ReferrerId *int64 `json:"referrer_id" gorm:"index"` // 推荐人ID，创建后不可变
	LevelPath  string `json:"level_path"`               // 祖先路径缓存，根在前，逗号分隔

	Balance       float64 `json:"balance" gorm:"not null;default:0"`        // 可用余额(U)
	MissedBalance float64 `json:"missed_balance" gorm:"not null;default:0"` // 错失余额(U)
	TotalEarned   float64 `json:"total_earned" gorm:"not null;default:0"`   // 累计收益(U)

	IsVip   bool       `json:"is_vip" gorm:"not null;default:false"` // 是否已付费升级，只能 false→true
	VipTime *time.Time `json:"vip_time"`

	// 领奖资格标记
	IsGroupBound   bool   `json:"is_group_bound" gorm:"not null;default:false"`   // 是否已绑定群
	IsGroupAdmin   bool   `json:"is_group_admin" gorm:"not null;default:false"`   // 机器人是否为其群管理员
	IsJoinedUpline bool   `json:"is_joined_upline" gorm:"not null;default:false"` // 是否已加入所有上级群
	GroupLink      string `json:"group_link"`                                     // 绑定的群链接

	WithdrawAddress string `json:"withdraw_address"` // 提现地址
}

// TableName 自定义表名
func (Member) TableName() string {
	return "member"
}

// IsRoot 是否为无推荐人的根会员
func (m *Member) IsRoot() bool {
	return m.ReferrerId == nil
}
