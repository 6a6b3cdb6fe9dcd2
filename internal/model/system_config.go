package model

import (
	"time"
)

// SystemConfig 系统配置，string→string
type SystemConfig struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Key   string `json:"key" gorm:"uniqueIndex;not null"`
	Value string `json:"value"`
}

// TableName 自定义表名
func (SystemConfig) TableName() string {
	return "system_config"
}

// 识别的配置键
const (
	ConfigKeyLevelCount          = "level_count"           // 分润层数 N，1..20
	ConfigKeyLevelReward         = "level_reward"          // 默认每层奖励
	ConfigKeyLevelAmounts        = "level_amounts"         // JSON 数组，每层奖励
	ConfigKeyVipPrice            = "vip_price"             // 升级费用
	ConfigKeyWithdrawThreshold   = "withdraw_threshold"    // 提现门槛
	ConfigKeyUsdtAddress         = "usdt_address"          // 默认收款地址（遗留）
	ConfigKeyWelcomeEnabled      = "welcome_enabled"       // "0"/"1"
	ConfigKeyAutoRegisterEnabled = "auto_register_enabled" // "0"/"1"
)
