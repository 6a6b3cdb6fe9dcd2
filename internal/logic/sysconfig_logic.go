package logic

import (
	"encoding/json"
	"fmt"
	"strconv"
	"sync"

	"github.com/blues/fsb/internal/errs"
	"github.com/blues/fsb/internal/logger"
	"github.com/blues/fsb/internal/model"
	"gorm.io/gorm/clause"

	"gorm.io/gorm"
)

// 配置解析失败时的兜底默认值
const (
	DefaultLevelCount  = 3
	DefaultLevelReward = 10.0
	DefaultVipPrice    = 30.0
	MaxLevelCount      = 20
)

// SysConfigLogic 系统配置业务逻辑，带读穿缓存，每次写入后失效
type SysConfigLogic struct {
	db *gorm.DB

	mu     sync.RWMutex
	cache  map[string]string
	loaded bool
}

// NewSysConfigLogic 创建系统配置业务逻辑
func NewSysConfigLogic(db *gorm.DB) *SysConfigLogic {
	return &SysConfigLogic{db: db}
}

// Get 读取配置项
func (s *SysConfigLogic) Get(key string) (string, bool) {
	s.mu.RLock()
	if s.loaded {
		v, ok := s.cache[key]
		s.mu.RUnlock()
		return v, ok
	}
	s.mu.RUnlock()

	if err := s.reload(); err != nil {
		logger.Error("加载系统配置失败: %v", err)
		return "", false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.cache[key]
	return v, ok
}

// Set 写入配置项并刷新缓存
func (s *SysConfigLogic) Set(key, value string) error {
	if key == "" {
		return fmt.Errorf("%w: 配置键不能为空", errs.ErrInsufficientInput)
	}

	cfg := model.SystemConfig{Key: key, Value: value}
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&cfg).Error
	if err != nil {
		return fmt.Errorf("写入系统配置失败: %w", err)
	}

	return s.reload()
}

// All 返回全部配置
func (s *SysConfigLogic) All() (map[string]string, error) {
	if err := s.reload(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.cache))
	for k, v := range s.cache {
		out[k] = v
	}
	return out, nil
}

// reload 重新加载缓存
func (s *SysConfigLogic) reload() error {
	var rows []model.SystemConfig
	if err := s.db.Find(&rows).Error; err != nil {
		return fmt.Errorf("读取系统配置失败: %w", err)
	}

	cache := make(map[string]string, len(rows))
	for _, row := range rows {
		cache[row.Key] = row.Value
	}

	s.mu.Lock()
	s.cache = cache
	s.loaded = true
	s.mu.Unlock()
	return nil
}

// LevelCount 分润层数 N，限制在 1..20
func (s *SysConfigLogic) LevelCount() int {
	raw, ok := s.Get(model.ConfigKeyLevelCount)
	if !ok {
		return DefaultLevelCount
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		logger.Warn("level_count 配置非法(%q)，使用默认值 %d", raw, DefaultLevelCount)
		return DefaultLevelCount
	}
	if n < 1 {
		n = 1
	}
	if n > MaxLevelCount {
		n = MaxLevelCount
	}
	return n
}

// LevelReward 默认每层奖励
func (s *SysConfigLogic) LevelReward() float64 {
	raw, ok := s.Get(model.ConfigKeyLevelReward)
	if !ok {
		return DefaultLevelReward
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 {
		logger.Warn("level_reward 配置非法(%q)，使用默认值 %v", raw, DefaultLevelReward)
		return DefaultLevelReward
	}
	return v
}

// LevelAmounts 返回 1..n 每层的奖励金额。
// 规范格式为 JSON 实数数组（下标 i 对应第 i+1 层）；兼容历史数据中
// 以层号为键的 JSON 对象。缺失或非法的层位补默认每层奖励，绝不硬失败。
func (s *SysConfigLogic) LevelAmounts(n int) []float64 {
	def := s.LevelReward()
	amounts := make([]float64, n)
	for i := range amounts {
		amounts[i] = def
	}

	raw, ok := s.Get(model.ConfigKeyLevelAmounts)
	if !ok || raw == "" {
		return amounts
	}

	parsed, err := parseLevelAmounts(raw)
	if err != nil {
		logger.Warn("level_amounts 配置非法(%q): %v，使用默认每层奖励", raw, err)
		return amounts
	}

	for i := 0; i < n && i < len(parsed); i++ {
		if parsed[i] >= 0 {
			amounts[i] = parsed[i]
		}
	}
	return amounts
}

// parseLevelAmounts 解析 level_amounts 的两种形态
func parseLevelAmounts(raw string) ([]float64, error) {
	var arr []float64
	if err := json.Unmarshal([]byte(raw), &arr); err == nil {
		return arr, nil
	}

	// 历史形态：{"1": 2, "2": 1.5} 键为层号
	var obj map[string]float64
	if err := json.Unmarshal([]byte(raw), &obj); err != nil {
		return nil, fmt.Errorf("%w: 既不是数组也不是对象", errs.ErrConfigMalformed)
	}

	maxLevel := 0
	byLevel := make(map[int]float64, len(obj))
	for k, v := range obj {
		level, err := strconv.Atoi(k)
		if err != nil || level < 1 || level > MaxLevelCount {
			return nil, fmt.Errorf("%w: 层号 %q 非法", errs.ErrConfigMalformed, k)
		}
		byLevel[level] = v
		if level > maxLevel {
			maxLevel = level
		}
	}

	arr = make([]float64, maxLevel)
	for i := range arr {
		arr[i] = -1 // 标记缺失，调用方补默认值
	}
	for level, v := range byLevel {
		arr[level-1] = v
	}
	return arr, nil
}

// VipPrice 升级费用
func (s *SysConfigLogic) VipPrice() float64 {
	raw, ok := s.Get(model.ConfigKeyVipPrice)
	if !ok {
		return DefaultVipPrice
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v <= 0 {
		logger.Warn("vip_price 配置非法(%q)，使用默认值 %v", raw, DefaultVipPrice)
		return DefaultVipPrice
	}
	return v
}

// EffectiveVipPrice 实际升级价格：level_amounts 解析出不少于 level_count
// 个正数时取前 N 层之和，否则回退 vip_price
func (s *SysConfigLogic) EffectiveVipPrice() float64 {
	n := s.LevelCount()

	raw, ok := s.Get(model.ConfigKeyLevelAmounts)
	if !ok || raw == "" {
		return s.VipPrice()
	}
	parsed, err := parseLevelAmounts(raw)
	if err != nil || len(parsed) < n {
		return s.VipPrice()
	}

	sum := 0.0
	for i := 0; i < n; i++ {
		if parsed[i] <= 0 {
			return s.VipPrice()
		}
		sum += parsed[i]
	}
	return sum
}

// WithdrawThreshold 提现门槛
func (s *SysConfigLogic) WithdrawThreshold() float64 {
	raw, ok := s.Get(model.ConfigKeyWithdrawThreshold)
	if !ok {
		return 0
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 {
		return 0
	}
	return v
}

// UsdtAddress 默认收款地址（遗留）
func (s *SysConfigLogic) UsdtAddress() string {
	v, _ := s.Get(model.ConfigKeyUsdtAddress)
	return v
}

// BoolFlag 读取 "0"/"1" 开关
func (s *SysConfigLogic) BoolFlag(key string) bool {
	v, ok := s.Get(key)
	return ok && v == "1"
}
