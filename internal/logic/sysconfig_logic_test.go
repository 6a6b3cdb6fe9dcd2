package logic

import (
	"testing"

	"github.com/blues/fsb/internal/errs"
	"github.com/blues/fsb/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSysConfigSetAndGet(t *testing.T) {
	db := newTestDB(t)
	s := NewSysConfigLogic(db)

	_, ok := s.Get("nope")
	assert.False(t, ok)

	mustSet(t, s, "greeting", "hello")
	v, ok := s.Get("greeting")
	assert.True(t, ok)
	assert.Equal(t, "hello", v)

	// 覆盖写后缓存立即可见
	mustSet(t, s, "greeting", "hi")
	v, _ = s.Get("greeting")
	assert.Equal(t, "hi", v)

	err := s.Set("", "x")
	assert.ErrorIs(t, err, errs.ErrInsufficientInput)
}

func TestLevelCountClamped(t *testing.T) {
	db := newTestDB(t)
	s := NewSysConfigLogic(db)

	assert.Equal(t, DefaultLevelCount, s.LevelCount())

	mustSet(t, s, model.ConfigKeyLevelCount, "5")
	assert.Equal(t, 5, s.LevelCount())

	mustSet(t, s, model.ConfigKeyLevelCount, "0")
	assert.Equal(t, 1, s.LevelCount())

	mustSet(t, s, model.ConfigKeyLevelCount, "999")
	assert.Equal(t, MaxLevelCount, s.LevelCount())

	mustSet(t, s, model.ConfigKeyLevelCount, "abc")
	assert.Equal(t, DefaultLevelCount, s.LevelCount())
}

func TestLevelAmountsArrayForm(t *testing.T) {
	db := newTestDB(t)
	s := NewSysConfigLogic(db)

	mustSet(t, s, model.ConfigKeyLevelAmounts, "[2, 1.5, 1]")

	assert.Equal(t, []float64{2, 1.5, 1}, s.LevelAmounts(3))
	// 配置短于层数时缺口补默认每层奖励
	assert.Equal(t, []float64{2, 1.5, 1, DefaultLevelReward}, s.LevelAmounts(4))
	// 层数缩小时只取前缀
	assert.Equal(t, []float64{2}, s.LevelAmounts(1))
}

func TestLevelAmountsLegacyObjectForm(t *testing.T) {
	db := newTestDB(t)
	s := NewSysConfigLogic(db)

	mustSet(t, s, model.ConfigKeyLevelReward, "0.5")
	mustSet(t, s, model.ConfigKeyLevelAmounts, `{"1": 2, "3": 1}`)

	// 缺失的第2层回填默认每层奖励
	assert.Equal(t, []float64{2, 0.5, 1}, s.LevelAmounts(3))
}

func TestLevelAmountsMalformed(t *testing.T) {
	db := newTestDB(t)
	s := NewSysConfigLogic(db)

	mustSet(t, s, model.ConfigKeyLevelAmounts, "not json")
	assert.Equal(t, []float64{DefaultLevelReward, DefaultLevelReward}, s.LevelAmounts(2))

	// 层号非法的对象同样回退默认
	mustSet(t, s, model.ConfigKeyLevelAmounts, `{"zero": 1}`)
	assert.Equal(t, []float64{DefaultLevelReward}, s.LevelAmounts(1))
}

func TestEffectiveVipPrice(t *testing.T) {
	db := newTestDB(t)
	s := NewSysConfigLogic(db)

	// 无配置时回退 vip_price
	assert.Equal(t, DefaultVipPrice, s.EffectiveVipPrice())

	mustSet(t, s, model.ConfigKeyVipPrice, "50")
	assert.Equal(t, 50.0, s.EffectiveVipPrice())

	// 各层金额齐备时取前 N 层之和
	mustSet(t, s, model.ConfigKeyLevelCount, "3")
	mustSet(t, s, model.ConfigKeyLevelAmounts, "[2, 1.5, 1]")
	assert.InDelta(t, 4.5, s.EffectiveVipPrice(), 1e-9)

	// 含非正数层位时退回 vip_price
	mustSet(t, s, model.ConfigKeyLevelAmounts, "[2, 0, 1]")
	assert.Equal(t, 50.0, s.EffectiveVipPrice())

	// 配置层数不足时退回 vip_price
	mustSet(t, s, model.ConfigKeyLevelAmounts, "[2, 1]")
	assert.Equal(t, 50.0, s.EffectiveVipPrice())
}

func TestWithdrawThresholdAndFlags(t *testing.T) {
	db := newTestDB(t)
	s := NewSysConfigLogic(db)

	assert.Equal(t, 0.0, s.WithdrawThreshold())
	mustSet(t, s, model.ConfigKeyWithdrawThreshold, "10")
	assert.Equal(t, 10.0, s.WithdrawThreshold())
	mustSet(t, s, model.ConfigKeyWithdrawThreshold, "-1")
	assert.Equal(t, 0.0, s.WithdrawThreshold())

	assert.False(t, s.BoolFlag(model.ConfigKeyWelcomeEnabled))
	mustSet(t, s, model.ConfigKeyWelcomeEnabled, "1")
	assert.True(t, s.BoolFlag(model.ConfigKeyWelcomeEnabled))
	mustSet(t, s, model.ConfigKeyWelcomeEnabled, "0")
	assert.False(t, s.BoolFlag(model.ConfigKeyWelcomeEnabled))
}

func TestSysConfigAll(t *testing.T) {
	db := newTestDB(t)
	s := NewSysConfigLogic(db)

	mustSet(t, s, "a", "1")
	mustSet(t, s, "b", "2")

	all, err := s.All()
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a": "1", "b": "2"}, all)
}
