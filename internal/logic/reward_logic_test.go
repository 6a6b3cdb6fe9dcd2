package logic

import (
	"testing"

	"github.com/blues/fsb/internal/errs"
	"github.com/blues/fsb/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestReward(t *testing.T, db *gorm.DB) (*RewardLogic, *SysConfigLogic) {
	t.Helper()
	sysCfg := NewSysConfigLogic(db)
	return NewRewardLogic(db, sysCfg, NewEligibilityLogic(nil)), sysCfg
}

// seedUpgradeRecord 落一笔已完成待分润的升级充值记录
func seedUpgradeRecord(t *testing.T, db *gorm.DB, memberId int64, amount float64, orderNo string) {
	t.Helper()
	rec := model.RechargeRecord{
		MemberId:  memberId,
		Amount:    amount,
		OrderNo:   orderNo,
		Status:    model.RechargeStatusCompleted,
		PayMethod: "usdt_erc20",
		Kind:      model.OrderKindUpgrade,
	}
	require.NoError(t, db.Create(&rec).Error)
}

func settleOrder(t *testing.T, r *RewardLogic, db *gorm.DB, orderNo string) error {
	t.Helper()
	return db.Transaction(func(tx *gorm.DB) error {
		return r.SettleUpgradeTx(tx, orderNo)
	})
}

func memberById(t *testing.T, db *gorm.DB, id int64) *model.Member {
	t.Helper()
	var m model.Member
	require.NoError(t, db.First(&m, id).Error)
	return &m
}

func orderEarnings(t *testing.T, db *gorm.DB, orderNo string) []model.EarningsRecord {
	t.Helper()
	var records []model.EarningsRecord
	require.NoError(t, db.Where("order_no = ?", orderNo).Order("level ASC").Find(&records).Error)
	return records
}

func TestSettleLinearChain(t *testing.T) {
	db := newTestDB(t)
	r, sysCfg := newTestReward(t, db)

	mustSet(t, sysCfg, model.ConfigKeyLevelCount, "3")
	mustSet(t, sysCfg, model.ConfigKeyLevelAmounts, "[2, 1.5, 1]")

	seedMember(t, db, 1, nil, eligible)
	seedMember(t, db, 2, ref(1), eligible)
	seedMember(t, db, 3, ref(2), eligible)
	seedMember(t, db, 4, ref(3))
	seedUpgradeRecord(t, db, 4, 30, "ord-1")

	require.NoError(t, settleOrder(t, r, db, "ord-1"))

	assert.InDelta(t, 2, memberById(t, db, 3).Balance, 1e-9)
	assert.InDelta(t, 1.5, memberById(t, db, 2).Balance, 1e-9)
	assert.InDelta(t, 1, memberById(t, db, 1).Balance, 1e-9)

	buyer := memberById(t, db, 4)
	assert.True(t, buyer.IsVip)
	assert.NotNil(t, buyer.VipTime)
	assert.InDelta(t, 0, buyer.Balance, 1e-9)

	records := orderEarnings(t, db, "ord-1")
	require.Len(t, records, 3)
	for i, rec := range records {
		assert.Equal(t, i+1, rec.Level)
		assert.Equal(t, int64(4), rec.FromMemberId)
		assert.False(t, rec.Missed)
	}

	var rec model.RechargeRecord
	require.NoError(t, db.Where("order_no = ?", "ord-1").First(&rec).Error)
	assert.True(t, rec.Distributed)
}

func TestSettleIdempotent(t *testing.T) {
	db := newTestDB(t)
	r, sysCfg := newTestReward(t, db)

	mustSet(t, sysCfg, model.ConfigKeyLevelCount, "2")
	mustSet(t, sysCfg, model.ConfigKeyLevelAmounts, "[2, 1]")

	seedMember(t, db, 1, nil, eligible)
	seedMember(t, db, 2, ref(1), eligible)
	seedMember(t, db, 3, ref(2))
	seedUpgradeRecord(t, db, 3, 30, "ord-1")

	require.NoError(t, settleOrder(t, r, db, "ord-1"))
	// 重复结算必须是空操作
	require.NoError(t, settleOrder(t, r, db, "ord-1"))

	assert.InDelta(t, 2, memberById(t, db, 2).Balance, 1e-9)
	assert.InDelta(t, 1, memberById(t, db, 1).Balance, 1e-9)
	assert.Len(t, orderEarnings(t, db, "ord-1"), 2)
}

func TestSettleShortChainFallsBack(t *testing.T) {
	db := newTestDB(t)
	r, sysCfg := newTestReward(t, db)

	mustSet(t, sysCfg, model.ConfigKeyLevelCount, "3")
	mustSet(t, sysCfg, model.ConfigKeyLevelAmounts, "[2, 1.5, 1]")

	seedMember(t, db, 1, nil, eligible)
	seedMember(t, db, 2, ref(1))
	fa, err := NewFallbackLogic(db).Create("fb-a", "")
	require.NoError(t, err)
	seedUpgradeRecord(t, db, 2, 30, "ord-1")

	require.NoError(t, settleOrder(t, r, db, "ord-1"))

	assert.InDelta(t, 2, memberById(t, db, 1).Balance, 1e-9)

	var account model.FallbackAccount
	require.NoError(t, db.First(&account, fa.Id).Error)
	assert.InDelta(t, 1.5, account.TotalEarned, 1e-9)

	// 第3层既无上级也无保底，只留2条台账
	records := orderEarnings(t, db, "ord-1")
	require.Len(t, records, 2)
	require.NotNil(t, records[1].FallbackId)
	assert.Equal(t, fa.Id, *records[1].FallbackId)
	assert.Nil(t, records[1].MemberId)
}

func TestSettleMixedEligibility(t *testing.T) {
	db := newTestDB(t)
	r, sysCfg := newTestReward(t, db)

	mustSet(t, sysCfg, model.ConfigKeyLevelCount, "3")
	mustSet(t, sysCfg, model.ConfigKeyLevelAmounts, "[2, 1.5, 1]")

	seedMember(t, db, 1, nil, eligible)
	seedMember(t, db, 2, ref(1)) // 未升级，不合格
	seedMember(t, db, 3, ref(2), eligible)
	seedMember(t, db, 4, ref(3))
	seedUpgradeRecord(t, db, 4, 30, "ord-1")

	require.NoError(t, settleOrder(t, r, db, "ord-1"))

	assert.InDelta(t, 2, memberById(t, db, 3).Balance, 1e-9)
	assert.InDelta(t, 1, memberById(t, db, 1).Balance, 1e-9)

	// 不合格层位入错失余额，可用余额不动
	missed := memberById(t, db, 2)
	assert.InDelta(t, 0, missed.Balance, 1e-9)
	assert.InDelta(t, 1.5, missed.MissedBalance, 1e-9)
	assert.InDelta(t, 0, missed.TotalEarned, 1e-9)

	records := orderEarnings(t, db, "ord-1")
	require.Len(t, records, 3)
	assert.False(t, records[0].Missed)
	assert.True(t, records[1].Missed)
	assert.False(t, records[2].Missed)
}

func TestSettleZeroAmountTier(t *testing.T) {
	db := newTestDB(t)
	r, sysCfg := newTestReward(t, db)

	mustSet(t, sysCfg, model.ConfigKeyLevelCount, "2")
	mustSet(t, sysCfg, model.ConfigKeyLevelAmounts, "[2, 0]")

	seedMember(t, db, 1, nil, eligible)
	seedMember(t, db, 2, ref(1), eligible)
	seedMember(t, db, 3, ref(2))
	seedUpgradeRecord(t, db, 3, 30, "ord-1")

	require.NoError(t, settleOrder(t, r, db, "ord-1"))

	// 零奖励层位留痕但不动余额
	assert.InDelta(t, 0, memberById(t, db, 1).Balance, 1e-9)
	records := orderEarnings(t, db, "ord-1")
	require.Len(t, records, 2)
	assert.InDelta(t, 0, records[1].Amount, 1e-9)
	assert.False(t, records[1].Missed)
}

func TestSettleRewardSumExceedsAmount(t *testing.T) {
	db := newTestDB(t)
	r, sysCfg := newTestReward(t, db)

	mustSet(t, sysCfg, model.ConfigKeyLevelCount, "3")
	mustSet(t, sysCfg, model.ConfigKeyLevelAmounts, "[2, 1.5, 1]")

	seedMember(t, db, 1, nil, eligible)
	seedMember(t, db, 2, ref(1))
	seedUpgradeRecord(t, db, 2, 4, "ord-1")

	err := settleOrder(t, r, db, "ord-1")
	assert.ErrorIs(t, err, errs.ErrInvariantViolated)

	// 事务回滚，一条台账都不能留
	assert.Empty(t, orderEarnings(t, db, "ord-1"))
	var rec model.RechargeRecord
	require.NoError(t, db.Where("order_no = ?", "ord-1").First(&rec).Error)
	assert.False(t, rec.Distributed)
}

func TestSettleUsesConfigAtSettlementTime(t *testing.T) {
	db := newTestDB(t)
	r, sysCfg := newTestReward(t, db)

	mustSet(t, sysCfg, model.ConfigKeyLevelCount, "3")
	mustSet(t, sysCfg, model.ConfigKeyLevelAmounts, "[2, 1.5, 1]")

	seedMember(t, db, 1, nil, eligible)
	seedMember(t, db, 2, ref(1), eligible)
	seedMember(t, db, 3, ref(2), eligible)
	seedMember(t, db, 4, ref(3))
	seedUpgradeRecord(t, db, 4, 30, "ord-1")

	// 下单后缩层，结算以当下配置为准
	mustSet(t, sysCfg, model.ConfigKeyLevelCount, "2")

	require.NoError(t, settleOrder(t, r, db, "ord-1"))

	assert.Len(t, orderEarnings(t, db, "ord-1"), 2)
	assert.InDelta(t, 0, memberById(t, db, 1).Balance, 1e-9)
}

func TestGrantVip(t *testing.T) {
	db := newTestDB(t)
	r, sysCfg := newTestReward(t, db)

	mustSet(t, sysCfg, model.ConfigKeyLevelCount, "1")
	mustSet(t, sysCfg, model.ConfigKeyLevelAmounts, "[2]")
	mustSet(t, sysCfg, model.ConfigKeyVipPrice, "30")

	seedMember(t, db, 1, nil, eligible)
	seedMember(t, db, 2, ref(1))

	orderNo, err := r.GrantVip(2)
	require.NoError(t, err)
	require.NotEmpty(t, orderNo)

	assert.True(t, memberById(t, db, 2).IsVip)
	assert.InDelta(t, 2, memberById(t, db, 1).Balance, 1e-9)

	var rec model.RechargeRecord
	require.NoError(t, db.Where("order_no = ?", orderNo).First(&rec).Error)
	assert.Equal(t, "admin", rec.PayMethod)
	assert.True(t, rec.Distributed)

	// 已是会员不可重复开通
	_, err = r.GrantVip(2)
	assert.ErrorIs(t, err, errs.ErrConflict)

	_, err = r.GrantVip(999)
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestRetryPendingDistribution(t *testing.T) {
	db := newTestDB(t)
	r, sysCfg := newTestReward(t, db)

	mustSet(t, sysCfg, model.ConfigKeyLevelCount, "1")
	mustSet(t, sysCfg, model.ConfigKeyLevelAmounts, "[2]")

	seedMember(t, db, 1, nil, eligible)
	seedMember(t, db, 2, ref(1))
	seedUpgradeRecord(t, db, 2, 30, "ord-1")

	require.NoError(t, r.MarkPendingDistribution("ord-1"))

	settled, err := r.RetryPending()
	require.NoError(t, err)
	assert.Equal(t, 1, settled)

	var rec model.RechargeRecord
	require.NoError(t, db.Where("order_no = ?", "ord-1").First(&rec).Error)
	assert.True(t, rec.Distributed)
	assert.False(t, rec.PendingDistribution)
	assert.InDelta(t, 2, memberById(t, db, 1).Balance, 1e-9)

	// 已补发完毕后再跑一轮无事可做
	settled, err = r.RetryPending()
	require.NoError(t, err)
	assert.Equal(t, 0, settled)
}
