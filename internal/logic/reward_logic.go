package logic

import (
	"errors"
	"fmt"
	"time"

	"github.com/blues/fsb/internal/errs"
	"github.com/blues/fsb/internal/logger"
	"github.com/blues/fsb/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// amountEpsilon 金额比较容差，定点6位小数场景下足够
const amountEpsilon = 1e-9

// RewardLogic 多层分润业务逻辑
type RewardLogic struct {
	db          *gorm.DB
	sysCfg      *SysConfigLogic
	eligibility *EligibilityLogic
}

// NewRewardLogic 创建分润业务逻辑
func NewRewardLogic(db *gorm.DB, sysCfg *SysConfigLogic, eligibility *EligibilityLogic) *RewardLogic {
	return &RewardLogic{db: db, sysCfg: sysCfg, eligibility: eligibility}
}

// SettleUpgradeTx 在调用方事务内结算一笔升级订单的分润。
// 以充值记录的 distributed 标记保证重复结算为空操作。
func (r *RewardLogic) SettleUpgradeTx(tx *gorm.DB, orderNo string) error {
	var rec model.RechargeRecord
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("order_no = ?", orderNo).First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: 充值记录 %s 不存在", errs.ErrNotFound, orderNo)
		}
		return fmt.Errorf("锁定充值记录失败: %w", err)
	}
	if rec.Distributed {
		logger.Info("订单 %s 已分润，跳过", orderNo)
		return nil
	}

	var member model.Member
	if err := tx.First(&member, rec.MemberId).Error; err != nil {
		return fmt.Errorf("获取升级会员 %d 失败: %w", rec.MemberId, err)
	}

	if err := r.distributeTx(tx, &member, orderNo, rec.Amount); err != nil {
		return err
	}

	updates := map[string]interface{}{
		"distributed":          true,
		"pending_distribution": false,
	}
	if err := tx.Model(&rec).Updates(updates).Error; err != nil {
		return fmt.Errorf("更新充值记录分润状态失败: %w", err)
	}
	return nil
}

// distributeTx 执行一次 N 层分润。层数与各层金额以结算时刻的配置为准，
// 订单创建后配置缩层则只发当前层数。
func (r *RewardLogic) distributeTx(tx *gorm.DB, member *model.Member, orderNo string, upgradeAmount float64) error {
	n := r.sysCfg.LevelCount()
	amounts := r.sysCfg.LevelAmounts(n)

	sum := 0.0
	for _, a := range amounts {
		sum += a
	}
	if sum > upgradeAmount+amountEpsilon {
		return fmt.Errorf("%w: 各层奖励之和 %v 超过升级金额 %v", errs.ErrInvariantViolated, sum, upgradeAmount)
	}

	tree := NewTreeLogic(tx)
	chain, err := tree.UplineChain(member, n)
	if err != nil {
		return err
	}

	for i, entry := range chain {
		amount := amounts[i]
		if err := r.settleEntry(tx, member, orderNo, entry, amount); err != nil {
			return err
		}
	}

	// 升级标记只翻转一次
	if !member.IsVip {
		now := time.Now()
		updates := map[string]interface{}{
			"is_vip":   true,
			"vip_time": &now,
		}
		if err := tx.Model(&model.Member{}).Where("id = ?", member.Id).Updates(updates).Error; err != nil {
			return fmt.Errorf("设置会员升级标记失败: %w", err)
		}
	}

	return nil
}

// settleEntry 结算单个层位
func (r *RewardLogic) settleEntry(tx *gorm.DB, from *model.Member, orderNo string, entry ChainEntry, amount float64) error {
	if entry.IsSentinel() {
		logger.Warn("订单 %s 第 %d 层无真实上级且保底账户已用尽，跳过", orderNo, entry.Level)
		return nil
	}

	if amount <= 0 {
		// 层位金额配置为0：留痕但不动任何余额
		rec := model.EarningsRecord{
			FromMemberId: from.Id,
			OrderNo:      orderNo,
			Level:        entry.Level,
			Amount:       0,
			Description:  "零奖励层位",
		}
		if entry.Member != nil {
			rec.MemberId = &entry.Member.Id
		} else {
			rec.FallbackId = &entry.Fallback.Id
		}
		if err := tx.Create(&rec).Error; err != nil {
			return fmt.Errorf("写收益台账失败: %w", err)
		}
		return nil
	}

	if entry.Member != nil {
		b := entry.Member
		ok, reason := r.eligibility.Check(b)
		if ok {
			desc := fmt.Sprintf("第 %d 层升级奖励，来自会员 %d", entry.Level, from.Id)
			if _, err := creditTx(tx, b.Id, amount, entry.Level, from.Id, orderNo, desc); err != nil {
				return err
			}
			return nil
		}
		logger.Info("会员 %d 在订单 %s 第 %d 层不合格(%s)，计入错失余额", b.Id, orderNo, entry.Level, reason)
		return addMissedTx(tx, b.Id, amount, entry.Level, from.Id, orderNo, reason)
	}

	// 保底账户无条件合格
	f := entry.Fallback
	if err := creditFallbackTx(tx, f.Id, amount); err != nil {
		return err
	}
	rec := model.EarningsRecord{
		FromMemberId: from.Id,
		FallbackId:   &f.Id,
		OrderNo:      orderNo,
		Level:        entry.Level,
		Amount:       amount,
		Description:  fmt.Sprintf("第 %d 层保底奖励，来自会员 %d", entry.Level, from.Id),
	}
	if err := tx.Create(&rec).Error; err != nil {
		return fmt.Errorf("写收益台账失败: %w", err)
	}
	return nil
}

// GrantVip 管理员手工开通会员。为保持台账不变量，走与链上支付
// 相同的分润路径：先落一笔已完成的管理员充值记录，再在同一事务内分润。
func (r *RewardLogic) GrantVip(memberId int64) (string, error) {
	var member model.Member
	if err := r.db.First(&member, memberId).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", fmt.Errorf("%w: 会员 %d 不存在", errs.ErrNotFound, memberId)
		}
		return "", fmt.Errorf("获取会员失败: %w", err)
	}
	if member.IsVip {
		return "", fmt.Errorf("%w: 会员 %d 已是付费会员", errs.ErrConflict, memberId)
	}

	orderNo := fmt.Sprintf("admin-%s", uuid.NewString())
	amount := r.sysCfg.EffectiveVipPrice()

	err := r.db.Transaction(func(tx *gorm.DB) error {
		rec := model.RechargeRecord{
			MemberId:  memberId,
			Amount:    amount,
			OrderNo:   orderNo,
			Status:    model.RechargeStatusCompleted,
			PayMethod: "admin",
			Kind:      model.OrderKindUpgrade,
		}
		if err := tx.Create(&rec).Error; err != nil {
			return fmt.Errorf("写管理员充值记录失败: %w", err)
		}
		return r.SettleUpgradeTx(tx, orderNo)
	})
	if err != nil {
		return "", err
	}
	return orderNo, nil
}

// MarkPendingDistribution 支付已完成但分润失败时落重试标记，等待对账任务补发
func (r *RewardLogic) MarkPendingDistribution(orderNo string) error {
	res := r.db.Model(&model.RechargeRecord{}).
		Where("order_no = ? AND distributed = ?", orderNo, false).
		Update("pending_distribution", true)
	if res.Error != nil {
		return fmt.Errorf("写分润重试标记失败: %w", res.Error)
	}
	return nil
}

// RetryPending 重试所有待补发的分润，返回成功补发的笔数
func (r *RewardLogic) RetryPending() (int, error) {
	var records []model.RechargeRecord
	err := r.db.Where("pending_distribution = ? AND distributed = ?", true, false).
		Find(&records).Error
	if err != nil {
		return 0, fmt.Errorf("查询待补发分润失败: %w", err)
	}

	settled := 0
	for _, rec := range records {
		err := r.db.Transaction(func(tx *gorm.DB) error {
			return r.SettleUpgradeTx(tx, rec.OrderNo)
		})
		if err != nil {
			logger.Error("补发订单 %s 分润失败: %v", rec.OrderNo, err)
			continue
		}
		settled++
	}
	return settled, nil
}
