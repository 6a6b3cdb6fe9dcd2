package logic

import (
	"errors"
	"fmt"
	"time"

	"github.com/blues/fsb/internal/errs"
	"github.com/blues/fsb/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// WithdrawLogic 提现业务逻辑
type WithdrawLogic struct {
	db     *gorm.DB
	sysCfg *SysConfigLogic
}

// NewWithdrawLogic 创建提现业务逻辑
func NewWithdrawLogic(db *gorm.DB, sysCfg *SysConfigLogic) *WithdrawLogic {
	return &WithdrawLogic{db: db, sysCfg: sysCfg}
}

// Apply 会员发起提现申请。余额在审核通过时才扣减，
// 申请时只做门槛与余额预检。
func (w *WithdrawLogic) Apply(memberId int64, amount float64) (*model.WithdrawRecord, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: 提现金额必须大于0", errs.ErrInsufficientInput)
	}

	var member model.Member
	if err := w.db.First(&member, memberId).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: 会员 %d 不存在", errs.ErrNotFound, memberId)
		}
		return nil, fmt.Errorf("获取会员失败: %w", err)
	}
	if member.WithdrawAddress == "" {
		return nil, fmt.Errorf("%w: 未设置提现地址", errs.ErrInsufficientInput)
	}

	threshold := w.sysCfg.WithdrawThreshold()
	if member.Balance < threshold {
		return nil, fmt.Errorf("%w: 余额 %v 未达到提现门槛 %v", errs.ErrConflict, member.Balance, threshold)
	}
	if member.Balance < amount {
		return nil, fmt.Errorf("%w: 余额不足", errs.ErrConflict)
	}

	record := model.WithdrawRecord{
		MemberId: memberId,
		Amount:   amount,
		Address:  member.WithdrawAddress,
		Status:   model.WithdrawStatusPending,
	}
	if err := w.db.Create(&record).Error; err != nil {
		return nil, fmt.Errorf("创建提现申请失败: %w", err)
	}
	return &record, nil
}

// Approve 审核通过：扣减余额与落终态在同一事务内完成
func (w *WithdrawLogic) Approve(id int64) error {
	return w.db.Transaction(func(tx *gorm.DB) error {
		var record model.WithdrawRecord
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&record, id).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: 提现记录 %d 不存在", errs.ErrNotFound, id)
			}
			return fmt.Errorf("锁定提现记录失败: %w", err)
		}
		if record.Status != model.WithdrawStatusPending {
			return fmt.Errorf("%w: 提现记录 %d 已处理", errs.ErrConflict, id)
		}

		if err := debitTx(tx, record.MemberId, record.Amount); err != nil {
			return err
		}

		now := time.Now()
		updates := map[string]interface{}{
			"status":       model.WithdrawStatusApproved,
			"processed_at": &now,
		}
		if err := tx.Model(&record).Updates(updates).Error; err != nil {
			return fmt.Errorf("更新提现记录失败: %w", err)
		}
		return nil
	})
}

// Reject 审核拒绝，余额不动
func (w *WithdrawLogic) Reject(id int64, remark string) error {
	now := time.Now()
	res := w.db.Model(&model.WithdrawRecord{}).
		Where("id = ? AND status = ?", id, model.WithdrawStatusPending).
		Updates(map[string]interface{}{
			"status":       model.WithdrawStatusRejected,
			"processed_at": &now,
			"remark":       remark,
		})
	if res.Error != nil {
		return fmt.Errorf("拒绝提现失败: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: 提现记录 %d 不存在或已处理", errs.ErrConflict, id)
	}
	return nil
}

// List 分页查询提现记录，可按状态过滤
func (w *WithdrawLogic) List(status string, page, pageSize int) ([]model.WithdrawRecord, int64, error) {
	var records []model.WithdrawRecord
	var total int64

	query := w.db.Model(&model.WithdrawRecord{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("获取提现记录总数失败: %w", err)
	}

	offset := (page - 1) * pageSize
	if err := query.Offset(offset).
		Limit(pageSize).
		Order("created_at DESC").
		Find(&records).Error; err != nil {
		return nil, 0, fmt.Errorf("获取提现记录失败: %w", err)
	}

	return records, total, nil
}
