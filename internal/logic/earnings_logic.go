package logic

import (
	"fmt"

	"github.com/blues/fsb/internal/errs"
	"github.com/blues/fsb/internal/model"
	"gorm.io/gorm"
)

// EarningsLogic 收益台账业务逻辑，台账只追加
type EarningsLogic struct {
	db *gorm.DB
}

// NewEarningsLogic 创建收益台账业务逻辑
func NewEarningsLogic(db *gorm.DB) *EarningsLogic {
	return &EarningsLogic{db: db}
}

// ListByMember 分页查询会员收益记录
func (e *EarningsLogic) ListByMember(memberId int64, page, pageSize int) ([]model.EarningsRecord, int64, error) {
	var records []model.EarningsRecord
	var total int64

	query := e.db.Model(&model.EarningsRecord{}).Where("member_id = ?", memberId)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("获取收益记录总数失败: %w", err)
	}

	offset := (page - 1) * pageSize
	if err := query.Offset(offset).
		Limit(pageSize).
		Order("created_at DESC").
		Find(&records).Error; err != nil {
		return nil, 0, fmt.Errorf("获取收益记录失败: %w", err)
	}

	return records, total, nil
}

// ListByOrder 查询一笔升级订单产生的全部收益记录
func (e *EarningsLogic) ListByOrder(orderNo string) ([]model.EarningsRecord, error) {
	var records []model.EarningsRecord
	if err := e.db.Where("order_no = ?", orderNo).Order("level ASC").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("获取订单收益记录失败: %w", err)
	}
	return records, nil
}

// TotalEarned 从台账重算会员累计实收（不含错失），用于对账
func (e *EarningsLogic) TotalEarned(memberId int64) (float64, error) {
	var total float64
	err := e.db.Model(&model.EarningsRecord{}).
		Where("member_id = ? AND missed = ?", memberId, false).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, fmt.Errorf("统计会员收益失败: %w", err)
	}
	return total, nil
}

// Correct 管理员更正。台账本身不可改写，更正以补偿分录落账，
// 同一事务内同步调整会员余额。
func (e *EarningsLogic) Correct(memberId int64, amount float64, description string) error {
	if amount == 0 {
		return fmt.Errorf("%w: 更正金额不能为0", errs.ErrInsufficientInput)
	}

	return e.db.Transaction(func(tx *gorm.DB) error {
		if amount > 0 {
			if err := topUpTx(tx, memberId, amount); err != nil {
				return err
			}
		} else {
			if err := debitTx(tx, memberId, -amount); err != nil {
				return err
			}
		}

		rec := model.EarningsRecord{
			FromMemberId: memberId,
			MemberId:     &memberId,
			Amount:       amount,
			Description:  fmt.Sprintf("管理员更正: %s", description),
		}
		if err := tx.Create(&rec).Error; err != nil {
			return fmt.Errorf("写更正分录失败: %w", err)
		}
		return nil
	})
}
