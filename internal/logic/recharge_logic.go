package logic

import (
	"errors"
	"fmt"

	"github.com/blues/fsb/internal/errs"
	"github.com/blues/fsb/internal/model"
	"gorm.io/gorm"
)

// RechargeLogic 充值台账业务逻辑
type RechargeLogic struct {
	db *gorm.DB
}

// NewRechargeLogic 创建充值台账业务逻辑
func NewRechargeLogic(db *gorm.DB) *RechargeLogic {
	return &RechargeLogic{db: db}
}

// GetByOrderNo 按订单号查询充值记录
func (r *RechargeLogic) GetByOrderNo(orderNo string) (*model.RechargeRecord, error) {
	var rec model.RechargeRecord
	if err := r.db.Where("order_no = ?", orderNo).First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: 充值记录 %s 不存在", errs.ErrNotFound, orderNo)
		}
		return nil, fmt.Errorf("获取充值记录失败: %w", err)
	}
	return &rec, nil
}

// ListByMember 分页查询会员充值记录
func (r *RechargeLogic) ListByMember(memberId int64, page, pageSize int) ([]model.RechargeRecord, int64, error) {
	var records []model.RechargeRecord
	var total int64

	query := r.db.Model(&model.RechargeRecord{}).Where("member_id = ?", memberId)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("获取充值记录总数失败: %w", err)
	}

	offset := (page - 1) * pageSize
	if err := query.Offset(offset).
		Limit(pageSize).
		Order("created_at DESC").
		Find(&records).Error; err != nil {
		return nil, 0, fmt.Errorf("获取充值记录失败: %w", err)
	}

	return records, total, nil
}

// List 分页查询充值记录，可按状态过滤
func (r *RechargeLogic) List(status string, page, pageSize int) ([]model.RechargeRecord, int64, error) {
	var records []model.RechargeRecord
	var total int64

	query := r.db.Model(&model.RechargeRecord{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("获取充值记录总数失败: %w", err)
	}

	offset := (page - 1) * pageSize
	if err := query.Offset(offset).
		Limit(pageSize).
		Order("created_at DESC").
		Find(&records).Error; err != nil {
		return nil, 0, fmt.Errorf("获取充值记录失败: %w", err)
	}

	return records, total, nil
}

// Stats 充值统计
func (r *RechargeLogic) Stats() (map[string]interface{}, error) {
	var totalCompleted int64
	if err := r.db.Model(&model.RechargeRecord{}).
		Where("status = ?", model.RechargeStatusCompleted).
		Count(&totalCompleted).Error; err != nil {
		return nil, fmt.Errorf("统计充值笔数失败: %w", err)
	}

	var totalAmount float64
	if err := r.db.Model(&model.RechargeRecord{}).
		Where("status = ?", model.RechargeStatusCompleted).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&totalAmount).Error; err != nil {
		return nil, fmt.Errorf("统计充值金额失败: %w", err)
	}

	var pendingDistribution int64
	if err := r.db.Model(&model.RechargeRecord{}).
		Where("pending_distribution = ?", true).
		Count(&pendingDistribution).Error; err != nil {
		return nil, fmt.Errorf("统计待补发分润失败: %w", err)
	}

	return map[string]interface{}{
		"completed_count":      totalCompleted,
		"completed_amount":     totalAmount,
		"pending_distribution": pendingDistribution,
	}, nil
}
