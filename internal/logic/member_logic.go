package logic

import (
	"errors"
	"fmt"

	"github.com/blues/fsb/internal/errs"
	"github.com/blues/fsb/internal/logger"
	"github.com/blues/fsb/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MemberLogic 会员业务逻辑
type MemberLogic struct {
	db *gorm.DB
}

// NewMemberLogic 创建会员业务逻辑
func NewMemberLogic(db *gorm.DB) *MemberLogic {
	return &MemberLogic{db: db}
}

// Get 按外部ID获取会员
func (m *MemberLogic) Get(id int64) (*model.Member, error) {
	var member model.Member
	if err := m.db.First(&member, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: 会员 %d 不存在", errs.ErrNotFound, id)
		}
		return nil, fmt.Errorf("获取会员失败: %w", err)
	}
	return &member, nil
}

// GetByUsername 按用户名获取会员
func (m *MemberLogic) GetByUsername(username string) (*model.Member, error) {
	var member model.Member
	if err := m.db.Where("username = ?", username).First(&member).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: 会员 %s 不存在", errs.ErrNotFound, username)
		}
		return nil, fmt.Errorf("获取会员失败: %w", err)
	}
	return &member, nil
}

// List 分页获取会员列表
func (m *MemberLogic) List(page, pageSize int, onlyVip bool) ([]model.Member, int64, error) {
	var members []model.Member
	var total int64

	query := m.db.Model(&model.Member{})
	if onlyVip {
		query = query.Where("is_vip = ?", true)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("获取会员总数失败: %w", err)
	}

	offset := (page - 1) * pageSize
	if err := query.Offset(offset).
		Limit(pageSize).
		Order("created_at DESC").
		Find(&members).Error; err != nil {
		return nil, 0, fmt.Errorf("获取会员列表失败: %w", err)
	}

	return members, total, nil
}

// Create 创建会员。推荐人在创建时一次性绑定，此后不可变更。
// 自荐直接拒绝；推荐人不存在时降级为根会员创建。
// 返回是否为本次新建：并发创建同一ID时只有一个赢家，输家观察到 false。
func (m *MemberLogic) Create(id int64, username string, referrerId *int64) (bool, error) {
	if id == 0 {
		return false, fmt.Errorf("%w: 会员ID不能为空", errs.ErrInsufficientInput)
	}
	if referrerId != nil && *referrerId == id {
		return false, fmt.Errorf("%w: 不能推荐自己", errs.ErrInsufficientInput)
	}

	if referrerId != nil {
		var count int64
		if err := m.db.Model(&model.Member{}).Where("id = ?", *referrerId).Count(&count).Error; err != nil {
			return false, fmt.Errorf("检查推荐人失败: %w", err)
		}
		if count == 0 {
			logger.Warn("会员 %d 的推荐人 %d 不存在，按根会员创建", id, *referrerId)
			referrerId = nil
		}
	}

	member := model.Member{
		Id:         id,
		Username:   username,
		ReferrerId: referrerId,
	}

	// 依赖主键冲突裁决并发创建，输家 RowsAffected 为 0
	res := m.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&member)
	if res.Error != nil {
		return false, fmt.Errorf("创建会员失败: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return false, nil
	}

	// 刷新祖先路径缓存
	tree := NewTreeLogic(m.db)
	if err := tree.RefreshLevelPath(id); err != nil {
		logger.Warn("刷新会员 %d 祖先路径失败: %v", id, err)
	}

	return true, nil
}

// Update 更新会员，仅允许白名单字段。
// is_vip 只能 false→true，降级请求被忽略。
// 余额与错失余额不在白名单内：管理员调整一律走收益台账的
// 补偿分录（EarningsLogic.Correct），保证余额永远能从台账重算出来。
func (m *MemberLogic) Update(id int64, patch map[string]interface{}) error {
	allowed := map[string]bool{
		"username":         true,
		"is_group_bound":   true,
		"is_group_admin":   true,
		"is_joined_upline": true,
		"group_link":       true,
		"withdraw_address": true,
		"is_vip":           true,
	}

	updates := make(map[string]interface{}, len(patch))
	for k, v := range patch {
		if !allowed[k] {
			return fmt.Errorf("%w: 字段 %s 不允许更新", errs.ErrInsufficientInput, k)
		}
		if k == "is_vip" {
			flag, ok := v.(bool)
			if !ok || !flag {
				continue
			}
		}
		updates[k] = v
	}
	if len(updates) == 0 {
		return nil
	}

	res := m.db.Model(&model.Member{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("更新会员失败: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: 会员 %d 不存在", errs.ErrNotFound, id)
	}
	return nil
}

// Credit 给会员入账并写收益台账，单事务内行锁串行化
func (m *MemberLogic) Credit(id int64, amount float64, level int, fromId int64, orderNo, description string) (float64, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("%w: 入账金额必须大于0", errs.ErrInsufficientInput)
	}

	var newBalance float64
	err := m.db.Transaction(func(tx *gorm.DB) error {
		balance, err := creditTx(tx, id, amount, level, fromId, orderNo, description)
		if err != nil {
			return err
		}
		newBalance = balance
		return nil
	})
	return newBalance, err
}

// creditTx 在调用方事务内执行入账，锁定会员行
func creditTx(tx *gorm.DB, id int64, amount float64, level int, fromId int64, orderNo, description string) (float64, error) {
	var member model.Member
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&member, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, fmt.Errorf("%w: 会员 %d 不存在", errs.ErrNotFound, id)
		}
		return 0, fmt.Errorf("锁定会员失败: %w", err)
	}

	updates := map[string]interface{}{
		"balance":      gorm.Expr("balance + ?", amount),
		"total_earned": gorm.Expr("total_earned + ?", amount),
	}
	if err := tx.Model(&member).Updates(updates).Error; err != nil {
		return 0, fmt.Errorf("更新会员余额失败: %w", err)
	}

	record := model.EarningsRecord{
		FromMemberId: fromId,
		MemberId:     &id,
		OrderNo:      orderNo,
		Level:        level,
		Amount:       amount,
		Description:  description,
	}
	if err := tx.Create(&record).Error; err != nil {
		return 0, fmt.Errorf("写收益台账失败: %w", err)
	}

	return member.Balance + amount, nil
}

// addMissedTx 记错失余额：不动可用余额，只累计 missed_balance 并留痕
func addMissedTx(tx *gorm.DB, id int64, amount float64, level int, fromId int64, orderNo, reason string) error {
	var member model.Member
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&member, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: 会员 %d 不存在", errs.ErrNotFound, id)
		}
		return fmt.Errorf("锁定会员失败: %w", err)
	}

	err := tx.Model(&member).
		Update("missed_balance", gorm.Expr("missed_balance + ?", amount)).Error
	if err != nil {
		return fmt.Errorf("更新错失余额失败: %w", err)
	}

	record := model.EarningsRecord{
		FromMemberId: fromId,
		MemberId:     &id,
		OrderNo:      orderNo,
		Level:        level,
		Amount:       amount,
		Missed:       true,
		Description:  fmt.Sprintf("missed: %s", reason),
	}
	if err := tx.Create(&record).Error; err != nil {
		return fmt.Errorf("写收益台账失败: %w", err)
	}
	return nil
}

// TopUpTx 在调用方事务内给会员充值入账
func (m *MemberLogic) TopUpTx(tx *gorm.DB, id int64, amount float64) error {
	return topUpTx(tx, id, amount)
}

// topUpTx 充值入账，台账由充值记录承载
func topUpTx(tx *gorm.DB, id int64, amount float64) error {
	if amount <= 0 {
		return fmt.Errorf("%w: 充值金额必须大于0", errs.ErrInsufficientInput)
	}
	res := tx.Model(&model.Member{}).Where("id = ?", id).
		Update("balance", gorm.Expr("balance + ?", amount))
	if res.Error != nil {
		return fmt.Errorf("充值入账失败: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: 会员 %d 不存在", errs.ErrNotFound, id)
	}
	return nil
}

// debitTx 扣减余额，余额不足视为冲突
func debitTx(tx *gorm.DB, id int64, amount float64) error {
	if amount <= 0 {
		return fmt.Errorf("%w: 扣减金额必须大于0", errs.ErrInsufficientInput)
	}

	var member model.Member
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&member, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: 会员 %d 不存在", errs.ErrNotFound, id)
		}
		return fmt.Errorf("锁定会员失败: %w", err)
	}
	if member.Balance < amount {
		return fmt.Errorf("%w: 余额不足，当前 %v，需要 %v", errs.ErrConflict, member.Balance, amount)
	}

	err := tx.Model(&member).
		Update("balance", gorm.Expr("balance - ?", amount)).Error
	if err != nil {
		return fmt.Errorf("扣减余额失败: %w", err)
	}
	return nil
}
