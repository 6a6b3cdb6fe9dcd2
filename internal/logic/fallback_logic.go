package logic

import (
	"errors"
	"fmt"

	"github.com/blues/fsb/internal/errs"
	"github.com/blues/fsb/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FallbackLogic 保底账户业务逻辑
type FallbackLogic struct {
	db *gorm.DB
}

// NewFallbackLogic 创建保底账户业务逻辑
func NewFallbackLogic(db *gorm.DB) *FallbackLogic {
	return &FallbackLogic{db: db}
}

// Create 新增保底账户，仅管理员操作
func (f *FallbackLogic) Create(username, groupLink string) (*model.FallbackAccount, error) {
	if username == "" {
		return nil, fmt.Errorf("%w: 保底账户用户名不能为空", errs.ErrInsufficientInput)
	}

	account := model.FallbackAccount{
		Username:  username,
		GroupLink: groupLink,
		Active:    true,
	}
	if err := f.db.Create(&account).Error; err != nil {
		return nil, fmt.Errorf("创建保底账户失败: %w", err)
	}
	return &account, nil
}

// Deactivate 停用保底账户。账户被台账引用，只停用不删除。
func (f *FallbackLogic) Deactivate(id int64) error {
	res := f.db.Model(&model.FallbackAccount{}).Where("id = ?", id).Update("active", false)
	if res.Error != nil {
		return fmt.Errorf("停用保底账户失败: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: 保底账户 %d 不存在", errs.ErrNotFound, id)
	}
	return nil
}

// ListActive 按插入顺序返回启用中的保底账户
func (f *FallbackLogic) ListActive() ([]model.FallbackAccount, error) {
	var accounts []model.FallbackAccount
	if err := f.db.Where("active = ?", true).Order("id ASC").Find(&accounts).Error; err != nil {
		return nil, fmt.Errorf("获取保底账户失败: %w", err)
	}
	return accounts, nil
}

// List 返回全部保底账户
func (f *FallbackLogic) List() ([]model.FallbackAccount, error) {
	var accounts []model.FallbackAccount
	if err := f.db.Order("id ASC").Find(&accounts).Error; err != nil {
		return nil, fmt.Errorf("获取保底账户失败: %w", err)
	}
	return accounts, nil
}

// NthActive 返回第 k 个（0起）启用中的保底账户，不足返回 nil
func (f *FallbackLogic) NthActive(k int) (*model.FallbackAccount, error) {
	if k < 0 {
		return nil, fmt.Errorf("%w: 下标不能为负", errs.ErrInsufficientInput)
	}
	var account model.FallbackAccount
	err := f.db.Where("active = ?", true).
		Order("id ASC").
		Offset(k).
		First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("获取保底账户失败: %w", err)
	}
	return &account, nil
}

// creditFallbackTx 给保底账户累计收益，行锁串行化
func creditFallbackTx(tx *gorm.DB, id int64, amount float64) error {
	if amount <= 0 {
		return fmt.Errorf("%w: 入账金额必须大于0", errs.ErrInsufficientInput)
	}

	var account model.FallbackAccount
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&account, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: 保底账户 %d 不存在", errs.ErrNotFound, id)
		}
		return fmt.Errorf("锁定保底账户失败: %w", err)
	}

	err := tx.Model(&account).
		Update("total_earned", gorm.Expr("total_earned + ?", amount)).Error
	if err != nil {
		return fmt.Errorf("更新保底账户收益失败: %w", err)
	}
	return nil
}
