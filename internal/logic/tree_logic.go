package logic

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/blues/fsb/internal/errs"
	"github.com/blues/fsb/internal/model"
	"gorm.io/gorm"
)

// maxPathDepth 祖先路径刷新的遍历上限，防御脏数据成环
const maxPathDepth = 100

// ChainEntry 分润链上的一个层位。Member 与 Fallback 至多一个非空，
// 两者皆空表示保底账户也已用尽的哨兵位。
type ChainEntry struct {
	Level    int
	Member   *model.Member
	Fallback *model.FallbackAccount
}

// IsSentinel 是否为无受益人的哨兵位
func (e ChainEntry) IsSentinel() bool {
	return e.Member == nil && e.Fallback == nil
}

// TreeLogic 推荐树导航，只读计算
type TreeLogic struct {
	db *gorm.DB
}

// NewTreeLogic 创建推荐树导航
func NewTreeLogic(db *gorm.DB) *TreeLogic {
	return &TreeLogic{db: db}
}

// TeamStats 团队统计
type TeamStats struct {
	DirectCount int `json:"direct_count"` // 直推人数
	TeamCount   int `json:"team_count"`   // N 层内团队总人数
	VipCount    int `json:"vip_count"`    // 团队内会员数
}

// UplineChain 自下而上收集 n 层受益人。真实祖先优先；链不足时按插入
// 顺序取启用中的保底账户顶替；保底也用尽则填哨兵位。固定返回 n 个层位，
// 最多上溯 n 跳。
func (t *TreeLogic) UplineChain(member *model.Member, n int) ([]ChainEntry, error) {
	if member == nil || n < 1 {
		return nil, fmt.Errorf("%w: 非法的分润链请求", errs.ErrInsufficientInput)
	}

	chain := make([]ChainEntry, 0, n)
	current := member
	for level := 1; level <= n; level++ {
		if current.ReferrerId == nil {
			break
		}
		var parent model.Member
		if err := t.db.First(&parent, *current.ReferrerId).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				break
			}
			return nil, fmt.Errorf("查询第 %d 层上级失败: %w", level, err)
		}
		p := parent
		chain = append(chain, ChainEntry{Level: level, Member: &p})
		current = &p
	}

	real := len(chain)
	if real == n {
		return chain, nil
	}

	fallback := NewFallbackLogic(t.db)
	actives, err := fallback.ListActive()
	if err != nil {
		return nil, err
	}

	for level := real + 1; level <= n; level++ {
		idx := level - real - 1
		if idx < len(actives) {
			a := actives[idx]
			chain = append(chain, ChainEntry{Level: level, Fallback: &a})
		} else {
			chain = append(chain, ChainEntry{Level: level})
		}
	}
	return chain, nil
}

// DownlineTree 按层广度优先枚举 n 层下级
func (t *TreeLogic) DownlineTree(memberId int64, n int) (map[int][]model.Member, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: 层数必须大于0", errs.ErrInsufficientInput)
	}

	tree := make(map[int][]model.Member)
	frontier := []int64{memberId}

	for level := 1; level <= n && len(frontier) > 0; level++ {
		var children []model.Member
		if err := t.db.Where("referrer_id IN ?", frontier).Find(&children).Error; err != nil {
			return nil, fmt.Errorf("查询第 %d 层下级失败: %w", level, err)
		}
		if len(children) == 0 {
			break
		}
		tree[level] = children

		frontier = frontier[:0]
		for _, c := range children {
			frontier = append(frontier, c.Id)
		}
	}
	return tree, nil
}

// TeamStats 读时派生的团队统计
func (t *TreeLogic) TeamStats(memberId int64, n int) (*TeamStats, error) {
	tree, err := t.DownlineTree(memberId, n)
	if err != nil {
		return nil, err
	}

	stats := &TeamStats{DirectCount: len(tree[1])}
	for _, members := range tree {
		stats.TeamCount += len(members)
		for _, m := range members {
			if m.IsVip {
				stats.VipCount++
			}
		}
	}
	return stats, nil
}

// RefreshLevelPath 重算祖先路径缓存（根在前，逗号分隔）。
// 路径只是缓存，推荐边才是事实。
func (t *TreeLogic) RefreshLevelPath(memberId int64) error {
	var member model.Member
	if err := t.db.First(&member, memberId).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: 会员 %d 不存在", errs.ErrNotFound, memberId)
		}
		return fmt.Errorf("获取会员失败: %w", err)
	}

	var ids []string
	current := member
	for depth := 0; current.ReferrerId != nil; depth++ {
		if depth >= maxPathDepth {
			return fmt.Errorf("%w: 会员 %d 祖先路径超过 %d 层", errs.ErrInvariantViolated, memberId, maxPathDepth)
		}
		var parent model.Member
		if err := t.db.First(&parent, *current.ReferrerId).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				break
			}
			return fmt.Errorf("查询上级失败: %w", err)
		}
		ids = append(ids, strconv.FormatInt(parent.Id, 10))
		current = parent
	}

	// 根在前
	for i, j := 0, len(ids)-1; i < j; i, j = i+1, j-1 {
		ids[i], ids[j] = ids[j], ids[i]
	}

	return t.db.Model(&model.Member{}).Where("id = ?", memberId).
		Update("level_path", strings.Join(ids, ",")).Error
}
