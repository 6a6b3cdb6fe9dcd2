package logic

import (
	"github.com/blues/fsb/internal/logger"
	"github.com/blues/fsb/internal/model"
)

// GroupChecker 查询机器人在群内的实际身份，由 bot 侧实现
type GroupChecker interface {
	// IsBotAdmin 机器人当前是否为该群管理员
	IsBotAdmin(groupLink string) (bool, error)
}

// EligibilityLogic 领奖资格判定
type EligibilityLogic struct {
	checker GroupChecker
}

// NewEligibilityLogic 创建领奖资格判定
func NewEligibilityLogic(checker GroupChecker) *EligibilityLogic {
	return &EligibilityLogic{checker: checker}
}

// Check 判定会员在当前时刻是否有领奖资格，返回不合格原因。
// 保底账户不经过此判定，它们无条件合格。
func (e *EligibilityLogic) Check(m *model.Member) (bool, string) {
	if !m.IsVip {
		return false, "未升级会员"
	}
	if !m.IsGroupBound || m.GroupLink == "" {
		return false, "未绑定群"
	}
	if !e.isBotAdmin(m) {
		return false, "机器人非群管理员"
	}
	if !m.IsJoinedUpline {
		return false, "未加入全部上级群"
	}
	return true, ""
}

// isBotAdmin 实时查询机器人管理员身份，查询失败时退回库内标记
func (e *EligibilityLogic) isBotAdmin(m *model.Member) bool {
	if e.checker == nil {
		return m.IsGroupAdmin
	}
	ok, err := e.checker.IsBotAdmin(m.GroupLink)
	if err != nil {
		logger.Warn("查询会员 %d 群管理员身份失败，使用库内标记: %v", m.Id, err)
		return m.IsGroupAdmin
	}
	return ok
}
