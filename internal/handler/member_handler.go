package handler

import (
	"net/http"
	"strconv"

	"github.com/blues/fsb/internal/logic"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// MemberHandler 会员管理接口
type MemberHandler struct {
	memberLogic   *logic.MemberLogic
	treeLogic     *logic.TreeLogic
	earningsLogic *logic.EarningsLogic
	rewardLogic   *logic.RewardLogic
	sysCfgLogic   *logic.SysConfigLogic
}

// NewMemberHandler 创建会员管理接口
func NewMemberHandler(db *gorm.DB, reward *logic.RewardLogic, sysCfg *logic.SysConfigLogic) *MemberHandler {
	return &MemberHandler{
		memberLogic:   logic.NewMemberLogic(db),
		treeLogic:     logic.NewTreeLogic(db),
		earningsLogic: logic.NewEarningsLogic(db),
		rewardLogic:   reward,
		sysCfgLogic:   sysCfg,
	}
}

// ListMembers 获取会员列表
func (h *MemberHandler) ListMembers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	onlyVip := c.Query("vip") == "1"

	members, total, err := h.memberLogic.List(page, pageSize, onlyVip)
	if err != nil {
		FailWith(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "", gin.H{
		"members":    members,
		"pagination": Pagination{Page: page, PageSize: pageSize, Total: total},
	})
}

// GetMember 获取会员详情
func (h *MemberHandler) GetMember(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的会员ID")
		return
	}

	member, err := h.memberLogic.Get(id)
	if err != nil {
		FailWith(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "", gin.H{"member": member})
}

// CreateMember 创建会员（bot侧接入）
func (h *MemberHandler) CreateMember(c *gin.Context) {
	var req struct {
		Id         int64  `json:"id" binding:"required"`
		Username   string `json:"username"`
		ReferrerId *int64 `json:"referrer_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	created, err := h.memberLogic.Create(req.Id, req.Username, req.ReferrerId)
	if err != nil {
		FailWith(c, err)
		return
	}
	if !created {
		SuccessResponse(c, http.StatusOK, "会员已存在", nil)
		return
	}
	SuccessResponse(c, http.StatusCreated, "会员创建成功", nil)
}

// UpdateMember 更新会员，仅白名单字段。余额调整不走此接口，
// 走 POST /members/:id/correct 落补偿分录
func (h *MemberHandler) UpdateMember(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的会员ID")
		return
	}

	var patch map[string]interface{}
	if err := c.ShouldBindJSON(&patch); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.memberLogic.Update(id, patch); err != nil {
		FailWith(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "会员更新成功", nil)
}

// GetTeamStats 获取会员团队统计
func (h *MemberHandler) GetTeamStats(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的会员ID")
		return
	}

	stats, err := h.treeLogic.TeamStats(id, h.sysCfgLogic.LevelCount())
	if err != nil {
		FailWith(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "", gin.H{"stats": stats})
}

// GetEarnings 获取会员收益记录
func (h *MemberHandler) GetEarnings(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的会员ID")
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	records, total, err := h.earningsLogic.ListByMember(id, page, pageSize)
	if err != nil {
		FailWith(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "", gin.H{
		"records":    records,
		"pagination": Pagination{Page: page, PageSize: pageSize, Total: total},
	})
}

// GrantVip 管理员手工开通会员，走统一分润路径
func (h *MemberHandler) GrantVip(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的会员ID")
		return
	}

	orderNo, err := h.rewardLogic.GrantVip(id)
	if err != nil {
		FailWith(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "会员已开通", gin.H{"order_no": orderNo})
}

// Correct 管理员余额更正，落补偿分录
func (h *MemberHandler) Correct(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的会员ID")
		return
	}

	var req struct {
		Amount      float64 `json:"amount" binding:"required"`
		Description string  `json:"description"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.earningsLogic.Correct(id, req.Amount, req.Description); err != nil {
		FailWith(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "更正已入账", nil)
}
