package handler

import (
	"net/http"
	"strconv"

	"github.com/blues/fsb/internal/logic"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// WithdrawHandler 提现接口
type WithdrawHandler struct {
	withdrawLogic *logic.WithdrawLogic
}

// NewWithdrawHandler 创建提现接口
func NewWithdrawHandler(db *gorm.DB, sysCfg *logic.SysConfigLogic) *WithdrawHandler {
	return &WithdrawHandler{
		withdrawLogic: logic.NewWithdrawLogic(db, sysCfg),
	}
}

// Apply 会员发起提现（bot侧接入）
func (h *WithdrawHandler) Apply(c *gin.Context) {
	var req struct {
		MemberId int64   `json:"member_id" binding:"required"`
		Amount   float64 `json:"amount" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	record, err := h.withdrawLogic.Apply(req.MemberId, req.Amount)
	if err != nil {
		FailWith(c, err)
		return
	}
	SuccessResponse(c, http.StatusCreated, "提现申请已提交", gin.H{"record": record})
}

// List 获取提现记录列表
func (h *WithdrawHandler) List(c *gin.Context) {
	status := c.Query("status")
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	records, total, err := h.withdrawLogic.List(status, page, pageSize)
	if err != nil {
		FailWith(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "", gin.H{
		"records":    records,
		"pagination": Pagination{Page: page, PageSize: pageSize, Total: total},
	})
}

// Approve 审核通过
func (h *WithdrawHandler) Approve(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的提现记录ID")
		return
	}

	if err := h.withdrawLogic.Approve(id); err != nil {
		FailWith(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "提现已通过", nil)
}

// Reject 审核拒绝
func (h *WithdrawHandler) Reject(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的提现记录ID")
		return
	}

	var req struct {
		Remark string `json:"remark"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.withdrawLogic.Reject(id, req.Remark); err != nil {
		FailWith(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "提现已拒绝", nil)
}
