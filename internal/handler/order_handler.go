package handler

import (
	"net/http"
	"strconv"

	"github.com/blues/fsb/internal/logic"
	"github.com/blues/fsb/internal/order"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// OrderHandler 支付订单接口
type OrderHandler struct {
	orch          *order.Orchestrator
	rechargeLogic *logic.RechargeLogic
}

// NewOrderHandler 创建支付订单接口
func NewOrderHandler(db *gorm.DB, orch *order.Orchestrator) *OrderHandler {
	return &OrderHandler{
		orch:          orch,
		rechargeLogic: logic.NewRechargeLogic(db),
	}
}

// CreateUpgradeOrder 发起会员升级订单（bot侧接入）
func (h *OrderHandler) CreateUpgradeOrder(c *gin.Context) {
	memberId, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的会员ID")
		return
	}

	ord, payUrl, err := h.orch.CreateUpgradeOrder(memberId)
	if err != nil {
		FailWith(c, err)
		return
	}
	SuccessResponse(c, http.StatusCreated, "订单创建成功", gin.H{
		"order":   ord,
		"pay_url": payUrl,
	})
}

// CreateTopUpOrder 发起余额充值订单（bot侧接入）
func (h *OrderHandler) CreateTopUpOrder(c *gin.Context) {
	memberId, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的会员ID")
		return
	}

	var req struct {
		Amount float64 `json:"amount" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	ord, payUrl, err := h.orch.CreateTopUpOrder(memberId, req.Amount)
	if err != nil {
		FailWith(c, err)
		return
	}
	SuccessResponse(c, http.StatusCreated, "订单创建成功", gin.H{
		"order":   ord,
		"pay_url": payUrl,
	})
}

// ListOrders 获取订单列表
func (h *OrderHandler) ListOrders(c *gin.Context) {
	status := c.Query("status")
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	orders, total, err := h.orch.List(status, page, pageSize)
	if err != nil {
		FailWith(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "", gin.H{
		"orders":     orders,
		"pagination": Pagination{Page: page, PageSize: pageSize, Total: total},
	})
}

// MarkPaid 运营补单
func (h *OrderHandler) MarkPaid(c *gin.Context) {
	orderNo := c.Param("order_no")
	if err := h.orch.MarkPaid(orderNo); err != nil {
		FailWith(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "订单已补单", nil)
}

// CancelOrder 运营取消订单
func (h *OrderHandler) CancelOrder(c *gin.Context) {
	orderNo := c.Param("order_no")
	if err := h.orch.Cancel(orderNo); err != nil {
		FailWith(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "订单已取消", nil)
}

// ListRecharges 获取充值记录列表
func (h *OrderHandler) ListRecharges(c *gin.Context) {
	status := c.Query("status")
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	records, total, err := h.rechargeLogic.List(status, page, pageSize)
	if err != nil {
		FailWith(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "", gin.H{
		"records":    records,
		"pagination": Pagination{Page: page, PageSize: pageSize, Total: total},
	})
}

// GetRechargeStats 获取充值统计
func (h *OrderHandler) GetRechargeStats(c *gin.Context) {
	stats, err := h.rechargeLogic.Stats()
	if err != nil {
		FailWith(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "", gin.H{"stats": stats})
}
