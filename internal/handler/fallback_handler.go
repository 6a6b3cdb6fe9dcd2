package handler

import (
	"net/http"
	"strconv"

	"github.com/blues/fsb/internal/logic"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// FallbackHandler 保底账户接口
type FallbackHandler struct {
	fallbackLogic *logic.FallbackLogic
}

// NewFallbackHandler 创建保底账户接口
func NewFallbackHandler(db *gorm.DB) *FallbackHandler {
	return &FallbackHandler{
		fallbackLogic: logic.NewFallbackLogic(db),
	}
}

// List 获取保底账户列表
func (h *FallbackHandler) List(c *gin.Context) {
	accounts, err := h.fallbackLogic.List()
	if err != nil {
		FailWith(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "", gin.H{"accounts": accounts})
}

// Create 新增保底账户
func (h *FallbackHandler) Create(c *gin.Context) {
	var req struct {
		Username  string `json:"username" binding:"required"`
		GroupLink string `json:"group_link"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	account, err := h.fallbackLogic.Create(req.Username, req.GroupLink)
	if err != nil {
		FailWith(c, err)
		return
	}
	SuccessResponse(c, http.StatusCreated, "保底账户创建成功", gin.H{"account": account})
}

// Deactivate 停用保底账户
func (h *FallbackHandler) Deactivate(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的保底账户ID")
		return
	}

	if err := h.fallbackLogic.Deactivate(id); err != nil {
		FailWith(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "保底账户已停用", nil)
}
