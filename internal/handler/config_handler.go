package handler

import (
	"net/http"

	"github.com/blues/fsb/internal/logic"
	"github.com/gin-gonic/gin"
)

// ConfigHandler 系统配置接口
type ConfigHandler struct {
	sysCfgLogic *logic.SysConfigLogic
}

// NewConfigHandler 创建系统配置接口
func NewConfigHandler(sysCfg *logic.SysConfigLogic) *ConfigHandler {
	return &ConfigHandler{sysCfgLogic: sysCfg}
}

// GetAll 获取全部配置
func (h *ConfigHandler) GetAll(c *gin.Context) {
	configs, err := h.sysCfgLogic.All()
	if err != nil {
		FailWith(c, err)
		return
	}

	// 附带生效中的层级经济参数，便于后台核对
	n := h.sysCfgLogic.LevelCount()
	SuccessResponse(c, http.StatusOK, "", gin.H{
		"configs": configs,
		"effective": gin.H{
			"level_count":   n,
			"level_amounts": h.sysCfgLogic.LevelAmounts(n),
			"vip_price":     h.sysCfgLogic.EffectiveVipPrice(),
		},
	})
}

// Set 写入配置项
func (h *ConfigHandler) Set(c *gin.Context) {
	var req struct {
		Key   string `json:"key" binding:"required"`
		Value string `json:"value"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.sysCfgLogic.Set(req.Key, req.Value); err != nil {
		FailWith(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "配置已更新", nil)
}
