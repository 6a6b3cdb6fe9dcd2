package handler

import (
	"errors"
	"net/http"

	"github.com/blues/fsb/internal/errs"
	"github.com/gin-gonic/gin"
)

// 通用响应结构
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// 分页信息结构
type Pagination struct {
	Page     int   `json:"page"`
	PageSize int   `json:"pageSize"`
	Total    int64 `json:"total"`
}

// SuccessResponse 成功响应
func SuccessResponse(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// ErrorResponse 错误响应
func ErrorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, Response{
		Success: false,
		Message: message,
		Data:    nil,
	})
}

// FailWith 按错误分类映射HTTP状态码
func FailWith(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, errs.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, errs.ErrInsufficientInput), errors.Is(err, errs.ErrConfigMalformed):
		status = http.StatusBadRequest
	case errors.Is(err, errs.ErrConflict), errors.Is(err, errs.ErrInvariantViolated):
		status = http.StatusConflict
	case errors.Is(err, errs.ErrTransientDependency):
		status = http.StatusServiceUnavailable
	}
	ErrorResponse(c, status, err.Error())
}
