package errs

import "errors"

// 核心错误分类，外层（bot、管理后台）根据分类渲染用户可见信息
var (
	ErrNotFound            = errors.New("not found")            // 资源不存在
	ErrInsufficientInput   = errors.New("insufficient input")   // 入参非法
	ErrInvariantViolated   = errors.New("invariant violated")   // 业务不变量被破坏
	ErrTransientDependency = errors.New("transient dependency") // 链上/网关临时故障，可重试
	ErrConfigMalformed     = errors.New("config malformed")     // 配置格式错误
	ErrConflict            = errors.New("conflict")             // 并发冲突或状态竞争
)
