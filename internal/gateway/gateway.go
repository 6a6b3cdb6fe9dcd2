package gateway

import (
	"time"
)

// Transfer 已确认的链上代币转账
type Transfer struct {
	Value     float64   // 金额(U)，已按代币精度换算
	Timestamp time.Time // 所在区块时间
	TxHash    string
}

// Gateway 支付网关适配器，订单编排器只依赖此接口
type Gateway interface {
	// CreateOrder 下单，返回支付链接与收款地址
	CreateOrder(amount float64, orderNo, note string) (payUrl string, address string, err error)
	// ProbeAddress 拉取收款地址上已确认的代币转账
	ProbeAddress(address string) ([]Transfer, error)
}
