package notify

// Notifier 外部通知器。尽力而为，不做重试排队。
type Notifier interface {
	// UpgradeCompleted 升级支付完成后通知会员
	UpgradeCompleted(memberId int64, orderNo string, amount float64)
	// TopUpCompleted 充值到账后通知会员
	TopUpCompleted(memberId int64, orderNo string, amount float64)
	// OperatorAlert 运营告警
	OperatorAlert(format string, args ...interface{})
}

// Noop 空实现，未配置机器人时使用
type Noop struct{}

func (Noop) UpgradeCompleted(memberId int64, orderNo string, amount float64) {}

func (Noop) TopUpCompleted(memberId int64, orderNo string, amount float64) {}

func (Noop) OperatorAlert(format string, args ...interface{}) {}
