package order

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/blues/fsb/internal/config"
	"github.com/blues/fsb/internal/errs"
	"github.com/blues/fsb/internal/gateway"
	"github.com/blues/fsb/internal/logger"
	"github.com/blues/fsb/internal/logic"
	"github.com/blues/fsb/internal/model"
	"github.com/blues/fsb/internal/notify"
	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"gorm.io/gorm"
)

// probePoolSize 地址探测协程池大小
const probePoolSize = 8

// errTransferUsed 转账已结算过其他订单。与订单终态冲突不同：
// 此时订单本身仍是待支付，不能出队，要留在索引里等自己的转账。
var errTransferUsed = errors.New("transfer already used")

// Orchestrator 支付订单编排器。维护进程内待支付订单索引：启动时从库里
// 重建，进入终态即回收，停机时排空。订单状态迁移全部以库内状态为准裁决，
// 轮询与运营操作竞争时先写库者赢。
type Orchestrator struct {
	db       *gorm.DB
	gw       gateway.Gateway
	cfg      *config.Config
	sysCfg   *logic.SysConfigLogic
	reward   *logic.RewardLogic
	member   *logic.MemberLogic
	notifier notify.Notifier

	mu      sync.Mutex
	pending map[string]*model.PaymentOrder
	pool    *ants.Pool
}

// NewOrchestrator 创建订单编排器
func NewOrchestrator(db *gorm.DB, gw gateway.Gateway, cfg *config.Config,
	sysCfg *logic.SysConfigLogic, reward *logic.RewardLogic, notifier notify.Notifier) (*Orchestrator, error) {

	pool, err := ants.NewPool(probePoolSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create probe pool: %w", err)
	}

	return &Orchestrator{
		db:       db,
		gw:       gw,
		cfg:      cfg,
		sysCfg:   sysCfg,
		reward:   reward,
		member:   logic.NewMemberLogic(db),
		notifier: notifier,
		pending:  make(map[string]*model.PaymentOrder),
		pool:     pool,
	}, nil
}

// Load 启动时从库里重建待支付订单索引
func (o *Orchestrator) Load() error {
	var orders []model.PaymentOrder
	if err := o.db.Where("status = ?", model.OrderStatusPending).Find(&orders).Error; err != nil {
		return fmt.Errorf("加载待支付订单失败: %w", err)
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	for i := range orders {
		ord := orders[i]
		o.pending[ord.OrderNo] = &ord
	}
	logger.Info("已加载 %d 笔待支付订单", len(orders))
	return nil
}

// Shutdown 停机排空
func (o *Orchestrator) Shutdown() {
	o.pool.Release()
	o.mu.Lock()
	o.pending = make(map[string]*model.PaymentOrder)
	o.mu.Unlock()
}

// CreateUpgradeOrder 创建会员升级订单
func (o *Orchestrator) CreateUpgradeOrder(memberId int64) (*model.PaymentOrder, string, error) {
	member, err := o.member.Get(memberId)
	if err != nil {
		return nil, "", err
	}
	if member.IsVip {
		return nil, "", fmt.Errorf("%w: 会员 %d 已是付费会员", errs.ErrConflict, memberId)
	}

	amount := o.sysCfg.EffectiveVipPrice()
	return o.create(memberId, model.OrderKindUpgrade, amount)
}

// CreateTopUpOrder 创建余额充值订单
func (o *Orchestrator) CreateTopUpOrder(memberId int64, amount float64) (*model.PaymentOrder, string, error) {
	if amount <= 0 {
		return nil, "", fmt.Errorf("%w: 充值金额必须大于0", errs.ErrInsufficientInput)
	}
	if _, err := o.member.Get(memberId); err != nil {
		return nil, "", err
	}
	return o.create(memberId, model.OrderKindTopUp, amount)
}

// create 下单：网关取收款地址，订单与待完成充值记录同事务落库
func (o *Orchestrator) create(memberId int64, kind model.OrderKind, amount float64) (*model.PaymentOrder, string, error) {
	orderNo := generateOrderNo()

	payUrl, address, err := o.gw.CreateOrder(amount, orderNo, string(kind))
	if err != nil {
		return nil, "", fmt.Errorf("%w: 网关下单失败: %v", errs.ErrTransientDependency, err)
	}
	if address == "" {
		// 遗留配置：网关未给出地址时退回系统默认收款地址
		address = o.sysCfg.UsdtAddress()
	}
	if address == "" {
		return nil, "", fmt.Errorf("%w: 未配置收款地址", errs.ErrConfigMalformed)
	}

	now := time.Now()
	ord := model.PaymentOrder{
		OrderNo:   orderNo,
		MemberId:  memberId,
		Amount:    amount,
		Address:   address,
		Kind:      kind,
		Status:    model.OrderStatusPending,
		ExpiredAt: now.Add(time.Duration(o.cfg.Order.Lifetime) * time.Second),
	}

	err = o.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&ord).Error; err != nil {
			return fmt.Errorf("创建订单失败: %w", err)
		}
		rec := model.RechargeRecord{
			MemberId:  memberId,
			Amount:    amount,
			OrderNo:   orderNo,
			Status:    model.RechargeStatusPending,
			PayMethod: "usdt_erc20",
			Kind:      kind,
		}
		if err := tx.Create(&rec).Error; err != nil {
			return fmt.Errorf("创建充值记录失败: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, "", err
	}

	o.mu.Lock()
	o.pending[orderNo] = &ord
	o.mu.Unlock()

	logger.Info("订单 %s 已创建: 会员 %d, 类型 %s, 金额 %v", orderNo, memberId, kind, amount)
	return &ord, payUrl, nil
}

// PollOnce 轮询一轮：每个收款地址经协程池探测一次，再按时间窗口与
// 金额容差给订单配对
func (o *Orchestrator) PollOnce() {
	orders := o.snapshot()
	if len(orders) == 0 {
		return
	}

	addresses := make(map[string]bool)
	for _, ord := range orders {
		addresses[ord.Address] = true
	}

	var (
		wg        sync.WaitGroup
		resultMu  sync.Mutex
		transfers = make(map[string][]gateway.Transfer)
	)
	for addr := range addresses {
		addr := addr
		wg.Add(1)
		err := o.pool.Submit(func() {
			defer wg.Done()
			list, err := o.gw.ProbeAddress(addr)
			if err != nil {
				// 链上临时故障只记日志，等下一轮
				logger.Warn("探测地址 %s 失败: %v", addr, err)
				return
			}
			resultMu.Lock()
			transfers[addr] = list
			resultMu.Unlock()
		})
		if err != nil {
			wg.Done()
			logger.Error("提交探测任务失败: %v", err)
		}
	}
	wg.Wait()

	for _, ord := range orders {
		if tr, ok := o.matchTransfer(ord, transfers[ord.Address]); ok {
			o.settle(ord, tr.TxHash)
		}
	}
}

// matchTransfer 到账配对：区块时间落在订单有效期内且金额差小于容差。
// 共用收款地址下同金额订单会看到同一批转账，已结算过的转账跳过，
// 让每笔订单等到属于自己的那笔。
func (o *Orchestrator) matchTransfer(ord *model.PaymentOrder, list []gateway.Transfer) (gateway.Transfer, bool) {
	for _, tr := range list {
		if tr.Timestamp.Before(ord.CreatedAt) || tr.Timestamp.After(ord.ExpiredAt) {
			continue
		}
		if math.Abs(tr.Value-ord.Amount) >= o.cfg.Order.Tolerance {
			continue
		}
		if o.txHashUsed(tr.TxHash) {
			continue
		}
		return tr, true
	}
	return gateway.Transfer{}, false
}

// txHashUsed 转账是否已结算过某笔已完成订单
func (o *Orchestrator) txHashUsed(txHash string) bool {
	if txHash == "" {
		return false
	}
	var used int64
	err := o.db.Model(&model.PaymentOrder{}).
		Where("tx_hash = ? AND status = ?", txHash, model.OrderStatusCompleted).
		Count(&used).Error
	if err != nil {
		logger.Error("检查转账占用失败: %v", err)
		return false
	}
	return used > 0
}

// settle 结算订单。完成迁移、充值记录落账、升级分润（或充值入账）在
// 同一事务内；条件更新保证先到终态者赢，重复结算为空操作。
func (o *Orchestrator) settle(ord *model.PaymentOrder, txHash string) {
	err := o.db.Transaction(func(tx *gorm.DB) error {
		if txHash != "" {
			// 一笔转账只能结算一笔订单
			var used int64
			err := tx.Model(&model.PaymentOrder{}).
				Where("tx_hash = ? AND status = ?", txHash, model.OrderStatusCompleted).
				Count(&used).Error
			if err != nil {
				return fmt.Errorf("检查转账占用失败: %w", err)
			}
			if used > 0 {
				return fmt.Errorf("%w: 转账 %s 已结算过其他订单", errTransferUsed, txHash)
			}
		}

		if err := completeTx(tx, ord.OrderNo, txHash); err != nil {
			return err
		}

		switch ord.Kind {
		case model.OrderKindUpgrade:
			return o.reward.SettleUpgradeTx(tx, ord.OrderNo)
		case model.OrderKindTopUp:
			return o.member.TopUpTx(tx, ord.MemberId, ord.Amount)
		default:
			return fmt.Errorf("%w: 未知订单类型 %s", errs.ErrInvariantViolated, ord.Kind)
		}
	})

	if err == nil {
		o.forget(ord.OrderNo)
		logger.Info("订单 %s 已完成", ord.OrderNo)
		o.notifyCompleted(ord)
		return
	}

	if errors.Is(err, errTransferUsed) {
		// 同地址同金额的并发撞单：订单未进终态，留在索引里等下一笔到账
		logger.Warn("订单 %s 撞单让步: %v", ord.OrderNo, err)
		return
	}

	if errors.Is(err, errs.ErrConflict) {
		// 已被运营操作或并发轮询抢先进入终态
		o.forget(ord.OrderNo)
		logger.Info("订单 %s 结算让步: %v", ord.OrderNo, err)
		return
	}

	// 升级订单分润失败：支付保持完成，落重试标记交对账任务补发
	if ord.Kind == model.OrderKindUpgrade {
		logger.Error("订单 %s 分润失败: %v，转入待补发", ord.OrderNo, err)
		o.completeWithoutDistribution(ord, txHash)
		return
	}
	logger.Error("订单 %s 结算失败: %v", ord.OrderNo, err)
}

// completeWithoutDistribution 只完成支付部分，分润留给重试任务
func (o *Orchestrator) completeWithoutDistribution(ord *model.PaymentOrder, txHash string) {
	err := o.db.Transaction(func(tx *gorm.DB) error {
		return completeTx(tx, ord.OrderNo, txHash)
	})
	if err != nil {
		if errors.Is(err, errs.ErrConflict) {
			o.forget(ord.OrderNo)
			return
		}
		logger.Error("订单 %s 支付落账失败: %v", ord.OrderNo, err)
		return
	}
	if err := o.reward.MarkPendingDistribution(ord.OrderNo); err != nil {
		logger.Error("订单 %s 落分润重试标记失败: %v", ord.OrderNo, err)
	}
	o.forget(ord.OrderNo)
	o.notifier.OperatorAlert("订单 %s 支付已完成但分润失败，已转入待补发", ord.OrderNo)
}

// completeTx 订单与充值记录的 pending→completed 条件迁移
func completeTx(tx *gorm.DB, orderNo, txHash string) error {
	now := time.Now()
	res := tx.Model(&model.PaymentOrder{}).
		Where("order_no = ? AND status = ?", orderNo, model.OrderStatusPending).
		Updates(map[string]interface{}{
			"status":       model.OrderStatusCompleted,
			"completed_at": &now,
			"tx_hash":      txHash,
		})
	if res.Error != nil {
		return fmt.Errorf("更新订单状态失败: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: 订单 %s 已进入终态", errs.ErrConflict, orderNo)
	}

	err := tx.Model(&model.RechargeRecord{}).
		Where("order_no = ? AND status = ?", orderNo, model.RechargeStatusPending).
		Update("status", model.RechargeStatusCompleted).Error
	if err != nil {
		return fmt.Errorf("更新充值记录失败: %w", err)
	}
	return nil
}

// ExpireOnce 超时一轮。超时前先回读库内状态：已被完成的订单静默出队，
// 不发任何超时动作（运营补单与超时的竞争以库为准）。
func (o *Orchestrator) ExpireOnce() {
	now := time.Now()
	for _, ord := range o.snapshot() {
		if now.Before(ord.ExpiredAt) {
			continue
		}

		var current model.PaymentOrder
		if err := o.db.Where("order_no = ?", ord.OrderNo).First(&current).Error; err != nil {
			logger.Error("回读订单 %s 失败: %v", ord.OrderNo, err)
			continue
		}
		if current.IsTerminal() {
			o.forget(ord.OrderNo)
			continue
		}

		err := o.db.Transaction(func(tx *gorm.DB) error {
			res := tx.Model(&model.PaymentOrder{}).
				Where("order_no = ? AND status = ?", ord.OrderNo, model.OrderStatusPending).
				Update("status", model.OrderStatusExpired)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return fmt.Errorf("%w: 订单 %s 已进入终态", errs.ErrConflict, ord.OrderNo)
			}
			return tx.Model(&model.RechargeRecord{}).
				Where("order_no = ? AND status = ?", ord.OrderNo, model.RechargeStatusPending).
				Update("status", model.RechargeStatusExpired).Error
		})
		if err != nil && !errors.Is(err, errs.ErrConflict) {
			logger.Error("订单 %s 过期处理失败: %v", ord.OrderNo, err)
			continue
		}
		o.forget(ord.OrderNo)
		if err == nil {
			logger.Info("订单 %s 已过期", ord.OrderNo)
		}
	}
}

// MarkPaid 运营补单：与轮询共用同一条完成路径，天然幂等。
// 不依赖内存索引，重启后也可补历史订单。
func (o *Orchestrator) MarkPaid(orderNo string) error {
	var ord model.PaymentOrder
	if err := o.db.Where("order_no = ?", orderNo).First(&ord).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: 订单 %s 不存在", errs.ErrNotFound, orderNo)
		}
		return fmt.Errorf("获取订单失败: %w", err)
	}
	if ord.IsTerminal() {
		return fmt.Errorf("%w: 订单 %s 已进入终态", errs.ErrConflict, orderNo)
	}

	o.settle(&ord, "")

	var after model.PaymentOrder
	if err := o.db.Where("order_no = ?", orderNo).First(&after).Error; err != nil {
		return fmt.Errorf("回读订单失败: %w", err)
	}
	if after.Status != model.OrderStatusCompleted {
		return fmt.Errorf("%w: 订单 %s 补单未生效", errs.ErrConflict, orderNo)
	}
	return nil
}

// Cancel 运营取消待支付订单
func (o *Orchestrator) Cancel(orderNo string) error {
	err := o.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.PaymentOrder{}).
			Where("order_no = ? AND status = ?", orderNo, model.OrderStatusPending).
			Update("status", model.OrderStatusCancelled)
		if res.Error != nil {
			return fmt.Errorf("取消订单失败: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: 订单 %s 不存在或已进入终态", errs.ErrConflict, orderNo)
		}
		return tx.Model(&model.RechargeRecord{}).
			Where("order_no = ? AND status = ?", orderNo, model.RechargeStatusPending).
			Update("status", model.RechargeStatusCancelled).Error
	})
	if err != nil {
		return err
	}
	o.forget(orderNo)
	logger.Info("订单 %s 已取消", orderNo)
	return nil
}

// List 分页查询订单，可按状态过滤
func (o *Orchestrator) List(status string, page, pageSize int) ([]model.PaymentOrder, int64, error) {
	var orders []model.PaymentOrder
	var total int64

	query := o.db.Model(&model.PaymentOrder{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("获取订单总数失败: %w", err)
	}

	offset := (page - 1) * pageSize
	if err := query.Offset(offset).
		Limit(pageSize).
		Order("created_at DESC").
		Find(&orders).Error; err != nil {
		return nil, 0, fmt.Errorf("获取订单列表失败: %w", err)
	}

	return orders, total, nil
}

// notifyCompleted 完成通知，尽力而为
func (o *Orchestrator) notifyCompleted(ord *model.PaymentOrder) {
	switch ord.Kind {
	case model.OrderKindUpgrade:
		o.notifier.UpgradeCompleted(ord.MemberId, ord.OrderNo, ord.Amount)
	case model.OrderKindTopUp:
		o.notifier.TopUpCompleted(ord.MemberId, ord.OrderNo, ord.Amount)
	}
}

// snapshot 待支付订单快照
func (o *Orchestrator) snapshot() []*model.PaymentOrder {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]*model.PaymentOrder, 0, len(o.pending))
	for _, ord := range o.pending {
		out = append(out, ord)
	}
	return out
}

// forget 终态订单出队
func (o *Orchestrator) forget(orderNo string) {
	o.mu.Lock()
	delete(o.pending, orderNo)
	o.mu.Unlock()
}

// generateOrderNo 生成订单号：时间前缀 + 随机后缀
func generateOrderNo() string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	return fmt.Sprintf("%s%s", time.Now().Format("20060102150405"), suffix)
}
