package gateway

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/blues/fsb/internal/config"
	"github.com/blues/fsb/internal/errs"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
)

// ERC20 Transfer 事件ABI（简化版）
const erc20ABI = `[
	{
		"anonymous": false,
		"inputs": [
			{"indexed": true, "name": "from", "type": "address"},
			{"indexed": true, "name": "to", "type": "address"},
			{"indexed": false, "name": "value", "type": "uint256"}
		],
		"name": "Transfer",
		"type": "event"
	}
]`

// EthClient 基于以太坊代币转账日志的支付网关
type EthClient struct {
	client         *ethclient.Client
	tokenContract  common.Address
	tokenDecimals  int
	receiveAddress common.Address
	lookbackBlocks uint64
	confirmations  int
	tokenABI       abi.ABI
}

func Init(cfg config.ChainConfig) (*EthClient, error) {
	// 连接以太坊客户端
	client, err := ethclient.Dial(cfg.RpcUrl)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ethereum client: %w", err)
	}

	// 解析ABI
	parsedABI, err := abi.JSON(strings.NewReader(erc20ABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse token ABI: %w", err)
	}

	if cfg.ReceiveAddress == "" {
		return nil, fmt.Errorf("receive address not configured")
	}

	return &EthClient{
		client:         client,
		tokenContract:  common.HexToAddress(cfg.TokenContract),
		tokenDecimals:  cfg.TokenDecimals,
		receiveAddress: common.HexToAddress(cfg.ReceiveAddress),
		lookbackBlocks: cfg.LookbackBlocks,
		confirmations:  cfg.Confirmations,
		tokenABI:       parsedABI,
	}, nil
}

// CreateOrder 下单。单收款地址模式：所有订单共用配置的收款地址，
// 按金额容差与时间窗口匹配到账。
func (c *EthClient) CreateOrder(amount float64, orderNo, note string) (string, string, error) {
	address := c.receiveAddress.Hex()
	payUrl := fmt.Sprintf("ethereum:%s@%s?amount=%.6f", c.tokenContract.Hex(), address, amount)
	return payUrl, address, nil
}

// ProbeAddress 拉取地址上已确认的代币转入
func (c *EthClient) ProbeAddress(address string) ([]Transfer, error) {
	ctx := context.Background()

	header, err := c.client.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: 获取最新区块失败: %v", errs.ErrTransientDependency, err)
	}
	latest := header.Number.Uint64()

	// 只看已确认区块
	confirmed := latest
	if uint64(c.confirmations) < latest {
		confirmed = latest - uint64(c.confirmations)
	}

	from := uint64(0)
	if confirmed > c.lookbackBlocks {
		from = confirmed - c.lookbackBlocks
	}

	transferSig := c.tokenABI.Events["Transfer"].ID
	toTopic := common.BytesToHash(common.HexToAddress(address).Bytes())

	query := ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(from),
		ToBlock:   new(big.Int).SetUint64(confirmed),
		Addresses: []common.Address{c.tokenContract},
		Topics:    [][]common.Hash{{transferSig}, nil, {toTopic}},
	}

	logs, err := c.client.FilterLogs(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: 查询转账日志失败: %v", errs.ErrTransientDependency, err)
	}

	// 区块时间按区块号缓存，一个区块只查一次
	headerCache := make(map[uint64]*types.Header)
	transfers := make([]Transfer, 0, len(logs))
	for _, lg := range logs {
		h, ok := headerCache[lg.BlockNumber]
		if !ok {
			h, err = c.client.HeaderByNumber(ctx, new(big.Int).SetUint64(lg.BlockNumber))
			if err != nil {
				return nil, fmt.Errorf("%w: 获取区块 %d 失败: %v", errs.ErrTransientDependency, lg.BlockNumber, err)
			}
			headerCache[lg.BlockNumber] = h
		}

		transfers = append(transfers, Transfer{
			Value:     c.rawToUnit(new(big.Int).SetBytes(lg.Data)),
			Timestamp: timeFromHeader(h),
			TxHash:    lg.TxHash.Hex(),
		})
	}
	return transfers, nil
}

// rawToUnit 代币原始数额换算为U，精度取合约声明的 decimals
func (c *EthClient) rawToUnit(raw *big.Int) float64 {
	scale := new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(c.tokenDecimals)), nil))
	value, _ := new(big.Float).Quo(new(big.Float).SetInt(raw), scale).Float64()
	return value
}

func timeFromHeader(h *types.Header) time.Time {
	return time.Unix(int64(h.Time), 0)
}
