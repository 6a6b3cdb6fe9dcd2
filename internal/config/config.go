package config

import (
	"github.com/blues/fsb/internal/logger"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Chain    ChainConfig    `mapstructure:"chain"`
	Order    OrderConfig    `mapstructure:"order"`
	Task     TaskConfig     `mapstructure:"task"`
	Notify   NotifyConfig   `mapstructure:"notify"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

// ChainConfig 链配置
type ChainConfig struct {
	RpcUrl         string `mapstructure:"rpc_url"`         // RPC节点URL
	TokenContract  string `mapstructure:"token_contract"`  // 代币合约地址
	TokenDecimals  int    `mapstructure:"token_decimals"`  // 代币精度
	ReceiveAddress string `mapstructure:"receive_address"` // 收款地址
	LookbackBlocks uint64 `mapstructure:"lookback_blocks"` // 轮询回看区块数
	Confirmations  int    `mapstructure:"confirmations"`   // 确认数
}

// OrderConfig 订单配置
type OrderConfig struct {
	Lifetime     int     `mapstructure:"lifetime"`      // 订单有效期，秒
	PollInterval int     `mapstructure:"poll_interval"` // 链上轮询间隔，秒
	Tolerance    float64 `mapstructure:"tolerance"`     // 到账金额容差(U)
}

type TaskConfig struct {
	Interval int `mapstructure:"interval"` // 秒
}

// NotifyConfig 通知配置
type NotifyConfig struct {
	BotToken    string `mapstructure:"bot_token"`     // 机器人token，为空时禁用通知
	AdminChatId int64  `mapstructure:"admin_chat_id"` // 运营告警会话
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // 日志级别: debug, info, warn, error, fatal
	Output string `mapstructure:"output"` // 输出目标: stdout, stderr, file
	File   string `mapstructure:"file"`   // 日志文件路径（当output为file时使用）
}

// GetLevel 实现 logger.LogConfig 接口
func (l LogConfig) GetLevel() string {
	return l.Level
}

// GetOutput 实现 logger.LogConfig 接口
func (l LogConfig) GetOutput() string {
	return l.Output
}

// GetFile 实现 logger.LogConfig 接口
func (l LogConfig) GetFile() string {
	return l.File
}

func Load() *Config {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/fsb")

	// 设置默认值
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.mode", "debug")
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "")
	viper.SetDefault("database.dbname", "fsb")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("chain.token_decimals", 6)
	viper.SetDefault("chain.lookback_blocks", 2000)
	viper.SetDefault("chain.confirmations", 12)
	viper.SetDefault("order.lifetime", 1200)
	viper.SetDefault("order.poll_interval", 9)
	viper.SetDefault("order.tolerance", 0.01)
	viper.SetDefault("task.interval", 60)
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.output", "stdout")
	viper.SetDefault("log.file", "logs/app.log")

	// 自动读取环境变量
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		logger.Warn("Warning: Could not read config file: %v", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		logger.Fatal("Unable to decode config into struct: %v", err)
	}

	return &config
}
