package notify

import (
	"fmt"

	"github.com/blues/fsb/internal/config"
	"github.com/blues/fsb/internal/logger"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Telegram 基于机器人的通知实现。会员ID即其私聊会话ID。
type Telegram struct {
	bot         *tgbotapi.BotAPI
	adminChatId int64
}

// NewTelegram 创建通知器。token 为空时返回 nil，调用方退回 Noop。
func NewTelegram(cfg config.NotifyConfig) (*Telegram, error) {
	if cfg.BotToken == "" {
		return nil, nil
	}
	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot api: %w", err)
	}
	return &Telegram{bot: bot, adminChatId: cfg.AdminChatId}, nil
}

// UpgradeCompleted 通知会员升级完成
func (t *Telegram) UpgradeCompleted(memberId int64, orderNo string, amount float64) {
	text := fmt.Sprintf("您的会员升级已完成\n订单号: %s\n金额: %.2f U", orderNo, amount)
	t.send(memberId, text)
}

// TopUpCompleted 通知会员充值到账
func (t *Telegram) TopUpCompleted(memberId int64, orderNo string, amount float64) {
	text := fmt.Sprintf("充值已到账\n订单号: %s\n金额: %.2f U", orderNo, amount)
	t.send(memberId, text)
}

// OperatorAlert 发运营告警会话
func (t *Telegram) OperatorAlert(format string, args ...interface{}) {
	if t.adminChatId == 0 {
		return
	}
	t.send(t.adminChatId, fmt.Sprintf(format, args...))
}

// IsBotAdmin 机器人是否为该群管理员，供领奖资格判定使用。
// 群以 @username 形式的链接标识。
func (t *Telegram) IsBotAdmin(groupLink string) (bool, error) {
	chatMember, err := t.bot.GetChatMember(tgbotapi.GetChatMemberConfig{
		ChatConfigWithUser: tgbotapi.ChatConfigWithUser{
			SuperGroupUsername: groupLink,
			UserID:             t.bot.Self.ID,
		},
	})
	if err != nil {
		return false, fmt.Errorf("failed to get chat member: %w", err)
	}
	return chatMember.IsAdministrator() || chatMember.IsCreator(), nil
}

func (t *Telegram) send(chatId int64, text string) {
	msg := tgbotapi.NewMessage(chatId, text)
	if _, err := t.bot.Send(msg); err != nil {
		logger.Error("发送通知到 %d 失败: %v", chatId, err)
	}
}
