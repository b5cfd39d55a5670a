package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/set-night/bountyhub/internal/config"
	"github.com/set-night/bountyhub/internal/domain"
	"github.com/set-night/bountyhub/internal/events"
)

const (
	MaxMessageLen = 4096
	sendTimeout   = 10 * time.Second
)

// Sender is the part of *bot.Bot the ops log needs.
type Sender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

type LogType string

const (
	LogTypeError        LogType = "error"
	LogTypeRegistration LogType = "registration"
	LogTypeTaskReward   LogType = "taskReward"
	LogTypeCommission   LogType = "commission"
	LogTypeWithdrawal   LogType = "withdrawal"
	LogTypeGift         LogType = "gift"
	LogTypeVIP          LogType = "vip"
)

// OpsLogger mirrors committed ledger activity into a forum chat, one topic
// per kind of event.
type OpsLogger struct {
	sender Sender
	cfg    *config.Config
}

func NewOpsLogger(s Sender, cfg *config.Config) *OpsLogger {
	return &OpsLogger{sender: s, cfg: cfg}
}

func (l *OpsLogger) Enabled() bool {
	return l.sender != nil && l.cfg.LogTelegramChatID != 0
}

// Run forwards bus events until ctx is done.
func (l *OpsLogger) Run(ctx context.Context, bus *events.Bus) error {
	ch, cancel := bus.Subscribe(nil)
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-ch:
			if !ok {
				return nil
			}
			l.LogEntry(ctx, ev)
		}
	}
}

func (l *OpsLogger) Log(ctx context.Context, logType LogType, message string) {
	if !l.Enabled() {
		return
	}

	topicID := l.topicID(logType)
	if topicID == 0 {
		return
	}

	if len([]rune(message)) > MaxMessageLen {
		message = string([]rune(message)[:MaxMessageLen-20]) + "\n\n... (truncated)"
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sendTimeout)
	defer cancel()

	_, err := l.sender.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:          l.cfg.LogTelegramChatID,
		Text:            message,
		ParseMode:       models.ParseModeMarkdownV1,
		MessageThreadID: topicID,
	})
	if err != nil {
		slog.Error("failed to send telegram log", "type", logType, "error", err)
	}
}

func (l *OpsLogger) LogError(ctx context.Context, err error, where string) {
	msg := fmt.Sprintf("❌ *Error*\n\n*Context:* %s\n*Error:* `%s`\n*Time:* %s",
		where, code(err.Error()), time.Now().Format("2006-01-02 15:04:05"))
	l.Log(ctx, LogTypeError, msg)
}

// LogEntry formats one ledger event for the topic of its entry type.
func (l *OpsLogger) LogEntry(ctx context.Context, ev domain.LedgerEvent) {
	e := ev.Entry
	var logType LogType
	var title string
	switch e.Type {
	case domain.TxTypeSystemBonus:
		logType, title = LogTypeRegistration, "👤 *New Registration*"
	case domain.TxTypeTaskReward:
		logType, title = LogTypeTaskReward, "✅ *Task Reward*"
	case domain.TxTypeReferralBonus:
		logType, title = LogTypeCommission, "🤝 *Commission*"
	case domain.TxTypeWithdraw:
		logType, title = LogTypeWithdrawal, "💸 *Withdrawal Request*"
	case domain.TxTypeAdminGift:
		logType, title = LogTypeGift, "🎁 *Admin Gift*"
	case domain.TxTypeVIPBonus:
		logType, title = LogTypeVIP, "⭐ *VIP Upgrade*"
	default:
		return
	}

	msg := fmt.Sprintf("%s\n\n*Account:* `%d`\n*Amount:* %s\n*Status:* %s\n*Details:* `%s`\n*Balance:* %s\n*VIP:* %d",
		title, e.AccountID, e.Amount.StringFixed(2), e.Status, code(e.Description),
		ev.Balance.StringFixed(2), ev.VIPLevel)
	l.Log(ctx, logType, msg)
}

func (l *OpsLogger) topicID(logType LogType) int {
	switch logType {
	case LogTypeError:
		return l.cfg.LogTopicError
	case LogTypeRegistration:
		return l.cfg.LogTopicRegistration
	case LogTypeTaskReward:
		return l.cfg.LogTopicTaskReward
	case LogTypeCommission:
		return l.cfg.LogTopicCommission
	case LogTypeWithdrawal:
		return l.cfg.LogTopicWithdrawal
	case LogTypeGift:
		return l.cfg.LogTopicGift
	case LogTypeVIP:
		return l.cfg.LogTopicVIP
	default:
		return 0
	}
}

// code makes s safe inside a Markdown code span.
func code(s string) string {
	return strings.ReplaceAll(s, "`", "'")
}
