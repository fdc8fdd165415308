package reporter

import (
	"fmt"
	"html"
	"strings"
	"time"

	"go-glassdoor-harvester/internal/config"
	"go-glassdoor-harvester/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type TelegramReporter struct {
	bot    sender
	chatID int64
}

func NewTelegramReporter(cfg *config.Config) (*TelegramReporter, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram bot: %w", err)
	}

	//turn this on in case of debug
	//bot.Debug = true

	return &TelegramReporter{
		bot:    bot,
		chatID: cfg.TelegramChatID,
	}, nil
}

func (t *TelegramReporter) SendMessage(text string) error {
	msg := tgbotapi.NewMessage(t.chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	_, err := t.bot.Send(msg)
	return err
}

// SendRun reports a finished run.
func (t *TelegramReporter) SendRun(run *models.Run) error {
	return t.SendMessage(FormatRun(run))
}

func (t *TelegramReporter) SendError(errReq error) error {
	text := fmt.Sprintf("⚠️ <b>Harvester Error</b>:\n%s", html.EscapeString(errReq.Error()))
	return t.SendMessage(text)
}

// FormatRun renders a run as a Telegram HTML message.
func FormatRun(run *models.Run) string {
	var b strings.Builder
	switch run.Status {
	case models.StatusDone:
		b.WriteString("✅ <b>Harvest complete</b>\n")
	case models.StatusAborted:
		b.WriteString("❌ <b>Harvest aborted</b>\n")
	default:
		b.WriteString("⏳ <b>Harvest running</b>\n")
	}

	fmt.Fprintf(&b, "💼 %s\n", html.EscapeString(run.JobTitle))
	if run.Location != "" {
		fmt.Fprintf(&b, "📍 %s\n", html.EscapeString(run.Location))
	}
	fmt.Fprintf(&b, "📝 %d/%d records", run.Written, run.Target)
	if s := run.Shortfall(); s > 0 && run.Status == models.StatusAborted {
		fmt.Fprintf(&b, " (%d short)", s)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "📄 <code>%s</code>\n", html.EscapeString(run.OutputPath))
	if d := run.Duration(); d > 0 {
		fmt.Fprintf(&b, "⏱ %s\n", d.Round(time.Second))
	}
	if run.Reason != "" {
		fmt.Fprintf(&b, "🔎 %s\n", html.EscapeString(run.Reason))
	}
	return b.String()
}
