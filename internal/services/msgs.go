package services

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/wheel-empire/fortune-bot/internal/log"
)

// Msgs sends out-of-band notifications to the developer chat. Safe to
// use without a configured bot: everything degrades to the log.
type Msgs struct {
	bot       *tgbotapi.BotAPI
	devChatID int64
	logger    log.Logger
}

func NewMsgs(bot *tgbotapi.BotAPI, devChatID int64, logger log.Logger) *Msgs {
	return &Msgs{
		bot:       bot,
		devChatID: devChatID,
		logger:    logger,
	}
}

func (m *Msgs) SendNotificationToDeveloper(text string, disableNotification bool) {
	if m.bot == nil || m.devChatID == 0 {
		m.logger.Info("developer notification: %s", text)
		return
	}

	msg := tgbotapi.NewMessage(m.devChatID, text)
	msg.DisableNotification = disableNotification

	if _, err := m.bot.Send(msg); err != nil {
		m.logger.Warn("failed send notification to developer: %s", err.Error())
	}
}

func (m *Msgs) NotifyDeveloperf(silent bool, format string, args ...interface{}) {
	m.SendNotificationToDeveloper(fmt.Sprintf(format, args...), silent)
}
