package services

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/wheel-empire/fortune-bot/internal/log"
)

// TgMembership answers membership questions through the bot API. Any
// API error reads as "not a member".
type TgMembership struct {
	bot    *tgbotapi.BotAPI
	msgs   *Msgs
	logger log.Logger
}

func NewTgMembership(bot *tgbotapi.BotAPI, msgs *Msgs, logger log.Logger) *TgMembership {
	return &TgMembership{
		bot:    bot,
		msgs:   msgs,
		logger: logger,
	}
}

func (t *TgMembership) IsMember(userID, chatID int64) bool {
	if t.bot == nil {
		return false
	}

	member, err := t.bot.GetChatMember(tgbotapi.GetChatMemberConfig{
		ChatConfigWithUser: tgbotapi.ChatConfigWithUser{
			ChatID: chatID,
			UserID: userID,
		},
	})
	if err != nil {
		t.msgs.NotifyDeveloperf(false, "error in check subscribe: %s", err.Error())
		return false
	}

	return checkMemberStatus(member)
}

func checkMemberStatus(member tgbotapi.ChatMember) bool {
	if member.IsAdministrator() {
		return true
	}
	if member.IsCreator() {
		return true
	}
	if member.Status == "member" {
		return true
	}
	return false
}
