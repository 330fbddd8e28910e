package handlers

import (
	"context"
	"fmt"

	"github.com/Akamalshaikh/telegram-bot/models"
	"github.com/Akamalshaikh/telegram-bot/services"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// telegramGate answers channel-membership checks through the Bot API.
type telegramGate struct {
	bot     *tgbotapi.BotAPI
	channel string
}

func NewTelegramGate(bot *tgbotapi.BotAPI, channel string) services.MembershipGate {
	return &telegramGate{bot: bot, channel: channel}
}

func (g *telegramGate) IsMember(ctx context.Context, userID int64) (models.MembershipStatus, error) {
	if err := ctx.Err(); err != nil {
		return models.NotMember, err
	}

	member, err := g.bot.GetChatMember(tgbotapi.GetChatMemberConfig{
		ChatConfigWithUser: tgbotapi.ChatConfigWithUser{
			SuperGroupUsername: g.channel,
			UserID:             userID,
		},
	})
	if err != nil {
		return models.NotMember, fmt.Errorf("get chat member %d in %s: %w", userID, g.channel, err)
	}

	switch member.Status {
	case "member", "administrator", "creator":
		return models.Member, nil
	default:
		return models.NotMember, nil
	}
}
