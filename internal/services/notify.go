package services

import (
	"log"

	tele "gopkg.in/telebot.v3"
)

// TelegramNotifier sends best-effort messages through the bot. Every
// transport failure is logged and discarded; callers must never depend
// on delivery for correctness.
type TelegramNotifier struct {
	bot       *tele.Bot
	channelID int64
}

func NewTelegramNotifier(bot *tele.Bot, channelID int64) *TelegramNotifier {
	return &TelegramNotifier{bot: bot, channelID: channelID}
}

// NotifyUser sends a direct message to a user.
func (n *TelegramNotifier) NotifyUser(userID int64, text string) {
	if n == nil || n.bot == nil {
		return
	}
	_, err := n.bot.Send(&tele.User{ID: userID}, text, tele.ModeMarkdown)
	if err != nil {
		log.Printf("notify user %d: %v", userID, err)
	}
}

// Broadcast posts to the configured report channel, if any.
func (n *TelegramNotifier) Broadcast(text string) {
	if n == nil || n.bot == nil || n.channelID == 0 {
		return
	}
	_, err := n.bot.Send(&tele.Chat{ID: n.channelID}, text, tele.ModeMarkdown)
	if err != nil {
		log.Printf("broadcast to channel %d: %v", n.channelID, err)
	}
}
