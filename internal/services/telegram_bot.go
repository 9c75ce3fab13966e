package services

import (
	"fmt"
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"tgmarket/internal/models"
)

// BotNotifier шлёт продавцу итог проверки в личку бота. Все методы
// nil-safe: без токена уведомления просто выключены.
type BotNotifier struct {
	bot   *tgbotapi.BotAPI
	users SellerUsers
}

func NewBotNotifier(token string, users SellerUsers) *BotNotifier {
	if token == "" {
		log.Printf("[tg][bot] токен не задан, уведомления выключены")
		return nil
	}
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		log.Printf("[tg][bot][err] init: %v, уведомления выключены", err)
		return nil
	}
	log.Printf("[tg][bot] авторизован как @%s", bot.Self.UserName)
	return &BotNotifier{bot: bot, users: users}
}

func (n *BotNotifier) NotifyAccepted(a *models.Account) {
	if n == nil {
		return
	}
	text := fmt.Sprintf("✅ Номер <b>%s</b> принят.\nНачислено: <b>%.2f</b>", a.PhoneNumber, a.Amount)
	n.send(a.UserID, text)
}

func (n *BotNotifier) NotifyRejected(a *models.Account, reason string) {
	if n == nil {
		return
	}
	text := fmt.Sprintf("❌ Номер <b>%s</b> отклонён.\nПричина: %s", a.PhoneNumber, reason)
	n.send(a.UserID, text)
}

func (n *BotNotifier) send(userID int64, text string) {
	u, err := n.users.GetByID(userID)
	if err != nil || u == nil || u.ChatID == 0 {
		log.Printf("[tg][send][skip] userID=%d: chat неизвестен (err=%v)", userID, err)
		return
	}
	msg := tgbotapi.NewMessage(u.ChatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	if _, err := n.bot.Send(msg); err != nil {
		log.Printf("[tg][send][err] chatID=%d: %v", u.ChatID, err)
		return
	}
	log.Printf("[tg][send] chatID=%d ok", u.ChatID)
}
