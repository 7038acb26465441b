package bot

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/dompetdev/dompetbot/internal/repository"
)

const accessDeniedText = "⛔ *Akses Ditolak*\n\nBot ini bersifat pribadi."

// Bot is the Telegram transport around Engine. It keeps one live message
// per chat: each turn edits that message in place, falling back to
// delete-and-resend when Telegram rejects the edit.
type Bot struct {
	api         *tgbotapi.BotAPI
	engine      *Engine
	store       repository.Store
	allowedUser string
}

func New(token, allowedUser string, engine *Engine, store repository.Store) (*Bot, error) {
	api, err := tgbotapi.NewBotAPIWithClient(token, tgbotapi.APIEndpoint, &http.Client{Timeout: 30 * time.Second})
	if err != nil {
		return nil, err
	}
	return &Bot{api: api, engine: engine, store: store, allowedUser: allowedUser}, nil
}

// Start long-polls for updates until ctx is canceled.
func (b *Bot) Start(ctx context.Context) {
	log.Printf("bot: authorized as @%s", b.api.Self.UserName)

	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = 60
	updates := b.api.GetUpdatesChan(cfg)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update := <-updates:
			go b.handleUpdate(ctx, update)
		}
	}
}

// HandleWebhook processes one webhook body. Used when the bot runs behind
// an HTTP endpoint instead of long polling.
func (b *Bot) HandleWebhook(ctx context.Context, body []byte) error {
	var update tgbotapi.Update
	if err := json.Unmarshal(body, &update); err != nil {
		return err
	}
	b.handleUpdate(ctx, update)
	return nil
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil && update.Message.Text != "":
		b.handleMessage(ctx, update.Message)
	}
}

func (b *Bot) authorized(from *tgbotapi.User) bool {
	return from != nil && strings.EqualFold(from.UserName, b.allowedUser)
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	if !b.authorized(msg.From) {
		reply := tgbotapi.NewMessage(chatID, accessDeniedText)
		reply.ParseMode = tgbotapi.ModeMarkdown
		if _, err := b.api.Send(reply); err != nil {
			log.Printf("bot: access denied reply: %v", err)
		}
		return
	}

	if err := b.store.RegisterUser(ctx, msg.From.UserName, chatID, msg.From.FirstName); err != nil {
		log.Printf("bot: register user: %v", err)
	}

	resp := b.engine.HandleText(ctx, chatID, msg.Text)

	// the user's own message is removed to keep a single live card
	b.deleteMessage(chatID, msg.MessageID)
	b.deliver(chatID, b.engine.LastMessageID(chatID), resp)
}

func (b *Bot) handleCallback(ctx context.Context, query *tgbotapi.CallbackQuery) {
	if !b.authorized(query.From) {
		alert := tgbotapi.NewCallbackWithAlert(query.ID, "Akses ditolak.")
		if _, err := b.api.Request(alert); err != nil {
			log.Printf("bot: callback alert: %v", err)
		}
		return
	}
	if _, err := b.api.Request(tgbotapi.NewCallback(query.ID, "")); err != nil {
		log.Printf("bot: answer callback: %v", err)
	}
	if query.Message == nil {
		return
	}

	chatID := query.Message.Chat.ID
	resp := b.engine.HandleCallback(ctx, chatID, query.Data)
	b.deliver(chatID, query.Message.MessageID, resp)
}

// SendOTP pushes a login code into the chat outside the live-card cycle.
// Used by the web API when the browser requests a code.
func (b *Bot) SendOTP(chatID int64, code string, expiresAt time.Time, isExisting bool) error {
	label := "Kode baru dibuat."
	if isExisting {
		label = "Kode sebelumnya masih berlaku."
	}
	msg := tgbotapi.NewMessage(chatID,
		"🔐 *Kode Login Web:*\n\n`"+code+"`\n\n"+label+" Berlaku sampai "+expiresAt.Local().Format("15:04")+".")
	msg.ParseMode = tgbotapi.ModeMarkdown
	_, err := b.api.Send(msg)
	return err
}

// deliver renders a Response: photo turns, edits, and the
// delete-and-resend fallback all end with lastMessageID pointing at the
// chat's live message.
func (b *Bot) deliver(chatID int64, editID int, resp Response) {
	if resp.PhotoPNG != nil {
		if editID != 0 {
			b.deleteMessage(chatID, editID)
		}
		photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: "chart.png", Bytes: resp.PhotoPNG})
		photo.Caption = resp.Text
		photo.ParseMode = tgbotapi.ModeMarkdown
		if resp.Keyboard != nil {
			photo.ReplyMarkup = resp.Keyboard
		}
		sent, err := b.api.Send(photo)
		if err != nil {
			log.Printf("bot: send photo: %v", err)
			return
		}
		b.engine.SetLastMessageID(chatID, sent.MessageID)
		return
	}

	if editID != 0 {
		edit := tgbotapi.NewEditMessageText(chatID, editID, resp.Text)
		edit.ParseMode = tgbotapi.ModeMarkdown
		if resp.Keyboard != nil {
			edit.ReplyMarkup = resp.Keyboard
		}
		_, err := b.api.Send(edit)
		if err == nil || isNotModified(err) {
			b.engine.SetLastMessageID(chatID, editID)
			return
		}
		// edit rejected (message too old, or it was a photo): replace it
		b.deleteMessage(chatID, editID)
	}

	msg := tgbotapi.NewMessage(chatID, resp.Text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if resp.Keyboard != nil {
		msg.ReplyMarkup = resp.Keyboard
	}
	sent, err := b.api.Send(msg)
	if err != nil {
		log.Printf("bot: send message: %v", err)
		return
	}
	b.engine.SetLastMessageID(chatID, sent.MessageID)
}

// deleteMessage is best effort: already-deleted and too-old messages fail
// silently.
func (b *Bot) deleteMessage(chatID int64, messageID int) {
	if messageID == 0 {
		return
	}
	if _, err := b.api.Request(tgbotapi.NewDeleteMessage(chatID, messageID)); err != nil {
		log.Printf("bot: delete message %d: %v", messageID, err)
	}
}

func isNotModified(err error) bool {
	return err != nil && strings.Contains(err.Error(), "message is not modified")
}
