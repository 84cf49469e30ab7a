package telegram

import (
	"fmt"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/rewired-gh/breadbot/internal/models"
)

// supergroupPrefix is subtracted from supergroup and channel IDs to get the
// internal ID used in t.me/c links.
const supergroupPrefix = -1000000000000

// ToInbound converts a Telegram message. Media captions count as text.
func ToInbound(msg *tgbotapi.Message) models.InboundMessage {
	in := models.InboundMessage{
		MessageID:      msg.MessageID,
		HasAttachments: hasAttachments(msg),
		Text:           msg.Text,
		CreatedAt:      msg.Time(),
	}
	if in.Text == "" {
		in.Text = msg.Caption
	}

	switch {
	case msg.From != nil:
		in.AuthorID = strconv.FormatInt(msg.From.ID, 10)
	case msg.SenderChat != nil:
		in.AuthorID = strconv.FormatInt(msg.SenderChat.ID, 10)
	}

	if msg.Chat != nil {
		in.ChatID = msg.Chat.ID
		in.ChannelID = strconv.FormatInt(msg.Chat.ID, 10)
		in.Permalink = Permalink(msg.Chat, msg.MessageID)
	}
	return in
}

// Permalink returns a link to a message. Public chats get a t.me/<username>
// link; supergroups and channels get a t.me/c link for members. Basic groups
// and private chats have no web link, so a tg:// deep link is used.
func Permalink(chat *tgbotapi.Chat, messageID int) string {
	if chat.UserName != "" {
		return fmt.Sprintf("https://t.me/%s/%d", chat.UserName, messageID)
	}
	if chat.ID <= supergroupPrefix {
		return fmt.Sprintf("https://t.me/c/%d/%d", supergroupPrefix-chat.ID, messageID)
	}
	return fmt.Sprintf("tg://openmessage?chat_id=%d&message_id=%d", chat.ID, messageID)
}

func hasAttachments(msg *tgbotapi.Message) bool {
	return len(msg.Photo) > 0 ||
		msg.Document != nil ||
		msg.Video != nil ||
		msg.Animation != nil ||
		msg.Audio != nil ||
		msg.Voice != nil ||
		msg.VideoNote != nil
}
