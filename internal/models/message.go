package models

import (
	"strconv"
	"time"
)

// InboundMessage is a chat message as seen by the bot, independent of the platform.
type InboundMessage struct {
	MessageID      int
	ChatID         int64
	AuthorID       string
	ChannelID      string
	HasAttachments bool
	Text           string // Message text, or the media caption
	Permalink      string
	CreatedAt      time.Time
}

// ID returns the message ID in the form it is stored under.
func (m InboundMessage) ID() string {
	return strconv.Itoa(m.MessageID)
}

// Post converts the message into the row that records it.
func (m InboundMessage) Post() Post {
	return NewPost(m.ID(), m.Permalink, m.CreatedAt)
}
