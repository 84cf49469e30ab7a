// Package filter decides which inbound messages count as bread posts.
package filter

import (
	"strings"

	"github.com/rewired-gh/breadbot/internal/models"
)

// DefaultKeyword is matched when Criteria.Keyword is empty.
const DefaultKeyword = "bread"

// Criteria names the one author and one channel the bot watches.
type Criteria struct {
	TargetAuthorID  string
	TargetChannelID string
	Keyword         string
}

// Eligible reports whether msg is a bread post: right author, right channel,
// at least one attachment, and the keyword somewhere in the lower-cased text.
func Eligible(msg models.InboundMessage, c Criteria) bool {
	keyword := c.Keyword
	if keyword == "" {
		keyword = DefaultKeyword
	}
	return msg.AuthorID == c.TargetAuthorID &&
		msg.ChannelID == c.TargetChannelID &&
		msg.HasAttachments &&
		strings.Contains(strings.ToLower(msg.Text), strings.ToLower(keyword))
}
