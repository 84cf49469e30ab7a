// Package models defines the core domain entities for breadbot.
// A Post is one persisted bread post; an InboundMessage is the platform-neutral
// view of a chat message before it is judged eligible.
package models

import (
	"errors"
	"fmt"
	"time"
)

// DateLayout is the layout new rows are written with. It is RFC3339 with a
// fixed-width fraction so lexical order of stored dates matches time order.
const DateLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Post represents a single recorded bread post.
type Post struct {
	ID         string `json:"id"`          // Platform message ID
	MessageURL string `json:"message_url"` // Permalink to the original message
	Date       string `json:"date"`        // RFC3339 creation time, as stored
}

// NewPost builds a Post from a message creation time, normalized to UTC.
func NewPost(id, messageURL string, createdAt time.Time) Post {
	return Post{
		ID:         id,
		MessageURL: messageURL,
		Date:       createdAt.UTC().Format(DateLayout),
	}
}

// Timestamp parses the stored date.
func (p Post) Timestamp() (time.Time, error) {
	t, err := time.Parse(time.RFC3339, p.Date)
	if err != nil {
		return time.Time{}, fmt.Errorf("post %s has invalid date %q: %w", p.ID, p.Date, err)
	}
	return t, nil
}

// Validate checks that all post fields are present.
func (p *Post) Validate() error {
	if p.ID == "" {
		return errors.New("post ID must not be empty")
	}
	if p.MessageURL == "" {
		return errors.New("post message URL must not be empty")
	}
	if p.Date == "" {
		return errors.New("post date must not be empty")
	}
	return nil
}
