// Package telegram connects the bot to the Telegram Bot API.
// It listens for chat messages over long polling, converts them into
// platform-neutral inbound messages, and delivers replies with retry.
//
// Update stream reconnection is left to the underlying tgbotapi client.
package telegram

import (
	"context"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/sync/errgroup"

	"github.com/rewired-gh/breadbot/internal/logger"
	"github.com/rewired-gh/breadbot/internal/models"
)

// BotAPI is the part of *tgbotapi.BotAPI the client uses.
type BotAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// HandleFunc processes one inbound message.
type HandleFunc func(ctx context.Context, msg models.InboundMessage)

// Client handles Telegram updates and replies
type Client struct {
	bot            BotAPI
	username       string
	maxRetries     int
	retryDelayBase time.Duration
	pollTimeout    time.Duration
}

// NewClient creates a new Telegram client
func NewClient(botToken string, maxRetries int, retryDelayBase, pollTimeout time.Duration, debug bool) (*Client, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}
	bot.Debug = debug

	c := newClient(bot, maxRetries, retryDelayBase, pollTimeout)
	c.username = bot.Self.UserName
	return c, nil
}

func newClient(bot BotAPI, maxRetries int, retryDelayBase, pollTimeout time.Duration) *Client {
	if maxRetries <= 0 {
		maxRetries = 3
	}
	if retryDelayBase <= 0 {
		retryDelayBase = time.Second
	}
	if pollTimeout <= 0 {
		pollTimeout = 60 * time.Second
	}

	return &Client{
		bot:            bot,
		maxRetries:     maxRetries,
		retryDelayBase: retryDelayBase,
		pollTimeout:    pollTimeout,
	}
}

// Username returns the bot's Telegram username, if known.
func (c *Client) Username() string {
	return c.username
}

// Reply sends text to chatID as a reply to message replyTo.
func (c *Client) Reply(ctx context.Context, chatID int64, replyTo int, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyToMessageID = replyTo
	msg.DisableWebPagePreview = true

	var lastErr error
	for i := 0; i < c.maxRetries; i++ {
		_, err := c.bot.Send(msg)
		if err == nil {
			return nil
		}
		lastErr = err
		logger.Debug("Send attempt %d/%d to chat %d failed: %v", i+1, c.maxRetries, chatID, err)

		if i == c.maxRetries-1 {
			break
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("send cancelled after %d attempts: %w", i+1, ctx.Err())
		case <-time.After(c.retryDelayBase * time.Duration(i+1)):
		}
	}

	return fmt.Errorf("failed to send message after %d retries: %w", c.maxRetries, lastErr)
}

// Listen consumes updates until ctx is cancelled or the update stream closes.
// Messages are handled concurrently on at most workers goroutines; Listen
// waits for in-flight handlers before returning. A message still waiting for
// a free worker when ctx is cancelled is dropped.
func (c *Client) Listen(ctx context.Context, workers int, handle HandleFunc) error {
	if workers < 1 {
		workers = 1
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = int(c.pollTimeout.Seconds())
	updates := c.bot.GetUpdatesChan(u)

	var g errgroup.Group
	slots := make(chan struct{}, workers)

	logger.Info("Listening for Telegram updates (workers: %d)", workers)
	for {
		select {
		case <-ctx.Done():
			c.bot.StopReceivingUpdates()
			return g.Wait()

		case update, ok := <-updates:
			if !ok {
				return g.Wait()
			}
			msg := update.Message
			if msg == nil {
				msg = update.ChannelPost
			}
			if msg == nil {
				continue
			}

			inbound := ToInbound(msg)
			select {
			case slots <- struct{}{}:
			case <-ctx.Done():
				logger.Debug("Dropping message %d, shutting down", inbound.MessageID)
				c.bot.StopReceivingUpdates()
				return g.Wait()
			}
			g.Go(func() error {
				defer func() { <-slots }()
				handle(ctx, inbound)
				return nil
			})
		}
	}
}
