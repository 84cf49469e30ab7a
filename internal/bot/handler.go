// Package bot wires the bread post pipeline together: filter the inbound
// message, record it, derive the tally, and reply in the chat.
//
// A Handler is built once at startup from an explicit Config and is safe for
// concurrent use. Failures are returned to the caller as typed errors; none of
// them are fatal to the process.
package bot

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/rewired-gh/breadbot/internal/filter"
	"github.com/rewired-gh/breadbot/internal/logger"
	"github.com/rewired-gh/breadbot/internal/metrics"
	"github.com/rewired-gh/breadbot/internal/models"
	"github.com/rewired-gh/breadbot/internal/stats"
)

// Outcome describes how far a message got through the pipeline.
type Outcome string

const (
	// OutcomeIgnored means the message was not a bread post.
	OutcomeIgnored Outcome = "ignored"
	// OutcomeFailed means nothing was recorded.
	OutcomeFailed Outcome = "failed"
	// OutcomeRecorded means the post was stored but no reply went out.
	OutcomeRecorded Outcome = "recorded"
	// OutcomeReplied means the post was stored and acknowledged.
	OutcomeReplied Outcome = "replied"
)

// PostStore is the subset of storage the pipeline needs.
type PostStore interface {
	Append(ctx context.Context, post models.Post) error
	ListAllDescending(ctx context.Context) ([]models.Post, error)
}

// Replier sends a reply to a message in a chat.
type Replier interface {
	Reply(ctx context.Context, chatID int64, replyTo int, text string) error
}

// DeliveryError reports a reply that could not be sent. The post it
// acknowledges stays recorded.
type DeliveryError struct {
	PostID string
	Err    error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("failed to deliver reply for post %s: %v", e.PostID, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// Config holds the handler settings read once at startup.
type Config struct {
	Criteria filter.Criteria
}

// Handler runs the pipeline for one inbound message at a time per call.
type Handler struct {
	cfg     Config
	store   PostStore
	replier Replier

	// recordMu keeps append and list together, so the newest listed post is
	// the one this call just recorded.
	recordMu sync.Mutex
}

// NewHandler creates a Handler.
func NewHandler(cfg Config, store PostStore, replier Replier) *Handler {
	return &Handler{
		cfg:     cfg,
		store:   store,
		replier: replier,
	}
}

// Handle processes one inbound message.
func (h *Handler) Handle(ctx context.Context, msg models.InboundMessage) (Outcome, error) {
	outcome, err := h.handle(ctx, msg)
	metrics.RecordOutcome(string(outcome))
	return outcome, err
}

func (h *Handler) handle(ctx context.Context, msg models.InboundMessage) (Outcome, error) {
	if !filter.Eligible(msg, h.cfg.Criteria) {
		return OutcomeIgnored, nil
	}

	reqID := uuid.NewString()
	post := msg.Post()
	logger.Info("[%s] Bread post %s detected in chat %s", reqID, post.ID, msg.ChannelID)

	posts, appended, err := h.record(ctx, post)
	if err != nil {
		if appended {
			logger.Error("[%s] Post %s recorded but listing posts failed: %v", reqID, post.ID, err)
			return OutcomeRecorded, fmt.Errorf("failed to list posts for statistics: %w", err)
		}
		logger.Error("[%s] Failed to record post %s: %v", reqID, post.ID, err)
		return OutcomeFailed, err
	}
	if len(posts) > 0 && posts[0].ID != post.ID {
		logger.Warn("[%s] Post %s is older than post %s; reply describes the newest two posts",
			reqID, post.ID, posts[0].ID)
	}

	summary, err := stats.Summarize(posts)
	if err != nil {
		logger.Error("[%s] Failed to compute statistics over %d posts: %v", reqID, len(posts), err)
		return OutcomeRecorded, fmt.Errorf("failed to compute statistics: %w", err)
	}
	metrics.SetTally(summary.Count, summary.PostsPerDay)
	logger.Debug("[%s] Tally: count=%d days_since_last=%d bppd=%.4f first=%v",
		reqID, summary.Count, summary.DaysSinceLast, summary.PostsPerDay, summary.FirstPost)

	if err := h.replier.Reply(ctx, msg.ChatID, msg.MessageID, FormatReply(summary)); err != nil {
		metrics.RecordDeliveryFailure()
		logger.Warn("[%s] Failed to send reply for post %s: %v", reqID, post.ID, err)
		return OutcomeRecorded, &DeliveryError{PostID: post.ID, Err: err}
	}

	logger.Info("[%s] Replied to bread post number %d", reqID, summary.Count)
	return OutcomeReplied, nil
}

// record appends post and lists the history. appended reports whether the
// insert committed, even when the listing afterwards fails.
func (h *Handler) record(ctx context.Context, post models.Post) (posts []models.Post, appended bool, err error) {
	h.recordMu.Lock()
	defer h.recordMu.Unlock()

	if err := h.store.Append(ctx, post); err != nil {
		return nil, false, err
	}
	posts, err = h.store.ListAllDescending(ctx)
	return posts, true, err
}
