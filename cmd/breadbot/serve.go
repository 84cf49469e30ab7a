package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rewired-gh/breadbot/internal/bot"
	"github.com/rewired-gh/breadbot/internal/filter"
	"github.com/rewired-gh/breadbot/internal/logger"
	"github.com/rewired-gh/breadbot/internal/metrics"
	"github.com/rewired-gh/breadbot/internal/models"
	"github.com/rewired-gh/breadbot/internal/stats"
	"github.com/rewired-gh/breadbot/internal/storage"
	"github.com/rewired-gh/breadbot/internal/telegram"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Connect to Telegram and start counting bread posts",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// Setup logging with level support
	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	if configPath != "" {
		logger.Info("Configuration loaded from %s", configPath)
	}

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case <-sigChan:
			logger.Info("Shutdown signal received, cleaning up...")
			cancel()
		case <-ctx.Done():
		}
	}()

	// Initialize storage
	store, err := storage.New(ctx, cfg.Storage.DBPath, cfg.Storage.BusyTimeout)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("Failed to close storage: %v", err)
		}
	}()
	logger.Info("Storage opened at %s", store.Path())

	if posts, err := store.ListAllDescending(ctx); err != nil {
		logger.Warn("Failed to read existing posts: %v", err)
	} else {
		seedTally(posts)
	}

	// Initialize Telegram client
	tg, err := telegram.NewClient(
		cfg.Telegram.BotToken,
		cfg.Telegram.MaxRetries,
		cfg.Telegram.RetryDelayBase,
		cfg.Telegram.PollTimeout,
		cfg.Telegram.Debug,
	)
	if err != nil {
		return fmt.Errorf("failed to initialize Telegram client: %w", err)
	}
	logger.Info("%s is connected!", tg.Username())

	handler := bot.NewHandler(bot.Config{
		Criteria: filter.Criteria{
			TargetAuthorID:  cfg.Telegram.TargetUser,
			TargetChannelID: cfg.Telegram.TargetChat,
			Keyword:         cfg.Bot.Keyword,
		},
	}, store, tg)

	if cfg.Metrics.Enabled {
		go func() {
			logger.Info("Serving metrics on %s/metrics", cfg.Metrics.ListenAddr)
			if err := metrics.Serve(ctx, cfg.Metrics.ListenAddr); err != nil {
				logger.Error("Metrics server failed: %v", err)
			}
		}()
	}

	logger.Debug("Watching user %s in chat %s for %q posts",
		cfg.Telegram.TargetUser, cfg.Telegram.TargetChat, cfg.Bot.Keyword)

	err = tg.Listen(ctx, cfg.Bot.Workers, func(ctx context.Context, msg models.InboundMessage) {
		outcome, err := handler.Handle(ctx, msg)
		if err != nil {
			logger.Error("Message %d handling ended as %s: %v", msg.MessageID, outcome, err)
		}
	})
	logger.Info("Service stopped")
	return err
}

// seedTally sets the gauges from what is already on disk, so they are
// meaningful before the first new post arrives.
func seedTally(posts []models.Post) {
	rate, err := stats.PostsPerDay(posts)
	if err != nil {
		logger.Debug("No BPPD for existing history: %v", err)
		rate = 0
	}
	metrics.SetTally(stats.TotalCount(posts), rate)
	logger.Info("Loaded %d existing bread posts", len(posts))
}
