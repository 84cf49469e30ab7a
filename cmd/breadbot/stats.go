package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/rewired-gh/breadbot/internal/models"
	"github.com/rewired-gh/breadbot/internal/stats"
	"github.com/rewired-gh/breadbot/internal/storage"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print the current bread tally from the database",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := cfg.ValidateStorage(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}

		store, err := storage.New(cmd.Context(), cfg.Storage.DBPath, cfg.Storage.BusyTimeout)
		if err != nil {
			return err
		}
		defer store.Close()

		posts, err := store.ListAllDescending(cmd.Context())
		if err != nil {
			return err
		}
		return printStats(cmd.OutOrStdout(), posts)
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func printStats(w io.Writer, posts []models.Post) error {
	fmt.Fprintf(w, "Bread posts: %s\n", humanize.Comma(int64(stats.TotalCount(posts))))
	if len(posts) == 0 {
		return nil
	}

	if latest, err := posts[0].Timestamp(); err == nil {
		fmt.Fprintf(w, "Latest post: %s (%s)\n", latest.Format("2006-01-02 15:04 MST"), humanize.Time(latest))
	}
	fmt.Fprintf(w, "Latest link: %s\n", posts[0].MessageURL)

	days, err := stats.DaysSinceLastPost(posts)
	var ih *stats.InsufficientHistoryError
	if errors.As(err, &ih) {
		fmt.Fprintln(w, "Only one bread post so far, no BPPD yet.")
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Days between the last two posts: %d\n", days)

	rate, err := stats.PostsPerDay(posts)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Current BPPD: %s\n", strconv.FormatFloat(rate, 'f', 4, 64))
	return nil
}
