// Package stats derives the bread post tally from a newest-first list of posts.
//
// All functions are pure. The input must be ordered newest first, which is the
// order storage.ListAllDescending returns. The day span used for the rate is
// always newest minus oldest, so a correctly ordered list never yields a
// negative span.
package stats

import (
	"errors"
	"fmt"
	"time"

	"github.com/rewired-gh/breadbot/internal/models"
)

const day = 24 * time.Hour

var (
	// ErrZeroSpan is returned when the oldest and newest post share a timestamp.
	ErrZeroSpan = errors.New("posts span zero time")
	// ErrNotDescending is returned when the input is not ordered newest first.
	ErrNotDescending = errors.New("posts are not ordered newest first")
)

// ParseError reports a stored date that is not a valid RFC3339 timestamp.
type ParseError struct {
	Index int
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("post %d has unparseable date %q: %v", e.Index, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// InsufficientHistoryError is returned when a statistic needs more posts than exist.
type InsufficientHistoryError struct {
	Have int
	Need int
}

func (e *InsufficientHistoryError) Error() string {
	return fmt.Sprintf("insufficient history: have %d posts, need %d", e.Have, e.Need)
}

// Summary is everything the reply needs.
type Summary struct {
	Count         int
	DaysSinceLast int64
	PostsPerDay   float64
	Previous      models.Post
	// FirstPost is set when only the just-recorded post exists; the other
	// fields besides Count are zero.
	FirstPost bool
}

// TotalCount returns the number of posts.
func TotalCount(posts []models.Post) int {
	return len(posts)
}

// DaysSinceLastPost returns the whole days, truncated, between the newest post and the one before it.
func DaysSinceLastPost(posts []models.Post) (int64, error) {
	if len(posts) < 2 {
		return 0, &InsufficientHistoryError{Have: len(posts), Need: 2}
	}
	newest, err := parseAt(posts, 0)
	if err != nil {
		return 0, err
	}
	previous, err := parseAt(posts, 1)
	if err != nil {
		return 0, err
	}
	return int64(newest.Sub(previous) / day), nil
}

// PostsPerDay returns the average number of posts per day across the whole history.
// Every post must parse, since the span relies on the ordering of all of them.
func PostsPerDay(posts []models.Post) (float64, error) {
	if len(posts) < 2 {
		return 0, &InsufficientHistoryError{Have: len(posts), Need: 2}
	}
	times, err := parseAll(posts)
	if err != nil {
		return 0, err
	}
	for i := 1; i < len(times); i++ {
		if times[i].After(times[i-1]) {
			return 0, fmt.Errorf("post %d is newer than post %d: %w", i, i-1, ErrNotDescending)
		}
	}

	span := times[0].Sub(times[len(times)-1])
	if span == 0 {
		return 0, ErrZeroSpan
	}
	days := span.Seconds() / day.Seconds()
	return float64(len(posts)) / days, nil
}

// Summarize computes the reply values for a newest-first list. A single post is
// reported as the first post rather than an error; an empty list is an error.
// The values describe posts[0] and posts[1] by time, which are not the post
// just recorded when that post is older than one already stored.
func Summarize(posts []models.Post) (Summary, error) {
	switch len(posts) {
	case 0:
		return Summary{}, &InsufficientHistoryError{Have: 0, Need: 1}
	case 1:
		if _, err := parseAt(posts, 0); err != nil {
			return Summary{}, err
		}
		return Summary{Count: 1, FirstPost: true}, nil
	}

	days, err := DaysSinceLastPost(posts)
	if err != nil {
		return Summary{}, err
	}
	rate, err := PostsPerDay(posts)
	if err != nil {
		return Summary{}, err
	}

	return Summary{
		Count:         TotalCount(posts),
		DaysSinceLast: days,
		PostsPerDay:   rate,
		Previous:      posts[1],
	}, nil
}

func parseAt(posts []models.Post, i int) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, posts[i].Date)
	if err != nil {
		return time.Time{}, &ParseError{Index: i, Value: posts[i].Date, Err: err}
	}
	return t, nil
}

func parseAll(posts []models.Post) ([]time.Time, error) {
	times := make([]time.Time, len(posts))
	for i := range posts {
		t, err := parseAt(posts, i)
		if err != nil {
			return nil, err
		}
		times[i] = t
	}
	return times, nil
}
