package bot

import (
	"fmt"
	"strconv"

	"github.com/rewired-gh/breadbot/internal/stats"
)

// FormatReply renders the acknowledgment for a freshly recorded post.
func FormatReply(s stats.Summary) string {
	if s.FirstPost {
		return fmt.Sprintf("New bread post!\nThis is bread post number %d.\nThis is the first bread post, no BPPD yet.", s.Count)
	}
	return fmt.Sprintf(
		"New bread post!\nThis is bread post number %d.\nIt has been %d days since the last bread post.\nCurrent BPPD is %s\nLink to previous post: %s",
		s.Count,
		s.DaysSinceLast,
		strconv.FormatFloat(s.PostsPerDay, 'f', -1, 64),
		s.Previous.MessageURL,
	)
}
