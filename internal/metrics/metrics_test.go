package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordOutcome(t *testing.T) {
	before := testutil.ToFloat64(MessagesTotal.WithLabelValues("replied"))
	RecordOutcome("replied")
	RecordOutcome("replied")

	if got := testutil.ToFloat64(MessagesTotal.WithLabelValues("replied")) - before; got != 2 {
		t.Errorf("Expected 2 increments, got %v", got)
	}
}

func TestSetTally(t *testing.T) {
	SetTally(5, 1.25)

	if got := testutil.ToFloat64(PostsTotal); got != 5 {
		t.Errorf("Expected posts_total 5, got %v", got)
	}
	if got := testutil.ToFloat64(PostsPerDay); got != 1.25 {
		t.Errorf("Expected posts_per_day 1.25, got %v", got)
	}
}

func TestRecordDeliveryFailure(t *testing.T) {
	before := testutil.ToFloat64(DeliveryFailuresTotal)
	RecordDeliveryFailure()

	if got := testutil.ToFloat64(DeliveryFailuresTotal) - before; got != 1 {
		t.Errorf("Expected 1 increment, got %v", got)
	}
}
