package scoring

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/kojohq/topicscope/pkg/topic"
)

var testNow = time.Date(2025, 6, 4, 12, 0, 0, 0, time.UTC)

func testEngine() *Engine {
	e := NewEngine(nil)
	e.now = func() time.Time { return testNow }
	return e
}

func candAt(at time.Time) topic.Candidate {
	return topic.Candidate{ID: "t1", Title: "Something", CreatedAt: at}
}

func TestRecencyHalfLife(t *testing.T) {
	e := testEngine()

	tests := []struct {
		name string
		age  time.Duration
		want float64
	}{
		{"brand new", 0, 1.0},
		{"half life", 24 * time.Hour, 0.5},
		{"two half lives", 48 * time.Hour, 0.25},
		{"twelve hours", 12 * time.Hour, math.Exp(-math.Ln2 / 24 * 12)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, _ := e.Recency(candAt(testNow.Add(-tc.age)))
			if math.Abs(got-tc.want) > 1e-9 {
				t.Fatalf("recency at %v = %v, want %v", tc.age, got, tc.want)
			}
		})
	}
}

func TestRecencyFutureTimestamp(t *testing.T) {
	e := testEngine()
	got, reasoning := e.Recency(candAt(testNow.Add(2 * time.Hour)))
	if got != 1.0 {
		t.Fatalf("future timestamp should score 1.0, got %v", got)
	}
	if !strings.Contains(reasoning, "seconds ago") {
		t.Fatalf("unexpected reasoning: %q", reasoning)
	}
}

func TestRecencyZeroTimestamp(t *testing.T) {
	e := testEngine()
	got, _ := e.Recency(topic.Candidate{ID: "t1"})
	if got != 1.0 {
		t.Fatalf("missing timestamp should score 1.0, got %v", got)
	}
}

func TestRecencyStaysInRange(t *testing.T) {
	e := testEngine()
	got, _ := e.Recency(candAt(testNow.Add(-90 * 24 * time.Hour)))
	if got < 0 || got > 1 {
		t.Fatalf("recency out of range: %v", got)
	}
	if got > 0.1 {
		t.Fatalf("90-day-old topic should be near zero, got %v", got)
	}
}
