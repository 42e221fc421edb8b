package scoring

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/kojohq/topicscope/pkg/topic"
)

func TestCompositeWeighting(t *testing.T) {
	e := testEngine()

	got := e.Composite(1.0, 0.5, 0.8, 0.0)
	want := 0.3*1.0 + 0.4*0.5 + 0.3*0.8
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("composite = %v, want %v", got, want)
	}
}

func TestCompositePenaltyIsSubtractive(t *testing.T) {
	e := testEngine()

	clean := e.Composite(1.0, 1.0, 1.0, 0.0)
	flagged := e.Composite(1.0, 1.0, 1.0, -0.5)
	if clean != 1.0 {
		t.Fatalf("clean composite = %v, want 1.0", clean)
	}
	if math.Abs(flagged-0.5) > 1e-9 {
		t.Fatalf("flagged composite = %v, want 0.5", flagged)
	}
}

func TestCompositeClampsToRange(t *testing.T) {
	e := testEngine()

	if got := e.Composite(0.0, 0.0, 0.1, -0.5); got != 0.0 {
		t.Fatalf("composite below zero should clamp, got %v", got)
	}
	if got := e.Composite(1.0, 1.0, 1.0, 0.0); got > 1.0 {
		t.Fatalf("composite above one should clamp, got %v", got)
	}
}

func TestCompositeNormalizesWeightsLocally(t *testing.T) {
	e := testEngine()
	e.Weights = map[string]float64{
		topic.ComponentRecency:  0.6,
		topic.ComponentVelocity: 0.8,
		topic.ComponentAudience: 0.6,
	}

	got := e.Composite(1.0, 0.5, 0.8, 0.0)
	want := 0.3*1.0 + 0.4*0.5 + 0.3*0.8
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("composite with scaled weights = %v, want %v", got, want)
	}

	// The engine's weights must not be mutated by normalization.
	if e.Weights[topic.ComponentVelocity] != 0.8 {
		t.Fatalf("weights were mutated: %v", e.Weights)
	}
}

func TestEvaluateKeywordPath(t *testing.T) {
	e := testEngine()

	cand := redditCand("t1", 100, 20)
	cand.Cluster = "ai-infra"
	cand.CreatedAt = testNow.Add(-24 * time.Hour)

	eval := e.Evaluate(context.Background(), &cand, []topic.Candidate{cand}, Options{})

	if eval.CostUSD != 0 {
		t.Fatalf("keyword path should cost nothing, got %v", eval.CostUSD)
	}
	if len(eval.Components) != 4 || len(eval.Reasoning) != 4 {
		t.Fatalf("expected 4 components with reasoning, got %+v", eval)
	}
	if math.Abs(eval.Components[topic.ComponentRecency]-0.5) > 1e-9 {
		t.Fatalf("recency = %v, want 0.5", eval.Components[topic.ComponentRecency])
	}
	if eval.Components[topic.ComponentIntegrity] != 0 {
		t.Fatalf("integrity penalty = %v, want 0", eval.Components[topic.ComponentIntegrity])
	}

	want := e.Composite(
		eval.Components[topic.ComponentRecency],
		eval.Components[topic.ComponentVelocity],
		eval.Components[topic.ComponentAudience],
		eval.Components[topic.ComponentIntegrity],
	)
	if math.Abs(eval.Score-want) > 1e-9 {
		t.Fatalf("score = %v, want %v", eval.Score, want)
	}
	if eval.Score < 0 || eval.Score > 1 {
		t.Fatalf("score out of range: %v", eval.Score)
	}
}

func TestEvaluateCopiesWeights(t *testing.T) {
	e := testEngine()
	cand := candAt(testNow)

	eval := e.Evaluate(context.Background(), &cand, nil, Options{})
	eval.Weights[topic.ComponentRecency] = 99

	if e.Weights[topic.ComponentRecency] == 99 {
		t.Fatal("evaluation weights must be a copy")
	}
}
