package scoring

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/kojohq/topicscope/pkg/llm"
	"github.com/kojohq/topicscope/pkg/topic"
)

// scriptedClient answers audience and integrity calls in alternation.
// The reply bodies can be overridden per test.
type scriptedClient struct {
	calls     int
	status    int
	fail      bool
	audience  string
	integrity string
}

func (s *scriptedClient) Do(*http.Request) (*http.Response, error) {
	s.calls++
	if s.fail {
		return nil, fmt.Errorf("connection refused")
	}

	var content string
	if s.calls%2 == 1 {
		content = s.audience
		if content == "" {
			content = `{\"score\": 0.8, \"reasoning\": \"fits the audience\"}`
		}
	} else {
		content = s.integrity
		if content == "" {
			content = `{\"penalty\": -0.1, \"reasoning\": \"mildly sensational\"}`
		}
	}
	body := fmt.Sprintf(`{
		"choices": [{"message": {"content": "%s"}}],
		"usage": {"prompt_tokens": 1000, "completion_tokens": 500}
	}`, content)

	status := s.status
	if status == 0 {
		status = 200
	}
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     make(http.Header),
	}, nil
}

func llmEngine(t *testing.T, fake *scriptedClient) *Engine {
	t.Helper()
	client, err := llm.NewClient(llm.Config{APIKey: "test", HTTPClient: fake})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	e := NewEngine(client)
	e.now = func() time.Time { return testNow }
	return e
}

func TestEvaluateLLMPath(t *testing.T) {
	fake := &scriptedClient{}
	e := llmEngine(t, fake)
	guard := NewCostGuard(1.0)

	cand := candAt(testNow)
	eval := e.Evaluate(context.Background(), &cand, nil, Options{UseLLM: true, Guard: guard})

	if fake.calls != 2 {
		t.Fatalf("expected 2 llm calls, got %d", fake.calls)
	}
	if eval.Components[topic.ComponentAudience] != 0.8 {
		t.Fatalf("audience = %v, want 0.8", eval.Components[topic.ComponentAudience])
	}
	if eval.Components[topic.ComponentIntegrity] != -0.1 {
		t.Fatalf("penalty = %v, want -0.1", eval.Components[topic.ComponentIntegrity])
	}
	if !strings.HasPrefix(eval.Reasoning[topic.ComponentAudience], "LLM:") {
		t.Fatalf("unexpected reasoning: %q", eval.Reasoning[topic.ComponentAudience])
	}
	if eval.CostUSD <= 0 {
		t.Fatalf("expected positive cost, got %v", eval.CostUSD)
	}
	if guard.Spent() != eval.CostUSD {
		t.Fatalf("guard spent %v, evaluation cost %v", guard.Spent(), eval.CostUSD)
	}
}

func TestEvaluateLLMResultsAreCached(t *testing.T) {
	fake := &scriptedClient{}
	e := llmEngine(t, fake)
	guard := NewCostGuard(1.0)
	ctx := context.Background()

	cand := candAt(testNow)
	first := e.Evaluate(ctx, &cand, nil, Options{UseLLM: true, Guard: guard})
	second := e.Evaluate(ctx, &cand, nil, Options{UseLLM: true, Guard: guard})

	if fake.calls != 2 {
		t.Fatalf("cached rescore should not call the llm again, got %d calls", fake.calls)
	}
	if second.Components[topic.ComponentAudience] != first.Components[topic.ComponentAudience] {
		t.Fatalf("cached audience differs: %v vs %v", second, first)
	}
	if second.CostUSD != 0 {
		t.Fatalf("cached rescore should be free, got %v", second.CostUSD)
	}
}

func TestEvaluateCacheExpires(t *testing.T) {
	fake := &scriptedClient{}
	e := llmEngine(t, fake)
	guard := NewCostGuard(1.0)
	ctx := context.Background()

	cand := candAt(testNow)
	e.Evaluate(ctx, &cand, nil, Options{UseLLM: true, Guard: guard})

	e.now = func() time.Time { return testNow.Add(25 * time.Hour) }
	e.Evaluate(ctx, &cand, nil, Options{UseLLM: true, Guard: guard})

	if fake.calls != 4 {
		t.Fatalf("expired cache should trigger fresh llm calls, got %d", fake.calls)
	}
}

func TestEvaluateClampsOutOfRangeLLMOutput(t *testing.T) {
	tests := []struct {
		name         string
		audience     string
		integrity    string
		wantAudience float64
		wantPenalty  float64
	}{
		{
			name:         "values far past the ranges",
			audience:     `{\"score\": 5.0, \"reasoning\": \"very on brand\"}`,
			integrity:    `{\"penalty\": -2.0, \"reasoning\": \"terrible\"}`,
			wantAudience: 1.0,
			wantPenalty:  -0.5,
		},
		{
			name:         "negative score and positive penalty",
			audience:     `{\"score\": -3.0, \"reasoning\": \"hates it\"}`,
			integrity:    `{\"penalty\": 0.3, \"reasoning\": \"bonus points\"}`,
			wantAudience: 0.0,
			wantPenalty:  0.0,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			fake := &scriptedClient{audience: tc.audience, integrity: tc.integrity}
			e := llmEngine(t, fake)
			guard := NewCostGuard(1.0)

			cand := candAt(testNow)
			eval := e.Evaluate(context.Background(), &cand, nil, Options{UseLLM: true, Guard: guard})

			if got := eval.Components[topic.ComponentAudience]; got != tc.wantAudience {
				t.Fatalf("audience = %v, want %v", got, tc.wantAudience)
			}
			if got := eval.Components[topic.ComponentIntegrity]; got != tc.wantPenalty {
				t.Fatalf("penalty = %v, want %v", got, tc.wantPenalty)
			}
		})
	}
}

func TestEvaluateFallsBackOnLLMError(t *testing.T) {
	fake := &scriptedClient{fail: true}
	e := llmEngine(t, fake)
	guard := NewCostGuard(1.0)

	cand := candAt(testNow)
	cand.Cluster = "ai-infra"
	eval := e.Evaluate(context.Background(), &cand, nil, Options{UseLLM: true, Guard: guard})

	if !strings.HasPrefix(eval.Reasoning[topic.ComponentAudience], "Keyword-based:") {
		t.Fatalf("expected keyword fallback, got %q", eval.Reasoning[topic.ComponentAudience])
	}
	if eval.Components[topic.ComponentAudience] != 0.9 {
		t.Fatalf("fallback audience = %v, want cluster base 0.9", eval.Components[topic.ComponentAudience])
	}
	if eval.Components[topic.ComponentIntegrity] != 0 {
		t.Fatalf("fallback penalty = %v, want 0", eval.Components[topic.ComponentIntegrity])
	}
}

func TestEvaluateBudgetStopsLLMScoring(t *testing.T) {
	fake := &scriptedClient{}
	e := llmEngine(t, fake)
	guard := NewCostGuard(0.01)
	ctx := context.Background()

	llmScored := 0
	for i := 0; i < 10; i++ {
		cand := topic.Candidate{
			ID:        fmt.Sprintf("t%d", i),
			Title:     fmt.Sprintf("Topic %d", i),
			CreatedAt: testNow,
		}
		eval := e.Evaluate(ctx, &cand, nil, Options{UseLLM: true, Guard: guard})
		if strings.HasPrefix(eval.Reasoning[topic.ComponentAudience], "LLM:") {
			llmScored++
		}
	}

	if llmScored != 5 {
		t.Fatalf("budget of $0.01 should admit exactly 5 llm-scored topics, got %d", llmScored)
	}
	if !guard.Exceeded() {
		t.Fatal("guard should report the budget as exhausted")
	}
}
