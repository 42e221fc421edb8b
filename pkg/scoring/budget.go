package scoring

import "sync"

// DefaultPerTopicEstimate is the projected LLM cost of scoring one
// topic (two gpt-4o-mini calls).
const DefaultPerTopicEstimate = 0.002

// CostGuard enforces a per-run ceiling on LLM spend. Each call must
// reserve its estimated cost up front; once the projection would cross
// the ceiling the guard latches shut and the rest of the run falls
// back to keyword scoring. With the default estimate, a $0.01 budget
// admits at most five fully LLM-scored topics.
type CostGuard struct {
	mu       sync.Mutex
	ceiling  float64
	perCall  float64
	reserved float64
	spent    float64
	stopped  bool
}

// NewCostGuard builds a guard with the given ceiling in USD. A zero or
// negative ceiling disables LLM spend entirely.
func NewCostGuard(ceilingUSD float64) *CostGuard {
	return &CostGuard{ceiling: ceilingUSD, perCall: DefaultPerTopicEstimate / 2}
}

// CanSpend reserves budget for one more LLM call. The first refusal
// latches: later calls do not reopen the budget.
func (g *CostGuard) CanSpend() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.stopped {
		return false
	}
	projected := g.reserved + g.perCall
	if g.spent+g.perCall > projected {
		projected = g.spent + g.perCall
	}
	if projected > g.ceiling {
		g.stopped = true
		return false
	}
	g.reserved += g.perCall
	return true
}

// CanScoreTopic is the estimate-ahead check for one more fully
// LLM-scored topic (both calls). It reserves nothing, so a run loop
// can stop before a topic whose calls would not fit. A refusal
// latches, same as CanSpend.
func (g *CostGuard) CanScoreTopic() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.stopped {
		return false
	}
	perTopic := 2 * g.perCall
	projected := g.reserved + perTopic
	if g.spent+perTopic > projected {
		projected = g.spent + perTopic
	}
	if projected > g.ceiling {
		g.stopped = true
		return false
	}
	return true
}

// Charge records actual spend after an LLM call.
func (g *CostGuard) Charge(costUSD float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.spent += costUSD
}

// Spent returns the accumulated actual spend in USD.
func (g *CostGuard) Spent() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.spent
}

// Exceeded reports whether the guard has shut off LLM scoring.
func (g *CostGuard) Exceeded() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.stopped
}
