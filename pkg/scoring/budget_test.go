package scoring

import (
	"math"
	"testing"
)

func TestCostGuardAdmitsWithinBudget(t *testing.T) {
	g := NewCostGuard(0.01)

	// Two calls per topic at the default estimate: five topics fit.
	calls := 0
	for g.CanSpend() {
		calls++
		if calls > 100 {
			t.Fatal("guard never latched")
		}
	}
	if calls != 10 {
		t.Fatalf("expected 10 admitted calls (5 topics), got %d", calls)
	}
	if !g.Exceeded() {
		t.Fatal("guard should report exceeded after refusing")
	}
}

func TestCostGuardLatches(t *testing.T) {
	g := NewCostGuard(0.001)

	if !g.CanSpend() {
		t.Fatal("first call should fit in budget")
	}
	if g.CanSpend() {
		t.Fatal("second call should be refused")
	}
	// Refusal latches even though nothing more was charged.
	if g.CanSpend() {
		t.Fatal("guard must stay shut after first refusal")
	}
}

func TestCostGuardZeroBudget(t *testing.T) {
	g := NewCostGuard(0)
	if g.CanSpend() {
		t.Fatal("zero budget should refuse immediately")
	}
	if !g.Exceeded() {
		t.Fatal("zero budget guard should report exceeded")
	}
}

func TestCostGuardEstimateAheadPerTopic(t *testing.T) {
	g := NewCostGuard(0.01)

	topics := 0
	for g.CanScoreTopic() {
		g.CanSpend()
		g.CanSpend()
		topics++
		if topics > 100 {
			t.Fatal("guard never latched")
		}
	}
	if topics != 5 {
		t.Fatalf("expected 5 fully scored topics, got %d", topics)
	}
	if !g.Exceeded() {
		t.Fatal("guard should report exceeded after the topic check refuses")
	}
	// Refusal latches the per-call path too.
	if g.CanSpend() {
		t.Fatal("per-call check must stay shut after the topic check latched")
	}
}

func TestCostGuardTracksActualSpend(t *testing.T) {
	g := NewCostGuard(0.01)
	g.CanSpend()
	g.Charge(0.0004)
	g.Charge(0.0005)

	if math.Abs(g.Spent()-0.0009) > 1e-12 {
		t.Fatalf("spent = %v, want 0.0009", g.Spent())
	}
}

func TestCostGuardActualOverrunStops(t *testing.T) {
	g := NewCostGuard(0.01)
	g.CanSpend()
	// A surprise expensive call blows past the ceiling.
	g.Charge(0.02)

	if g.CanSpend() {
		t.Fatal("guard should refuse once actual spend exceeds the ceiling")
	}
}
