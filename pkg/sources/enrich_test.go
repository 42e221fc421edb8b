package sources

import (
	"reflect"
	"sort"
	"testing"
)

func TestExtractEntities(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  []string
	}{
		{"company", "Google announces new datacenter", []string{"Google"}},
		{"model and company", "OpenAI ships GPT-4 update", []string{"OpenAI", "GPT-4"}},
		{"case insensitive", "nvidia shares rally again", []string{"NVIDIA"}},
		{"none", "Local bakery wins award", nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := ExtractEntities(tc.title)
			sort.Strings(got)
			want := append([]string(nil), tc.want...)
			sort.Strings(want)
			if !reflect.DeepEqual(got, want) {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestExtractEntitiesDeduplicates(t *testing.T) {
	got := ExtractEntities("Claude vs Claude benchmark")
	count := 0
	for _, e := range got {
		if e == "Claude" {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("expected Claude once, got %v", got)
	}
}

func TestClusterTopic(t *testing.T) {
	tests := []struct {
		name     string
		title    string
		entities []string
		want     string
	}{
		{"ai keywords", "New LLM infrastructure for deep learning", nil, "ai-infra"},
		{"business keywords", "Startup IPO shakes the market", nil, "business-socioeconomic"},
		{"music keywords", "Grammy award for viral album", nil, "culture-music"},
		{"industry keywords", "Insurance compliance rules tighten", nil, "applied-industry"},
		{"entities contribute", "Benchmarks released", []string{"GPT-4", "Claude"}, "ai-infra"},
		{"no match falls back", "Weather was nice today", nil, "business-socioeconomic"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := ClusterTopic(tc.title, tc.entities); got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}
