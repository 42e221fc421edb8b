package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/kojohq/topicscope/pkg/audit"
	"github.com/kojohq/topicscope/pkg/jobs"
	"github.com/kojohq/topicscope/pkg/review"
	"github.com/kojohq/topicscope/pkg/store"
	"github.com/kojohq/topicscope/pkg/topic"
)

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	type statusCount struct {
		Status topic.Status `json:"status"`
		Count  int          `json:"count"`
	}

	var stats []statusCount
	for _, st := range []topic.Status{topic.StatusPending, topic.StatusApproved, topic.StatusRejected, topic.StatusDeferred} {
		n, err := s.DB.Count(r.Context(), topic.CandidatesCollection,
			[]store.Filter{store.Where("status", store.OpEq, string(st))})
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		stats = append(stats, statusCount{Status: st, Count: n})
	}
	json.NewEncoder(w).Encode(stats)
}

func (s *Server) handleTopics(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	opts := review.BatchOptions{Limit: queryInt(q.Get("limit"), 20)}
	if status := q.Get("status"); status != "" {
		st := topic.Status(status)
		if !st.Valid() {
			http.Error(w, "unknown status "+status, http.StatusBadRequest)
			return
		}
		opts.Status = st
	}
	if min := q.Get("min_score"); min != "" {
		v, err := strconv.ParseFloat(min, 64)
		if err != nil {
			http.Error(w, "bad min_score", http.StatusBadRequest)
			return
		}
		opts.MinScore = &v
	}

	items, err := review.FetchBatch(r.Context(), s.DB, opts)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	type topicEntry struct {
		Rank  int             `json:"rank"`
		Topic topic.Candidate `json:"topic"`
		Score *topic.Score    `json:"score,omitempty"`
	}
	out := make([]topicEntry, 0, len(items))
	for _, it := range items {
		out = append(out, topicEntry{Rank: it.Rank, Topic: it.Topic, Score: it.Score})
	}
	json.NewEncoder(w).Encode(out)
}

func (s *Server) handleAudit(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	events, err := audit.NewTrail(s.DB).ListRecent(r.Context(),
		audit.Stage(q.Get("stage")), q.Get("actor"), queryInt(q.Get("limit"), 20))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if events == nil {
		events = []audit.Event{}
	}
	json.NewEncoder(w).Encode(events)
}

func (s *Server) handleJobs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	runs, err := jobs.NewTracker(s.DB).ListRecent(r.Context(), q.Get("job"), queryInt(q.Get("limit"), 10))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if runs == nil {
		runs = []jobs.Run{}
	}
	json.NewEncoder(w).Encode(runs)
}

func queryInt(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
