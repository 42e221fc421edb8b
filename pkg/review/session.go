package review

import (
	"encoding/json"
	"os"
	"sync"
	"time"

	"github.com/kojohq/topicscope/internal/utils"
)

// DefaultSessionFile is where review progress is saved in the working
// directory.
const DefaultSessionFile = ".topicscope_session.json"

// autosaveEvery triggers a save after this many processed items.
const autosaveEvery = 10

// Session tracks progress through a review so an interrupted run can
// resume without re-presenting already handled topics. Methods are
// safe for concurrent use; the interrupt handler saves from its own
// goroutine while the review loop keeps recording.
type Session struct {
	Workflow     string         `json:"workflow"`
	ProcessedIDs []string       `json:"processed_ids"`
	Stats        map[string]int `json:"stats"`
	LastAction   *Action        `json:"last_action,omitempty"`
	SavedAt      time.Time      `json:"saved_at,omitempty"`

	mu           sync.Mutex
	path         string
	processedSet map[string]struct{}
	sinceSave    int
}

// NewSession starts a fresh session persisted at path.
func NewSession(path string) *Session {
	if path == "" {
		path = DefaultSessionFile
	}
	return &Session{
		Workflow:     "topics",
		Stats:        map[string]int{"approved": 0, "rejected": 0, "deferred": 0, "skipped": 0},
		path:         path,
		processedSet: map[string]struct{}{},
	}
}

// LoadSession restores a saved session. A missing file yields a fresh
// session rather than an error.
func LoadSession(path string) (*Session, error) {
	s := NewSession(path)

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, s); err != nil {
		return nil, err
	}

	if s.Stats == nil {
		s.Stats = map[string]int{}
	}
	s.processedSet = make(map[string]struct{}, len(s.ProcessedIDs))
	for _, id := range s.ProcessedIDs {
		s.processedSet[id] = struct{}{}
	}
	return s, nil
}

// Save writes the session file.
func (s *Session) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save()
}

func (s *Session) save() error {
	s.SavedAt = time.Now().UTC()
	s.sinceSave = 0

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o644)
}

// Remove deletes the session file after a completed review.
func (s *Session) Remove() {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		utils.Log.Warnf("could not remove session file %s: %v", s.path, err)
	}
}

// Processed reports whether the topic was already handled.
func (s *Session) Processed(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.processedSet[id]
	return ok
}

// RecordAction registers an applied decision, keeps it for undo, and
// autosaves every few items.
func (s *Session) RecordAction(action *Action) {
	if action == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.markProcessed(action.TopicID)
	s.Stats[string(action.NewStatus)]++
	s.LastAction = action
	s.autosave()
}

// RecordSkip counts a skipped topic without marking it processed, so
// it reappears next session.
func (s *Session) RecordSkip() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Stats["skipped"]++
}

// UndoLast returns the action to revert and forgets it. Undo is one
// level deep: a second call returns nil.
func (s *Session) UndoLast() *Action {
	s.mu.Lock()
	defer s.mu.Unlock()

	action := s.LastAction
	if action == nil {
		return nil
	}
	s.LastAction = nil
	s.Stats[string(action.NewStatus)]--
	delete(s.processedSet, action.TopicID)
	for i, id := range s.ProcessedIDs {
		if id == action.TopicID {
			s.ProcessedIDs = append(s.ProcessedIDs[:i], s.ProcessedIDs[i+1:]...)
			break
		}
	}
	return action
}

func (s *Session) markProcessed(id string) {
	if _, ok := s.processedSet[id]; ok {
		return
	}
	s.processedSet[id] = struct{}{}
	s.ProcessedIDs = append(s.ProcessedIDs, id)
}

func (s *Session) autosave() {
	s.sinceSave++
	if s.sinceSave < autosaveEvery {
		return
	}
	if err := s.save(); err != nil {
		utils.Log.Warnf("session autosave failed: %v", err)
	}
}
