package memory

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const DefaultShortTermSize = 10

// topicKeywords is the fixed vocabulary scanned against user questions to
// grow long-term topics.
var topicKeywords = []string{
	"space", "math", "science", "art", "music", "animals", "sports",
	"reading", "coding", "history", "geography",
}

// FileStore persists a single user's memory snapshot to a JSON file. One
// store owns one file; concurrent sessions must use distinct paths. The
// mutex serializes writers within the process.
//
// Persistence failures are returned to the caller but never roll back the
// in-memory state, so a session can continue in a degraded, non-durable mode.
type FileStore struct {
	mu           sync.Mutex
	path         string
	maxShortTerm int
	snap         snapshot
}

// NewFileStore loads the snapshot at path, or starts a fresh one if the file
// does not exist yet.
func NewFileStore(path string, maxShortTerm int) (*FileStore, error) {
	if maxShortTerm <= 0 {
		maxShortTerm = DefaultShortTermSize
	}

	s := &FileStore{
		path:         path,
		maxShortTerm: maxShortTerm,
		snap:         newSnapshot(),
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read memory file: %w", err)
	}

	if err := json.Unmarshal(data, &s.snap); err != nil {
		return nil, fmt.Errorf("failed to parse memory file %s: %w", path, err)
	}
	if s.snap.ShortTerm == nil {
		s.snap.ShortTerm = []Interaction{}
	}
	if s.snap.LongTerm.TopicsDiscussed == nil {
		s.snap.LongTerm.TopicsDiscussed = []string{}
	}

	return s, nil
}

// persist writes the snapshot via a temp file and rename so a crashed write
// never truncates the previous snapshot. Caller must hold the mutex.
func (s *FileStore) persist() error {
	data, err := json.MarshalIndent(s.snap, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal memory snapshot: %w", err)
	}

	dir := filepath.Dir(s.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create memory dir: %w", err)
		}
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write memory file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace memory file: %w", err)
	}
	return nil
}

// SetConsent flips the consent gate. Revoking consent blocks further profile
// writes but does not erase already-stored fields; erasing is the explicit
// ClearAll operation.
func (s *FileStore) SetConsent(consent bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snap.UserProfile.ConsentGiven = consent
	return s.persist()
}

// SetProfile merges the non-nil fields of update into the profile. It
// returns false without touching anything when consent has not been given.
// The error reports persistence trouble only.
func (s *FileStore) SetProfile(update ProfileUpdate) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.snap.UserProfile.ConsentGiven {
		return false, nil
	}

	if update.Name != nil {
		s.snap.UserProfile.Name = *update.Name
	}
	if update.Age != nil {
		s.snap.UserProfile.Age = *update.Age
	}
	if update.FavoriteColor != nil {
		s.snap.UserProfile.FavoriteColor = *update.FavoriteColor
	}
	if update.FavoriteSubject != nil {
		s.snap.UserProfile.FavoriteSubject = *update.FavoriteSubject
	}

	return true, s.persist()
}

// AddInteraction appends a completed turn to the short-term window, evicting
// the oldest entry past capacity, runs one topic-extraction pass over the
// question, bumps the counters and persists the snapshot synchronously.
func (s *FileStore) AddInteraction(emotion, question, response string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	s.snap.ShortTerm = append(s.snap.ShortTerm, Interaction{
		Timestamp: now,
		Emotion:   emotion,
		Question:  question,
		Response:  response,
	})
	if len(s.snap.ShortTerm) > s.maxShortTerm {
		s.snap.ShortTerm = s.snap.ShortTerm[len(s.snap.ShortTerm)-s.maxShortTerm:]
	}

	s.snap.Metadata.TotalInteractions++
	s.snap.Metadata.LastInteraction = &now

	s.extractTopics(question)

	return s.persist()
}

// extractTopics grows the deduplicated long-term topic set. It never removes
// entries. Caller must hold the mutex.
func (s *FileStore) extractTopics(question string) {
	lower := strings.ToLower(question)
	for _, keyword := range topicKeywords {
		if !strings.Contains(lower, keyword) {
			continue
		}
		known := false
		for _, topic := range s.snap.LongTerm.TopicsDiscussed {
			if topic == keyword {
				known = true
				break
			}
		}
		if !known {
			s.snap.LongTerm.TopicsDiscussed = append(s.snap.LongTerm.TopicsDiscussed, keyword)
		}
	}
}

// Context returns the personalization fields for prompt composition:
// profile fields gated on consent plus the three most recently added
// long-term topics.
func (s *FileStore) Context() Context {
	s.mu.Lock()
	defer s.mu.Unlock()

	var ctx Context
	if s.snap.UserProfile.ConsentGiven {
		ctx.Name = s.snap.UserProfile.Name
		ctx.FavoriteColor = s.snap.UserProfile.FavoriteColor
		ctx.FavoriteSubject = s.snap.UserProfile.FavoriteSubject
	}

	topics := s.snap.LongTerm.TopicsDiscussed
	if len(topics) > 3 {
		topics = topics[len(topics)-3:]
	}
	if len(topics) > 0 {
		ctx.RecentTopics = append([]string(nil), topics...)
	}

	return ctx
}

// Recent returns the last n interactions, most recent last.
func (s *FileStore) Recent(n int) []Interaction {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.snap.ShortTerm
	if n >= 0 && len(items) > n {
		items = items[len(items)-n:]
	}
	return append([]Interaction(nil), items...)
}

// Profile returns a copy of the stored profile.
func (s *FileStore) Profile() Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap.UserProfile
}

// ClearShortTerm empties the conversation window. Long-term topics and the
// profile are untouched.
func (s *FileStore) ClearShortTerm() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snap.ShortTerm = []Interaction{}
	return s.persist()
}

// ClearAll irreversibly resets the whole snapshot, consent included.
func (s *FileStore) ClearAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snap = newSnapshot()
	return s.persist()
}

// Stats summarizes the current snapshot.
func (s *FileStore) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Stats{
		TotalInteractions: s.snap.Metadata.TotalInteractions,
		ShortTermCount:    len(s.snap.ShortTerm),
		TopicsCount:       len(s.snap.LongTerm.TopicsDiscussed),
		HasConsent:        s.snap.UserProfile.ConsentGiven,
		LastInteraction:   s.snap.Metadata.LastInteraction,
	}
}
