package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zhouzirui/soothe/backend/internal/model/chat"
	"github.com/zhouzirui/soothe/backend/internal/model/mood"
)

// MemoryStore keeps everything in process memory. Useful for tests and local runs.
type MemoryStore struct {
	mu       sync.RWMutex
	users    map[string]chat.User
	messages map[string][]chat.LogEntry
	moods    map[string]map[string]mood.Entry
	now      func() time.Time
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    make(map[string]chat.User),
		messages: make(map[string][]chat.LogEntry),
		moods:    make(map[string]map[string]mood.Entry),
		now:      time.Now,
	}
}

func (s *MemoryStore) UpsertUser(_ context.Context, userID string, displayName *string) error {
	if err := validateUser(userID); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok {
		user = chat.User{ID: userID, CreatedAt: s.now().UTC()}
	}
	if displayName != nil {
		name := *displayName
		user.DisplayName = &name
	}
	s.users[userID] = user
	return nil
}

// User returns the stored profile, if any.
func (s *MemoryStore) User(userID string) (chat.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[userID]
	return user, ok
}

func (s *MemoryStore) LogMessage(_ context.Context, userID string, role chat.Role, content string) error {
	if err := validateUser(userID); err != nil {
		return err
	}

	entry := chat.LogEntry{
		ID:        uuid.NewString(),
		UserID:    userID,
		Role:      role,
		Content:   content,
		CreatedAt: s.now().UTC(),
	}

	s.mu.Lock()
	s.messages[userID] = append(s.messages[userID], entry)
	s.mu.Unlock()
	return nil
}

// Messages returns the newest limit entries in chronological order; limit <= 0 returns all.
func (s *MemoryStore) Messages(_ context.Context, userID string, limit int) ([]chat.LogEntry, error) {
	if err := validateUser(userID); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := s.messages[userID]
	start := 0
	if limit > 0 && len(entries) > limit {
		start = len(entries) - limit
	}

	copied := make([]chat.LogEntry, len(entries)-start)
	copy(copied, entries[start:])
	return copied, nil
}

func (s *MemoryStore) LogMood(_ context.Context, entry mood.Entry) error {
	if err := validateMood(entry); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	byDate, ok := s.moods[entry.UserID]
	if !ok {
		byDate = make(map[string]mood.Entry)
		s.moods[entry.UserID] = byDate
	}
	byDate[entry.Date] = entry
	return nil
}

func (s *MemoryStore) FetchMoodSeries(_ context.Context, userID string, limitDays int) ([]mood.Point, error) {
	if err := validateUser(userID); err != nil {
		return nil, err
	}

	s.mu.RLock()
	points := make([]mood.Point, 0, len(s.moods[userID]))
	for _, entry := range s.moods[userID] {
		points = append(points, mood.Point{Date: entry.Date, Value: entry.Value})
	}
	s.mu.RUnlock()

	// ISO dates sort lexicographically.
	sort.Slice(points, func(i, j int) bool { return points[i].Date < points[j].Date })

	limit := seriesLimit(limitDays)
	if len(points) > limit {
		points = points[len(points)-limit:]
	}
	return points, nil
}

func (s *MemoryStore) Close() error {
	return nil
}
