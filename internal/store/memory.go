package store

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/comigor/econlux-go/internal/conversation"
)

// Memory is a process-local Store.
type Memory struct {
	mu        sync.Mutex
	sessions  map[string]*Session
	bookmarks []Bookmark
}

func NewMemory() *Memory {
	return &Memory{sessions: make(map[string]*Session)}
}

func (m *Memory) Close() error { return nil }

func (m *Memory) FindSession(_ context.Context, id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, nil
	}
	cp := *s
	cp.History = slices.Clone(s.History)
	return &cp, nil
}

func (m *Memory) UpsertSession(_ context.Context, id string, history []conversation.Message, updatedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		s = &Session{ID: id, CreatedAt: updatedAt}
		m.sessions[id] = s
	}
	s.History = slices.Clone(history)
	s.UpdatedAt = updatedAt
	return nil
}

func (m *Memory) SaveBookmark(_ context.Context, b Bookmark) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bookmarks = append(m.bookmarks, b)
	return nil
}

func (m *Memory) ListBookmarks(_ context.Context) ([]Bookmark, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := slices.Clone(m.bookmarks)
	slices.SortStableFunc(out, func(a, b Bookmark) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	if out == nil {
		out = []Bookmark{}
	}
	return out, nil
}
