// Package store persists chat sessions and bookmarks.
//
// SQLite is the primary backend. Memory is used when the database cannot be
// opened, and by tests.
package store

import (
	"context"
	"time"

	"github.com/comigor/econlux-go/internal/conversation"
)

// Session is the persisted message history of one conversation.
type Session struct {
	ID        string                 `json:"session_id"`
	History   []conversation.Message `json:"history"`
	CreatedAt time.Time              `json:"created_at"`
	UpdatedAt time.Time              `json:"updated_at"`
}

// Bookmark is a saved dashboard widget.
type Bookmark struct {
	ID        string    `json:"bookmark_id"`
	Title     string    `json:"title"`
	WidgetID  string    `json:"widget_id"`
	CreatedAt time.Time `json:"created_at"`
}

// SessionStore loads and saves session histories. FindSession returns
// (nil, nil) when the session does not exist.
type SessionStore interface {
	FindSession(ctx context.Context, id string) (*Session, error)
	UpsertSession(ctx context.Context, id string, history []conversation.Message, updatedAt time.Time) error
}

// BookmarkStore saves and lists bookmarks, newest first.
type BookmarkStore interface {
	SaveBookmark(ctx context.Context, b Bookmark) error
	ListBookmarks(ctx context.Context) ([]Bookmark, error)
}

// Store is everything the application persists.
type Store interface {
	SessionStore
	BookmarkStore
	Close() error
}
