package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lithammer/shortuuid/v4"
	"github.com/sashabaranov/go-openai/jsonschema"

	"github.com/comigor/econlux-go/internal/store"
)

type BookmarkArgs struct {
	Title    string `json:"title"`
	WidgetID string `json:"widget_id"`
}

func (a *BookmarkArgs) Validate() error {
	if strings.TrimSpace(a.Title) == "" {
		return errors.New("title is required")
	}
	if strings.TrimSpace(a.WidgetID) == "" {
		return errors.New("widget_id is required")
	}
	return nil
}

type BookmarkResult struct {
	Success    bool   `json:"success"`
	BookmarkID string `json:"bookmark_id"`
	Message    string `json:"message"`
}

func NewBookmarkTool(bookmarks store.BookmarkStore, now func() time.Time) Tool {
	if now == nil {
		now = time.Now
	}
	return New("save_bookmark",
		"위젯을 북마크에 저장합니다",
		jsonschema.Definition{
			Type: jsonschema.Object,
			Properties: map[string]jsonschema.Definition{
				"title":     {Type: jsonschema.String, Description: "북마크 제목"},
				"widget_id": {Type: jsonschema.String, Description: "위젯 ID"},
			},
			Required: []string{"title", "widget_id"},
		},
		func(ctx context.Context, args BookmarkArgs) (*BookmarkResult, error) {
			b := store.Bookmark{
				ID:        "bm_" + shortuuid.New(),
				Title:     args.Title,
				WidgetID:  args.WidgetID,
				CreatedAt: now(),
			}
			if bookmarks != nil {
				if err := bookmarks.SaveBookmark(ctx, b); err != nil {
					return nil, fmt.Errorf("save bookmark: %w", err)
				}
			}
			return &BookmarkResult{
				Success:    true,
				BookmarkID: b.ID,
				Message:    fmt.Sprintf("'%s' 북마크가 저장되었습니다.", args.Title),
			}, nil
		})
}
