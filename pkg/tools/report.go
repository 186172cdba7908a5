package tools

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lithammer/shortuuid/v4"
	"github.com/sashabaranov/go-openai/jsonschema"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// DefaultReportDownloadPrefix is the URL path under which rendered reports
// are served when the API is mounted at /api.
const DefaultReportDownloadPrefix = "/api/reports/download/"

type ReportArgs struct {
	Title     string   `json:"title"`
	WidgetIDs []string `json:"widget_ids"`
}

func (a *ReportArgs) Validate() error {
	if strings.TrimSpace(a.Title) == "" {
		return errors.New("title is required")
	}
	if a.WidgetIDs == nil {
		return errors.New("widget_ids is required")
	}
	return nil
}

type ReportResult struct {
	Success     bool   `json:"success"`
	ReportID    string `json:"report_id"`
	Title       string `json:"title"`
	WidgetCount int    `json:"widget_count"`
	FilePath    string `json:"file_path"`
	DownloadURL string `json:"download_url"`
	Message     string `json:"message"`
}

// ReportRenderer writes HTML reports into a directory.
type ReportRenderer struct {
	dir    string
	prefix string
	md     goldmark.Markdown
	now    func() time.Time
}

func NewReportRenderer(dir string, now func() time.Time) *ReportRenderer {
	if now == nil {
		now = time.Now
	}
	return &ReportRenderer{
		dir:    dir,
		prefix: DefaultReportDownloadPrefix,
		md:     goldmark.New(goldmark.WithExtensions(extension.GFM)),
		now:    now,
	}
}

// WithDownloadPrefix sets the URL path download links are built under.
func (r *ReportRenderer) WithDownloadPrefix(prefix string) *ReportRenderer {
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	r.prefix = prefix
	return r
}

// Dir is the directory reports are written to.
func (r *ReportRenderer) Dir() string { return r.dir }

// ReportFileName derives the file name of a report from its id, title and
// date. Characters that are unsafe in paths or URLs become underscores.
func ReportFileName(id, title string, at time.Time) string {
	slug := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '/', '\\', ':', '*', '?', '"', '<', '>', '|', '#', '%', '&', '+':
			return '_'
		}
		return r
	}, strings.TrimSpace(title))
	return fmt.Sprintf("%s_%s_%s.html", id, slug, at.Format("20060102"))
}

// Render writes the report and returns its descriptor.
func (r *ReportRenderer) Render(args ReportArgs) (*ReportResult, error) {
	now := r.now()

	var src bytes.Buffer
	fmt.Fprintf(&src, "# %s\n\n", args.Title)
	fmt.Fprintf(&src, "- 생성일: %s\n- 위젯 수: %d\n\n", now.Format("2006-01-02 15:04"), len(args.WidgetIDs))
	if len(args.WidgetIDs) > 0 {
		src.WriteString("## 포함된 위젯\n\n| # | 위젯 ID |\n|---|---|\n")
		for i, id := range args.WidgetIDs {
			fmt.Fprintf(&src, "| %d | `%s` |\n", i+1, id)
		}
	}

	var body bytes.Buffer
	if err := r.md.Convert(src.Bytes(), &body); err != nil {
		return nil, fmt.Errorf("render report markdown: %w", err)
	}

	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create reports dir: %w", err)
	}
	id := "report_" + shortuuid.New()
	name := ReportFileName(id, args.Title, now)
	path := filepath.Join(r.dir, name)

	var doc bytes.Buffer
	fmt.Fprintf(&doc, "<!DOCTYPE html>\n<html lang=\"ko\">\n<head><meta charset=\"utf-8\"><title>%s</title></head>\n<body>\n",
		html.EscapeString(args.Title))
	doc.Write(body.Bytes())
	doc.WriteString("</body>\n</html>\n")
	if err := os.WriteFile(path, doc.Bytes(), 0o644); err != nil {
		return nil, fmt.Errorf("write report: %w", err)
	}

	return &ReportResult{
		Success:     true,
		ReportID:    id,
		Title:       args.Title,
		WidgetCount: len(args.WidgetIDs),
		FilePath:    path,
		DownloadURL: r.prefix + url.PathEscape(name),
		Message:     fmt.Sprintf("리포트 '%s'가 생성되었습니다.", args.Title),
	}, nil
}

func NewReportTool(r *ReportRenderer) Tool {
	return New("render_report",
		"선택한 위젯들로 리포트를 생성합니다",
		jsonschema.Definition{
			Type: jsonschema.Object,
			Properties: map[string]jsonschema.Definition{
				"title": {Type: jsonschema.String, Description: "리포트 제목"},
				"widget_ids": {
					Type:        jsonschema.Array,
					Items:       &jsonschema.Definition{Type: jsonschema.String},
					Description: "포함할 위젯 ID 목록",
				},
			},
			Required: []string{"title", "widget_ids"},
		},
		func(_ context.Context, args ReportArgs) (*ReportResult, error) {
			return r.Render(args)
		})
}
