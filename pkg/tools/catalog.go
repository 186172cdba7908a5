package tools

import (
	"time"

	"github.com/comigor/econlux-go/internal/store"
)

// Options are the collaborators of the default catalog.
type Options struct {
	Series    *SeriesService
	Bookmarks store.BookmarkStore
	Reports   *ReportRenderer
	Now       func() time.Time
}

// NewCatalog builds the six dashboard tools in their advertised order.
func NewCatalog(opts Options) (*ToolManager, error) {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Series == nil {
		opts.Series = NewSeriesService(opts.Now)
	}
	if opts.Reports == nil {
		opts.Reports = NewReportRenderer("reports", opts.Now)
	}
	return NewToolManager(
		NewSeriesTool(opts.Series),
		NewChartTool(opts.Now),
		NewCalendarTool(opts.Now),
		NewWhatIfTool(),
		NewBookmarkTool(opts.Bookmarks, opts.Now),
		NewReportTool(opts.Reports),
	)
}
