// Package app assembles the runtime graph shared by the CLI commands.
package app

import (
	"io"

	"github.com/comigor/econlux-go/internal/agent"
	"github.com/comigor/econlux-go/internal/config"
	"github.com/comigor/econlux-go/internal/llm"
	"github.com/comigor/econlux-go/internal/logger"
	"github.com/comigor/econlux-go/internal/store"
	"github.com/comigor/econlux-go/pkg/tools"
)

// App holds the wired components.
type App struct {
	Config  *config.Config
	Store   store.Store
	Tools   *tools.ToolManager
	Service *agent.Service
}

// New wires the application from cfg. Optional data providers that fail to
// configure are skipped with a warning; series then come from mock data.
func New(cfg *config.Config) (*App, error) {
	st := store.Open(cfg.Store.Path)

	tm, err := tools.NewCatalog(tools.Options{
		Series:    tools.NewSeriesService(nil, providers(cfg.Market)...),
		Bookmarks: st,
		Reports:   tools.NewReportRenderer(cfg.Reports.Dir, nil).WithDownloadPrefix(cfg.App.APIPrefix + "/reports/download/"),
	})
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	client := llm.NewClient(cfg.LLM)
	a := agent.New(client, cfg.LLM, tm)
	svc := agent.NewService(a, st, llm.NewRetrier(client, cfg.LLM.RetryAttempts), cfg.LLM)

	return &App{Config: cfg, Store: st, Tools: tm, Service: svc}, nil
}

// Close releases the store.
func (a *App) Close() error {
	return a.Store.Close()
}

func providers(cfg config.MarketConfig) []tools.SeriesProvider {
	var out []tools.SeriesProvider
	if cfg.ECOSAPIKey != "" {
		p, err := tools.NewECOSProvider(cfg.ECOSBaseURL, cfg.ECOSAPIKey, cfg.ECOSSeries)
		if err != nil {
			logger.L.Warn("ECOS provider disabled", "error", err)
		} else {
			out = append(out, p)
		}
	}
	if cfg.YahooEnabled {
		out = append(out, tools.NewYahooProvider(tools.DefaultYahooSymbols))
	}
	return out
}

// SetupLogging points the process logger at w with the format and level of
// cfg.
func SetupLogging(w io.Writer, cfg config.LogConfig) {
	logger.Setup(w, cfg.Format)
	logger.SetLevel(cfg.Level)
}
