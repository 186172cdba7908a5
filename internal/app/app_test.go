package app

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comigor/econlux-go/internal/config"
	"github.com/comigor/econlux-go/internal/logger"
	"github.com/comigor/econlux-go/internal/store"
	"github.com/comigor/econlux-go/pkg/tools"
)

func TestProviders(t *testing.T) {
	logger.Discard()

	assert.Empty(t, providers(config.MarketConfig{}))

	got := providers(config.MarketConfig{
		ECOSAPIKey:   "key",
		ECOSBaseURL:  "https://ecos.example.com/api",
		ECOSSeries:   map[string]string{"POLICY_RATE": "722Y001/M/0101000"},
		YahooEnabled: true,
	})
	require.Len(t, got, 2)
	assert.Equal(t, "한국은행 ECOS", got[0].Name())
	assert.Equal(t, "Yahoo Finance", got[1].Name())

	got = providers(config.MarketConfig{ECOSAPIKey: "key", ECOSSeries: map[string]string{"X": "broken"}})
	assert.Empty(t, got, "misconfigured ECOS is skipped")
}

func TestNew(t *testing.T) {
	logger.Discard()
	dir := t.TempDir()
	cfg := &config.Config{
		App:     config.AppConfig{Name: "econlux", APIPrefix: "/v1"},
		LLM:     config.LLMConfig{Model: "gpt", RetryAttempts: 2},
		Store:   config.StoreConfig{Path: filepath.Join(dir, "econlux.db")},
		Reports: config.ReportsConfig{Dir: filepath.Join(dir, "reports")},
	}

	a, err := New(cfg)
	require.NoError(t, err)
	defer a.Close()

	assert.IsType(t, &store.SQLite{}, a.Store)
	assert.Len(t, a.Tools.List(), 6)
	assert.NotNil(t, a.Service)

	_, err = a.Service.Session(context.Background(), "none")
	assert.Error(t, err)

	res, err := a.Tools.Execute(context.Background(), "render_report", json.RawMessage(`{"title":"주간 리포트","widget_ids":[]}`))
	require.NoError(t, err)
	report, ok := res.(*tools.ReportResult)
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(report.DownloadURL, "/v1/reports/download/report_"), report.DownloadURL)
}
