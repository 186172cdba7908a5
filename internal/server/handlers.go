package server

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v5"

	"github.com/comigor/econlux-go/internal/agent"
	"github.com/comigor/econlux-go/internal/logger"
	"github.com/comigor/econlux-go/internal/market"
	"github.com/comigor/econlux-go/internal/store"
	"github.com/comigor/econlux-go/pkg/tools"
)

const maxBookmarks = 50

type qaRequest struct {
	Question string `json:"question"`
	Context  string `json:"context,omitempty"`
}

type newsResponse struct {
	Items []market.NewsItem `json:"items"`
}

type briefingResponse struct {
	SessionID string            `json:"session_id"`
	Briefing  *agent.TurnResult `json:"briefing"`
}

func (s *Server) root(c *echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"app":    s.cfg.App.Name,
		"status": "running",
	})
}

func (s *Server) health(c *echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status":    "ok",
		"app_name":  s.cfg.App.Name,
		"timestamp": s.now().UTC(),
	})
}

func (s *Server) marketKPIs(c *echo.Context) error {
	return c.JSON(http.StatusOK, market.MockKPIs(s.now()))
}

func (s *Server) marketTrends(c *echo.Context) error {
	return c.JSON(http.StatusOK, market.MockTrends(s.now()))
}

func (s *Server) marketNews(c *echo.Context) error {
	return c.JSON(http.StatusOK, newsResponse{Items: market.MockNews()})
}

func (s *Server) marketCalendar(c *echo.Context) error {
	args := tools.CalendarArgs{
		FromDate: c.QueryParam("from_date"),
		ToDate:   c.QueryParam("to_date"),
		Country:  c.QueryParam("country"),
	}
	if err := args.Validate(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, tools.Calendar(args, s.now()))
}

func (s *Server) marketCalendarFeed(c *echo.Context) error {
	now := s.now()
	events := market.MockCalendar(now, c.QueryParam("country"))
	feed, err := market.CalendarFeed(events, s.cfg.App.APIPrefix+"/market/calendar", now)
	if err != nil {
		logger.L.Error("calendar feed failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "캘린더 피드 생성 실패")
	}
	return c.Blob(http.StatusOK, "application/rss+xml; charset=utf-8", []byte(feed))
}

func (s *Server) handleChat(c *echo.Context) error {
	var req agent.ChatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	res, err := s.chat.Chat(c.Request().Context(), req)
	if err != nil {
		return chatError(err, "챗봇 오류가 발생했습니다.")
	}
	return c.JSON(http.StatusOK, res)
}

func (s *Server) handleBriefing(c *echo.Context) error {
	res, err := s.chat.Briefing(c.Request().Context())
	if err != nil {
		return chatError(err, "브리핑 생성 실패")
	}
	return c.JSON(http.StatusOK, briefingResponse{SessionID: res.SessionID, Briefing: res})
}

func (s *Server) getSession(c *echo.Context) error {
	sess, err := s.chat.Session(c.Request().Context(), c.Param("id"))
	if errors.Is(err, agent.ErrSessionNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "세션을 찾을 수 없습니다.")
	}
	if err != nil {
		logger.L.Error("session lookup failed", "session_id", c.Param("id"), "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "세션 조회 실패")
	}
	return c.JSON(http.StatusOK, sess)
}

func (s *Server) handleQAChat(c *echo.Context) error {
	var req qaRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	ans, err := s.chat.Ask(c.Request().Context(), req.Question, req.Context)
	if err != nil {
		return chatError(err, "응답 생성 실패")
	}
	return c.JSON(http.StatusOK, ans)
}

func (s *Server) handleQASummary(c *echo.Context) error {
	var req qaRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	ans, err := s.chat.Summarize(c.Request().Context(), req.Question, req.Context)
	if err != nil {
		return chatError(err, "요약 생성 실패")
	}
	return c.JSON(http.StatusOK, ans)
}

// chatError maps input rejections to 400 and hides everything else behind
// a generic 500.
func chatError(err error, message string) error {
	if errors.Is(err, agent.ErrUnsafeInput) || errors.Is(err, agent.ErrEmptyMessage) {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	logger.L.Error("request failed", "error", err)
	return echo.NewHTTPError(http.StatusInternalServerError, message)
}

func (s *Server) listBookmarks(c *echo.Context) error {
	out := []store.Bookmark{}
	if s.bookmarks != nil {
		list, err := s.bookmarks.ListBookmarks(c.Request().Context())
		if err != nil {
			logger.L.Error("list bookmarks failed", "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "북마크 조회 실패")
		}
		out = append(out, list...)
	}
	if len(out) > maxBookmarks {
		out = out[:maxBookmarks]
	}
	return c.JSON(http.StatusOK, map[string]any{"bookmarks": out})
}

func (s *Server) downloadReport(c *echo.Context) error {
	name := c.Param("name")
	if name == "" || filepath.Base(name) != name || strings.HasPrefix(name, ".") {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid report name")
	}
	data, err := os.ReadFile(filepath.Join(s.reportsDir, name))
	if errors.Is(err, os.ErrNotExist) {
		return echo.NewHTTPError(http.StatusNotFound, "리포트를 찾을 수 없습니다.")
	}
	if err != nil {
		logger.L.Error("read report failed", "name", name, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "리포트 다운로드 실패")
	}
	c.Response().Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	return c.Blob(http.StatusOK, "text/html; charset=utf-8", data)
}
