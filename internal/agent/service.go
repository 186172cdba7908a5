package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sashabaranov/go-openai"

	"github.com/comigor/econlux-go/internal/config"
	"github.com/comigor/econlux-go/internal/conversation"
	"github.com/comigor/econlux-go/internal/llm"
	"github.com/comigor/econlux-go/internal/logger"
	"github.com/comigor/econlux-go/internal/store"
)

// Input limits, in characters.
const (
	MaxMessageRunes = 2000
	MaxContextRunes = 5000

	// HistoryWindow is the number of stored messages replayed to the model.
	HistoryWindow = 10
)

// ErrSessionNotFound is returned by Session for unknown ids.
var ErrSessionNotFound = errors.New("session not found")

// ChatRequest is one user turn.
type ChatRequest struct {
	SessionID string `json:"session_id,omitempty"`
	Message   string `json:"message"`
	AutoBrief bool   `json:"auto_brief"`
}

// TurnResult is what a chat turn returns to the caller. Exhausted is set
// when the tool round limit ended the turn before a final answer.
type TurnResult struct {
	SessionID   string                 `json:"session_id"`
	Messages    []conversation.Message `json:"messages"`
	Widgets     []Widget               `json:"widgets"`
	Suggestions []string               `json:"suggestions"`
	Sources     []Source               `json:"sources"`
	Exhausted   bool                   `json:"exhausted"`
}

// Answer is the reply of the single-shot Q&A paths.
type Answer struct {
	AnswerMD  string    `json:"answer_md"`
	Citations []string  `json:"citations"`
	CreatedAt time.Time `json:"created_at"`
}

// Service runs chat turns with session persistence around the agent loop,
// and the single-shot Q&A generation.
type Service struct {
	agent    *Agent
	sessions store.SessionStore
	qa       llm.Client
	cfg      config.LLMConfig
	now      func() time.Time
}

// NewService wires the service. qa is used for Ask and Summarize and is
// normally a retrying client.
func NewService(a *Agent, sessions store.SessionStore, qa llm.Client, cfg config.LLMConfig) *Service {
	return &Service{agent: a, sessions: sessions, qa: qa, cfg: cfg, now: time.Now}
}

// Chat runs one turn. The stored history is loaded and saved on a best
// effort basis: storage failures are logged and the turn proceeds.
func (s *Service) Chat(ctx context.Context, req ChatRequest) (*TurnResult, error) {
	message := SanitizeInput(req.Message, MaxMessageRunes)
	if req.AutoBrief {
		message = BriefingPrompt
	} else {
		if message == "" {
			return nil, ErrEmptyMessage
		}
		if !IsSafePrompt(message) {
			return nil, ErrUnsafeInput
		}
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	log := logger.L.With("session_id", sessionID)

	stored := s.loadHistory(ctx, sessionID)
	var window []conversation.Message
	if !req.AutoBrief {
		window = conversation.Window(stored, HistoryWindow)
	}

	turn, err := s.agent.Process(ctx, window, message)
	if err != nil {
		log.Error("chat turn failed", "error", err)
		return nil, err
	}

	history := turn.History()
	added := history[len(window):]
	s.saveHistory(ctx, sessionID, append(stored, added...))

	log.Info("chat turn completed", "rounds", turn.Rounds(), "widgets", len(turn.Widgets()), "exhausted", turn.Exhausted())
	widgets := turn.Widgets()
	if widgets == nil {
		widgets = []Widget{}
	}
	return &TurnResult{
		SessionID:   sessionID,
		Messages:    history,
		Widgets:     widgets,
		Suggestions: GenerateSuggestions(message, widgets),
		Sources:     ExtractSources(turn.Results()),
		Exhausted:   turn.Exhausted(),
	}, nil
}

// Briefing runs the auto-briefing prompt under a fresh session.
func (s *Service) Briefing(ctx context.Context) (*TurnResult, error) {
	return s.Chat(ctx, ChatRequest{SessionID: "briefing_" + uuid.NewString(), AutoBrief: true})
}

// Session returns the stored session, or ErrSessionNotFound.
func (s *Service) Session(ctx context.Context, id string) (*store.Session, error) {
	if s.sessions == nil {
		return nil, ErrSessionNotFound
	}
	sess, err := s.sessions.FindSession(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if sess == nil {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

func (s *Service) loadHistory(ctx context.Context, id string) []conversation.Message {
	if s.sessions == nil {
		return nil
	}
	sess, err := s.sessions.FindSession(ctx, id)
	if err != nil {
		logger.L.Warn("session load failed; continuing without history", "session_id", id, "error", err)
		return nil
	}
	if sess == nil {
		return nil
	}
	return sess.History
}

func (s *Service) saveHistory(ctx context.Context, id string, history []conversation.Message) {
	if s.sessions == nil {
		return
	}
	if err := s.sessions.UpsertSession(ctx, id, history, s.now()); err != nil {
		logger.L.Warn("session save skipped", "session_id", id, "error", err)
	}
}

// Ask answers a question in one model call, optionally grounded on context.
func (s *Service) Ask(ctx context.Context, question, contextText string) (*Answer, error) {
	text, err := s.generate(ctx, qaSystemPrompt, question, contextText)
	if err != nil {
		return nil, err
	}
	return &Answer{AnswerMD: text, Citations: []string{}, CreatedAt: s.now().UTC()}, nil
}

// citationInstitutions are credited when a summary cites any source.
var citationInstitutions = []string{"한국은행", "통계청", "금융감독원"}

// Summarize produces a bullet summary of the requested topic.
func (s *Service) Summarize(ctx context.Context, question, contextText string) (*Answer, error) {
	text, err := s.generate(ctx, summarySystemPrompt, question, contextText)
	if err != nil {
		return nil, err
	}
	citations := []string{}
	if strings.Contains(text, "[출처:") || strings.Contains(text, "(출처:") {
		citations = append(citations, citationInstitutions...)
	}
	return &Answer{AnswerMD: text, Citations: citations, CreatedAt: s.now().UTC()}, nil
}

func (s *Service) generate(ctx context.Context, system, question, contextText string) (string, error) {
	question = SanitizeInput(question, MaxMessageRunes)
	if question == "" {
		return "", ErrEmptyMessage
	}
	if !IsSafePrompt(question) {
		return "", ErrUnsafeInput
	}

	msgs := []openai.ChatCompletionMessage{{Role: openai.ChatMessageRoleSystem, Content: system}}
	if contextText = SanitizeInput(contextText, MaxContextRunes); contextText != "" {
		if !IsSafePrompt(contextText) {
			return "", ErrUnsafeInput
		}
		msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: "참고 자료:\n" + contextText})
	}
	msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: question})

	resp, err := s.qa.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       s.cfg.Model,
		Messages:    msgs,
		MaxTokens:   s.cfg.MaxTokens,
		Temperature: s.cfg.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("generate answer: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("model returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
