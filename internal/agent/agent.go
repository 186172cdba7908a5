package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/qmuntal/stateless"
	"github.com/sashabaranov/go-openai"
	"golang.org/x/sync/errgroup"

	"github.com/comigor/econlux-go/internal/config"
	"github.com/comigor/econlux-go/internal/conversation"
	"github.com/comigor/econlux-go/internal/llm"
	"github.com/comigor/econlux-go/internal/logger"
	"github.com/comigor/econlux-go/pkg/tools"
)

// TurnState is a state of the turn machine.
type TurnState string

const (
	StateAwaitingModel  TurnState = "AwaitingModel"
	StateExecutingTools TurnState = "ExecutingTools"
	StateDone           TurnState = "Done"      // model answered without tool calls
	StateExhausted      TurnState = "Exhausted" // round cap reached
	StateFailed         TurnState = "Failed"
)

// TurnTrigger moves the turn machine between states.
type TurnTrigger string

const (
	TriggerModelAnswered   TurnTrigger = "ModelAnswered"
	TriggerToolsRequested  TurnTrigger = "ToolsRequested"
	TriggerToolsCompleted  TurnTrigger = "ToolsCompleted"
	TriggerRoundsExhausted TurnTrigger = "RoundsExhausted"
	TriggerFailed          TurnTrigger = "Failed"
)

const (
	// DefaultMaxRounds caps the model round trips of one turn.
	DefaultMaxRounds = 5
	// DefaultParallelism caps the tools executed at once within a round.
	DefaultParallelism = 4
)

// ErrMalformedArguments marks a tool call whose arguments are not valid JSON.
var ErrMalformedArguments = errors.New("malformed tool call arguments")

// Agent drives the tool-calling loop against the model.
type Agent struct {
	llmClient    llm.Client
	cfg          config.LLMConfig
	tools        *tools.ToolManager
	systemPrompt string
	maxRounds    int
	parallelism  int
	newID        func() string
}

// Option customizes an Agent.
type Option func(*Agent)

func WithMaxRounds(n int) Option {
	return func(a *Agent) { a.maxRounds = n }
}

// WithParallelism bounds the tools run at once within a round.
func WithParallelism(n int) Option {
	return func(a *Agent) { a.parallelism = n }
}

// WithIDGenerator sets the widget id source.
func WithIDGenerator(f func() string) Option {
	return func(a *Agent) { a.newID = f }
}

// New creates a new agent.
func New(llmClient llm.Client, cfg config.LLMConfig, tm *tools.ToolManager, opts ...Option) *Agent {
	a := &Agent{
		llmClient:    llmClient,
		cfg:          cfg,
		tools:        tm,
		systemPrompt: DefaultSystemPrompt,
		maxRounds:    DefaultMaxRounds,
		parallelism:  DefaultParallelism,
		newID:        uuid.NewString,
	}
	if cfg.SystemPrompt != "" {
		a.systemPrompt = cfg.SystemPrompt
	}
	for _, o := range opts {
		o(a)
	}
	if a.parallelism < 1 {
		a.parallelism = 1
	}
	return a
}

// Turn is the outcome of one run of the loop.
type Turn struct {
	transcript *conversation.Transcript
	results    *conversation.ResultCache
	widgets    []Widget
	rounds     int
	exhausted  bool

	pending []conversation.ToolCall
	err     error
}

// Messages returns the transcript including the system prompt.
func (t *Turn) Messages() []conversation.Message { return t.transcript.Messages() }

// History returns the transcript without the system prompt.
func (t *Turn) History() []conversation.Message { return t.transcript.History() }

func (t *Turn) Results() *conversation.ResultCache { return t.results }
func (t *Turn) Widgets() []Widget                  { return t.widgets }

// Rounds is the number of model calls made.
func (t *Turn) Rounds() int { return t.rounds }

// Exhausted reports whether the loop stopped at the round cap with the
// model still asking for tools.
func (t *Turn) Exhausted() bool { return t.exhausted }

// Answer is the content of the final assistant message, empty when the
// loop was exhausted.
func (t *Turn) Answer() string {
	if t.exhausted {
		return ""
	}
	last, ok := t.transcript.Last()
	if !ok || last.Role != conversation.RoleAssistant || len(last.ToolCalls) > 0 {
		return ""
	}
	return last.Content
}

func (a *Agent) newMachine() *stateless.StateMachine {
	fsm := stateless.NewStateMachine(StateAwaitingModel)

	fsm.Configure(StateAwaitingModel).
		Permit(TriggerModelAnswered, StateDone).
		Permit(TriggerToolsRequested, StateExecutingTools).
		Permit(TriggerRoundsExhausted, StateExhausted).
		Permit(TriggerFailed, StateFailed)

	fsm.Configure(StateExecutingTools).
		Permit(TriggerToolsCompleted, StateAwaitingModel).
		Permit(TriggerFailed, StateFailed)

	fsm.OnTransitioned(func(_ context.Context, t stateless.Transition) {
		logger.L.Debug("turn transition", "from", t.Source, "to", t.Destination, "trigger", t.Trigger)
	})
	return fsm
}

// Process runs one turn: history is the prior conversation (already
// windowed by the caller) and request the new user message.
func (a *Agent) Process(ctx context.Context, history []conversation.Message, request string) (*Turn, error) {
	turn := &Turn{
		transcript: conversation.NewTranscript(a.systemPrompt, history, request),
		results:    conversation.NewResultCache(),
	}
	fsm := a.newMachine()

	for {
		var trigger TurnTrigger
		switch fsm.MustState().(TurnState) {
		case StateAwaitingModel:
			trigger = a.awaitModel(ctx, turn)
		case StateExecutingTools:
			trigger = a.executeTools(ctx, turn)
		case StateDone:
			return turn, nil
		case StateExhausted:
			logger.L.Warn("turn stopped at round cap", "rounds", turn.rounds)
			turn.exhausted = true
			return turn, nil
		case StateFailed:
			return nil, turn.err
		}
		if err := fsm.FireCtx(ctx, trigger); err != nil {
			return nil, fmt.Errorf("turn state machine: %w", err)
		}
	}
}

func (a *Agent) awaitModel(ctx context.Context, turn *Turn) TurnTrigger {
	if turn.rounds >= a.maxRounds {
		return TriggerRoundsExhausted
	}
	turn.rounds++

	resp, err := a.llmClient.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       a.cfg.Model,
		Messages:    conversation.ToOpenAIMessages(turn.transcript.Messages()),
		Tools:       a.tools.Definitions(),
		ToolChoice:  "auto",
		MaxTokens:   a.cfg.MaxTokens,
		Temperature: a.cfg.Temperature,
	})
	if err != nil {
		logger.L.Error("LLM call failed", "round", turn.rounds, "error", err)
		turn.err = fmt.Errorf("model call: %w", err)
		return TriggerFailed
	}
	if len(resp.Choices) == 0 {
		turn.err = errors.New("model returned no choices")
		return TriggerFailed
	}

	msg := conversation.FromOpenAI(resp.Choices[0].Message)
	msg.Role = conversation.RoleAssistant
	turn.transcript.Append(msg)

	if len(msg.ToolCalls) == 0 {
		return TriggerModelAnswered
	}
	turn.pending = msg.ToolCalls
	logger.L.Debug("model requested tools", "round", turn.rounds, "count", len(msg.ToolCalls))
	return TriggerToolsRequested
}

// executeTools runs the pending calls of the round. Calls run concurrently;
// their messages, cache entries and widgets are appended in request order.
func (a *Agent) executeTools(ctx context.Context, turn *Turn) TurnTrigger {
	calls := uniqueCalls(turn.pending)
	turn.pending = nil

	args := make([]json.RawMessage, len(calls))
	for i, c := range calls {
		raw := strings.TrimSpace(c.Function.Arguments)
		if raw == "" {
			raw = "{}"
		}
		if !json.Valid([]byte(raw)) {
			turn.err = fmt.Errorf("%w: %s (call %s)", ErrMalformedArguments, c.Function.Name, c.ID)
			return TriggerFailed
		}
		args[i] = json.RawMessage(raw)
	}

	results := make([]any, len(calls))
	var g errgroup.Group
	g.SetLimit(a.parallelism)
	for i, c := range calls {
		g.Go(func() error {
			results[i] = a.runTool(ctx, c, args[i])
			return nil
		})
	}
	_ = g.Wait()

	for i, c := range calls {
		content, err := json.Marshal(results[i])
		if err != nil {
			results[i] = tools.ErrorResult{Error: fmt.Sprintf("encode result of %s: %v", c.Function.Name, err)}
			content, _ = json.Marshal(results[i])
		}
		turn.transcript.Append(conversation.ToolResult(c, string(content)))
		if !turn.results.Put(c.ID, results[i]) {
			logger.L.Warn("tool call id reused within turn", "id", c.ID)
		}
		if synth, ok := synthesizers[c.Function.Name]; ok {
			if w, ok := synth(a.newID(), results[i], turn.results); ok {
				turn.widgets = append(turn.widgets, w)
			}
		}
	}
	return TriggerToolsCompleted
}

// runTool executes one call, turning any failure into an error payload for
// the model.
func (a *Agent) runTool(ctx context.Context, call conversation.ToolCall, args json.RawMessage) any {
	start := time.Now()
	res, err := a.tools.Execute(ctx, call.Function.Name, args)
	if err != nil {
		logger.L.Warn("tool failed", "tool", call.Function.Name, "id", call.ID, "error", err)
		return tools.ErrorResult{Error: err.Error()}
	}
	logger.L.Info("tool completed", "tool", call.Function.Name, "id", call.ID, "duration", time.Since(start))
	return res
}

// uniqueCalls drops repeated ids, keeping the first occurrence.
func uniqueCalls(calls []conversation.ToolCall) []conversation.ToolCall {
	seen := make(map[string]struct{}, len(calls))
	out := make([]conversation.ToolCall, 0, len(calls))
	for _, c := range calls {
		if _, dup := seen[c.ID]; dup {
			logger.L.Warn("duplicate tool call id in one response", "id", c.ID, "tool", c.Function.Name)
			continue
		}
		seen[c.ID] = struct{}{}
		out = append(out, c)
	}
	return out
}
