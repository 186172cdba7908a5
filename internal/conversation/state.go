package conversation

import (
	"sync"
)

// Transcript is the ordered message list of a single turn. It is owned by
// one turn and is not safe for concurrent use.
type Transcript struct {
	messages []Message
}

// NewTranscript starts a transcript with the system prompt, the prior
// history and the new user message, in that order.
func NewTranscript(systemPrompt string, history []Message, userMessage string) *Transcript {
	msgs := make([]Message, 0, len(history)+2)
	msgs = append(msgs, System(systemPrompt))
	msgs = append(msgs, history...)
	msgs = append(msgs, User(userMessage))
	return &Transcript{messages: msgs}
}

func (t *Transcript) Append(m Message) { t.messages = append(t.messages, m) }

func (t *Transcript) Len() int { return len(t.messages) }

// Messages returns a copy of every message, system prompt included.
func (t *Transcript) Messages() []Message {
	out := make([]Message, len(t.messages))
	copy(out, t.messages)
	return out
}

// History returns the messages after the system prompt; this is what gets
// persisted for a session.
func (t *Transcript) History() []Message {
	msgs := t.messages
	if len(msgs) > 0 && msgs[0].Role == RoleSystem {
		msgs = msgs[1:]
	}
	out := make([]Message, len(msgs))
	copy(out, msgs)
	return out
}

// Last returns the final message, if any.
func (t *Transcript) Last() (Message, bool) {
	if len(t.messages) == 0 {
		return Message{}, false
	}
	return t.messages[len(t.messages)-1], true
}

// ResultCache maps tool call ids to raw tool results for the duration of one
// turn. Iteration follows insertion order.
type ResultCache struct {
	mu      sync.Mutex
	order   []string
	results map[string]any
}

func NewResultCache() *ResultCache {
	return &ResultCache{results: make(map[string]any)}
}

// Put stores result under id. It reports false and keeps the existing entry
// if id was already stored.
func (c *ResultCache) Put(id string, result any) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.results[id]; ok {
		return false
	}
	c.order = append(c.order, id)
	c.results[id] = result
	return true
}

func (c *ResultCache) Get(id string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.results[id]
	return r, ok
}

func (c *ResultCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.order)
}

// Each calls fn for every entry in insertion order until fn returns false.
func (c *ResultCache) Each(fn func(id string, result any) bool) {
	c.mu.Lock()
	ids := make([]string, len(c.order))
	copy(ids, c.order)
	results := make([]any, len(ids))
	for i, id := range ids {
		results[i] = c.results[id]
	}
	c.mu.Unlock()

	for i, id := range ids {
		if !fn(id, results[i]) {
			return
		}
	}
}
