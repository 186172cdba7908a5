package conversation

import (
	"sync"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWindow(t *testing.T) {
	call := ToolCall{ID: "c1", Type: "function", Function: FunctionCall{Name: "get_series", Arguments: "{}"}}
	history := []Message{
		User("q1"),
		Assistant("", call),
		ToolResult(call, `{"data":{}}`),
		Assistant("a1"),
		User("q2"),
		Assistant("a2"),
	}

	t.Run("short history kept whole", func(t *testing.T) {
		assert.Equal(t, history, Window(history, 10))
	})
	t.Run("cut drops orphaned tool reply", func(t *testing.T) {
		w := Window(history, 4)
		require.Len(t, w, 2)
		assert.Equal(t, User("q2"), w[0])
	})
	t.Run("zero", func(t *testing.T) {
		assert.Empty(t, Window(history, 0))
	})
	t.Run("copy", func(t *testing.T) {
		w := Window(history, 10)
		w[0].Content = "changed"
		assert.Equal(t, "q1", history[0].Content)
	})
}

func TestMessage_OpenAIRoundTrip(t *testing.T) {
	m := Assistant("", ToolCall{ID: "c1", Type: "function", Function: FunctionCall{Name: "make_chart", Arguments: `{"spec":{}}`}})
	wire := m.ToOpenAI()
	assert.Equal(t, openai.ChatMessageRoleAssistant, wire.Role)
	require.Len(t, wire.ToolCalls, 1)
	assert.Equal(t, openai.ToolTypeFunction, wire.ToolCalls[0].Type)
	assert.Equal(t, m, FromOpenAI(wire))

	reply := FromOpenAI(openai.ChatCompletionMessage{Content: "hi"})
	assert.Equal(t, RoleAssistant, reply.Role)
}

func TestTranscript(t *testing.T) {
	tr := NewTranscript("sys", []Message{User("old"), Assistant("old answer")}, "new")
	tr.Append(Assistant("new answer"))

	msgs := tr.Messages()
	require.Len(t, msgs, 5)
	assert.Equal(t, RoleSystem, msgs[0].Role)
	assert.Equal(t, User("new"), msgs[3])

	hist := tr.History()
	require.Len(t, hist, 4)
	assert.Equal(t, User("old"), hist[0])

	last, ok := tr.Last()
	require.True(t, ok)
	assert.Equal(t, "new answer", last.Content)
}

func TestResultCache_OrderAndDuplicates(t *testing.T) {
	c := NewResultCache()
	assert.True(t, c.Put("b", 2))
	assert.True(t, c.Put("a", 1))
	assert.False(t, c.Put("b", 3))

	var ids []string
	c.Each(func(id string, r any) bool {
		ids = append(ids, id)
		return true
	})
	assert.Equal(t, []string{"b", "a"}, ids)

	v, ok := c.Get("b")
	require.True(t, ok)
	assert.Equal(t, 2, v)
}

func TestResultCache_ConcurrentPut(t *testing.T) {
	c := NewResultCache()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Put(string(rune('A'+i)), i)
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, c.Len())
}
