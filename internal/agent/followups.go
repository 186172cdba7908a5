package agent

import (
	"strings"

	"github.com/comigor/econlux-go/internal/conversation"
	"github.com/comigor/econlux-go/pkg/tools"
)

const maxSuggestions = 3

type topic struct {
	keywords    []string
	suggestions []string
}

var topics = []topic{
	{
		keywords:    []string{"cpi", "물가"},
		suggestions: []string{"코어 CPI와 헤드라인 CPI의 차이는?", "최근 물가 상승 원인 3가지만 알려줘"},
	},
	{
		keywords:    []string{"금리", "rate"},
		suggestions: []string{"금리 인상이 주택시장에 미치는 영향은?", "다음 금통위 일정은 언제야?"},
	},
	{
		keywords:    []string{"차트", "그래프"},
		suggestions: []string{"같은 데이터를 표로 보여줘", "최근 1년만 확대해줘"},
	},
}

var genericSuggestions = []string{
	"이 지표의 의미를 초보자도 알기 쉽게 설명해줘",
	"다음 주 주요 경제 발표 일정 알려줘",
	"이 차트를 북마크에 저장해줘",
}

// GenerateSuggestions proposes up to three follow-up questions based on
// keywords in message. Widgets are accepted for future use and do not
// currently change the outcome.
func GenerateSuggestions(message string, _ []Widget) []string {
	lower := strings.ToLower(message)
	var out []string
	for _, t := range topics {
		for _, kw := range t.keywords {
			if strings.Contains(lower, kw) {
				out = append(out, t.suggestions...)
				break
			}
		}
	}
	if len(out) == 0 {
		out = append(out, genericSuggestions...)
	}
	if len(out) > maxSuggestions {
		out = out[:maxSuggestions]
	}
	return out
}

// Source credits the origin of data used in a turn.
type Source struct {
	Name      string `json:"name"`
	UpdatedAt string `json:"updated_at"`
}

// ExtractSources lists the sources cited by the turn's tool results,
// de-duplicated by name in first-seen order.
func ExtractSources(cache *conversation.ResultCache) []Source {
	out := []Source{}
	seen := map[string]bool{}
	cache.Each(func(_ string, r any) bool {
		src, ok := r.(tools.Sourced)
		if !ok {
			return true
		}
		name, updated := src.SourceRef()
		if name == "" || seen[name] {
			return true
		}
		seen[name] = true
		out = append(out, Source{Name: name, UpdatedAt: updated})
		return true
	})
	return out
}
