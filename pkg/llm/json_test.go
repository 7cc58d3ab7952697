package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "plain array",
			input:    `[{"insight": "a", "impact": "b"}]`,
			expected: `[{"insight": "a", "impact": "b"}]`,
		},
		{
			name:     "plain object",
			input:    `{"insight": "a", "impact": "b"}`,
			expected: `{"insight": "a", "impact": "b"}`,
		},
		{
			name:     "markdown fence",
			input:    "```json\n[{\"insight\": \"a\"}]\n```",
			expected: `[{"insight": "a"}]`,
		},
		{
			name:     "prose around array",
			input:    `Here are the insights: [{"insight": "x"}] Hope this helps!`,
			expected: `[{"insight": "x"}]`,
		},
		{
			name:     "think tags",
			input:    "<think>\nconsider {braces} here\n</think>\n[{\"insight\": \"y\"}]",
			expected: `[{"insight": "y"}]`,
		},
		{
			name:     "array before object",
			input:    `[1, 2] and {"a": 1}`,
			expected: `[1, 2]`,
		},
		{
			name:     "object before array",
			input:    `{"list": [1, 2]} then [3]`,
			expected: `{"list": [1, 2]}`,
		},
		{
			name:     "brackets inside strings",
			input:    `[{"insight": "range [10, 30] is {wide}"}]`,
			expected: `[{"insight": "range [10, 30] is {wide}"}]`,
		},
		{
			name:     "invalid first candidate then valid",
			input:    `see [note] below: [{"insight": "z"}]`,
			expected: `[{"insight": "z"}]`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractJSON(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestExtractJSON_NoJSON(t *testing.T) {
	for _, input := range []string{"", "just some prose", "[unterminated", "{not json}"} {
		_, err := ExtractJSON(input)
		assert.Error(t, err, "input %q", input)
	}
}

func TestParseJSONResponse(t *testing.T) {
	type item struct {
		Insight string `json:"insight"`
	}

	items, err := ParseJSONResponse[[]item]("```json\n[{\"insight\": \"a\"}, {\"insight\": \"b\"}]\n```")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "b", items[1].Insight)

	_, err = ParseJSONResponse[[]item](`{"insight": "object not array"}`)
	assert.Error(t, err)
}
