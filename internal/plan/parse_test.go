package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"no fence", `{"operations":[]}`, `{"operations":[]}`},
		{"json fence", "```json\n{\"operations\": []}\n```", `{"operations": []}`},
		{"bare fence", "```\n{\"operations\": []}\n```", `{"operations": []}`},
		{"single line fence", "```{\"operations\": []}```", `{"operations": []}`},
		{"single line fence with tag", "```json {\"operations\": []}```", `{"operations": []}`},
		{"tag before object on first line", "```json {\"operations\":\n[]}\n```", "{\"operations\":\n[]}"},
		{"surrounding whitespace", "  \n```json\n{}\n```\n ", `{}`},
		{"missing closing fence", "```json\n{}", `{}`},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripCodeFence(tt.input))
		})
	}
}

func TestParseResponse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int
	}{
		{"fenced empty plan", "```json\n{\"operations\": []}\n```", 0},
		{"two candidates", `{"operations":[{"type":"delete","remoteId":"a"},{"type":"bogus"}]}`, 2},
		{"prose instead of json", "Sure! I moved your meeting.", 0},
		{"operations not an array", `{"operations":{"type":"delete"}}`, 0},
		{"operations missing", `{"ops":[]}`, 0},
		{"top level array", `[{"type":"delete","remoteId":"a"}]`, 0},
		{"truncated json", `{"operations":[{"type":"delete"`, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Len(t, ParseResponse(tt.input), tt.want)
		})
	}
}

func TestFromResponse_FencedEmptyPlan(t *testing.T) {
	p, rejected := FromResponse("```json\n{\"operations\": []}\n```", nil)
	assert.Equal(t, 0, p.Len())
	assert.NotNil(t, p.Operations)
	assert.Empty(t, rejected)
}

func TestFromResponse_SingleLineFence(t *testing.T) {
	p, rejected := FromResponse("```json {\"operations\":[{\"type\":\"delete\",\"remoteId\":\"evt-1\"}]}```", nil)
	require.Equal(t, 1, p.Len())
	assert.Equal(t, "evt-1", p.Operations[0].RemoteID)
	assert.Empty(t, rejected)
}
