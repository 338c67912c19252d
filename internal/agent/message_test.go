package agent

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageUnmarshal(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Message
	}{
		{"object", `{"role":"user","content":"hello"}`, Message{Role: RoleUser, Content: "hello"}},
		{"assistant", `{"role":"assistant","content":"hi"}`, Message{Role: RoleAssistant, Content: "hi"}},
		{"typed ai", `{"type":"ai","content":"hi"}`, Message{Role: RoleAssistant, Content: "hi"}},
		{"no role", `{"content":"hello"}`, Message{Role: RoleUser, Content: "hello"}},
		{"missing content", `{"role":"user"}`, Message{Role: RoleUser}},
		{"bare string", `"paste this"`, Message{Role: RoleUser, Content: "paste this"}},
		{"number", `42`, Message{Unreadable: true}},
		{"null", `null`, Message{Unreadable: true}},
		{"list", `["a"]`, Message{Unreadable: true}},
		{"content parts", `{"role":"user","content":[{"type":"text"}]}`, Message{Role: RoleUser, Unreadable: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var m Message
			require.NoError(t, json.Unmarshal([]byte(tt.in), &m))
			assert.Equal(t, tt.want, m)
		})
	}
}

func TestTurnInputDecodesMixedMessages(t *testing.T) {
	var in TurnInput
	require.NoError(t, json.Unmarshal([]byte(`{
		"thread_id": "project:abc",
		"messages": ["first", {"role": "user", "content": "second"}, 7],
		"extracted_brief": {"client_name": "Acme", "bogus": 1}
	}`), &in))

	require.Len(t, in.Messages, 3)
	assert.Equal(t, "first", in.Messages[0].Content)
	assert.Equal(t, "second", in.Messages[1].Content)
	assert.True(t, in.Messages[2].Unreadable)
	assert.Equal(t, "Acme", in.Brief["client_name"])
	assert.NotContains(t, in.Brief, "bogus")
}
