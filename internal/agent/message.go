package agent

import (
	"bytes"
	"encoding/json"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one conversation entry. It decodes from a {role, content}
// object or a bare string; any other shape yields an Unreadable message
// instead of a decode error.
type Message struct {
	Role       string `json:"role"`
	Content    string `json:"content"`
	Unreadable bool   `json:"-"`
}

func (m *Message) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*m = Message{Unreadable: true}
		return nil
	}

	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		*m = Message{Role: RoleUser, Content: text}
		return nil
	}

	var obj struct {
		Role    *string         `json:"role"`
		Type    *string         `json:"type"`
		Content json.RawMessage `json:"content"`
	}
	if len(data) == 0 || data[0] != '{' || json.Unmarshal(data, &obj) != nil {
		*m = Message{Unreadable: true}
		return nil
	}

	role := RoleUser
	switch {
	case obj.Role != nil && *obj.Role != "":
		role = *obj.Role
	case obj.Type != nil && *obj.Type == "ai":
		role = RoleAssistant
	}

	var content string
	if len(obj.Content) > 0 && !bytes.Equal(obj.Content, []byte("null")) {
		if err := json.Unmarshal(obj.Content, &content); err != nil {
			*m = Message{Role: role, Unreadable: true}
			return nil
		}
	}
	*m = Message{Role: role, Content: content}
	return nil
}
