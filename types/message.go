package types

// Role 为消息角色。Qianfan 要求 messages 以 user 开头且 user/assistant 交替。
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleFunction  Role = "function"
)

// Message represents one turn in a chat conversation.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
	Name    string `json:"name,omitempty"`
}

// UserMessage builds a user-role message.
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// AssistantMessage builds an assistant-role message.
func AssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// ValidateMessages checks the ordering constraint the API enforces:
// non-empty, odd length, starting with user and alternating user/assistant.
func ValidateMessages(msgs []Message) error {
	if len(msgs) == 0 {
		return ErrorFromCode(CodeInvalidParam, "messages must not be empty")
	}
	if len(msgs)%2 == 0 {
		return ErrorFromCode(CodeInvalidParam, "messages must have odd length")
	}
	for i, m := range msgs {
		want := RoleUser
		if i%2 == 1 {
			want = RoleAssistant
		}
		if m.Role != want && m.Role != RoleFunction {
			return ErrorFromCode(CodeInvalidParam, "messages must alternate user/assistant roles")
		}
	}
	return nil
}
