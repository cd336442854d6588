package core

// Conversation roles. Tool results enter the history under RoleTool so
// providers can map them to their native tool-result message shapes.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message is a single role-tagged entry in the conversation history retained
// across turns within a session. Messages are value types; history slices are
// copied on read so callers cannot mutate stored state.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// SystemMessage creates a system-role message.
func SystemMessage(content string) Message { return Message{Role: RoleSystem, Content: content} }

// UserMessage creates a user-role message.
func UserMessage(content string) Message { return Message{Role: RoleUser, Content: content} }

// AssistantMessage creates an assistant-role message.
func AssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// ToolMessage creates a tool-result message.
func ToolMessage(content string) Message { return Message{Role: RoleTool, Content: content} }
