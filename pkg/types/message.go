package types

// MessageRole identifies the author of a message sent to a reasoning provider.
type MessageRole string

const (
	RoleSystem    MessageRole = "system"    // RoleSystem carries the planner instructions.
	RoleUser      MessageRole = "user"      // RoleUser carries the intent and element catalog.
	RoleAssistant MessageRole = "assistant" // RoleAssistant carries the provider's reply.
)

// Message is a single chat message exchanged with an LLM provider.
type Message struct {
	// Metadata holds optional additional information about the message.
	Metadata map[string]interface{}

	// Role indicates who authored the message.
	Role MessageRole

	// Content is the text content of the message.
	Content string
}

// NewSystemMessage creates a new system message.
func NewSystemMessage(content string) *Message {
	return &Message{
		Role:     RoleSystem,
		Content:  content,
		Metadata: make(map[string]interface{}),
	}
}

// NewUserMessage creates a new user message.
func NewUserMessage(content string) *Message {
	return &Message{
		Role:     RoleUser,
		Content:  content,
		Metadata: make(map[string]interface{}),
	}
}

// NewAssistantMessage creates a new assistant message.
func NewAssistantMessage(content string) *Message {
	return &Message{
		Role:     RoleAssistant,
		Content:  content,
		Metadata: make(map[string]interface{}),
	}
}

// ModelInfo describes the model behind a provider.
type ModelInfo struct {
	// Metadata holds provider specific details such as a custom base URL.
	Metadata map[string]interface{}

	Name              string
	Provider          string
	MaxTokens         int
	SupportsStreaming bool
}
