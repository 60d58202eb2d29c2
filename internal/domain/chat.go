package domain

import "encoding/json"

// Role tags a conversation message. The model API only distinguishes user
// and assistant turns; tool results travel inside a user turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// StopReason is the model's signal for why generation ended.
type StopReason string

const (
	StopEndTurn      StopReason = "end_turn"
	StopStopSequence StopReason = "stop_sequence"
	StopToolUse      StopReason = "tool_use"
	StopMaxTokens    StopReason = "max_tokens"
)

// Message is one turn in the running message list sent to the model.
// The list is append-only within a logical request: turns are never
// mutated once appended.
type Message struct {
	Role    Role
	Content []ContentBlock
}

// ContentBlock is one element of a message. Exactly one field is set.
type ContentBlock struct {
	Text       string
	ToolUse    *ToolCallRequest
	ToolResult *ToolResult
}

// ToolCallRequest is a tool invocation requested by the model. Input is the
// raw JSON the model produced for the tool's input schema.
type ToolCallRequest struct {
	Name  string
	ID    string
	Input json.RawMessage
}

// ToolResult carries a tool's output back to the model, correlated to the
// originating request by ID.
type ToolResult struct {
	ID   string
	JSON json.RawMessage
}

// ToolSpec describes one callable tool to the model.
type ToolSpec struct {
	Name        string
	Description string
	InputSchema map[string]any
}

// Usage is the token accounting reported by the model for one invocation.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// Add accumulates usage across invocations of the same logical exchange.
func (u *Usage) Add(other Usage) {
	u.InputTokens += other.InputTokens
	u.OutputTokens += other.OutputTokens
}

// ModelResponse is one model invocation's outcome.
type ModelResponse struct {
	StopReason StopReason
	Content    []ContentBlock
	Usage      Usage
}

// FirstText returns the first text content block, or "" if there is none.
func (r ModelResponse) FirstText() string {
	for _, b := range r.Content {
		if b.Text != "" {
			return b.Text
		}
	}
	return ""
}

// FirstToolUse returns the first tool-use content block, or nil.
func (r ModelResponse) FirstToolUse() *ToolCallRequest {
	for _, b := range r.Content {
		if b.ToolUse != nil {
			return b.ToolUse
		}
	}
	return nil
}

// ConverseRequest is the provider-agnostic model invocation shape.
type ConverseRequest struct {
	ModelID     string
	System      string
	Messages    []Message
	Tools       []ToolSpec
	MaxTokens   int
	Temperature float32
	TopP        float32
}

// UserText builds a user message holding a single text block.
func UserText(text string) Message {
	return Message{Role: RoleUser, Content: []ContentBlock{{Text: text}}}
}

// AssistantText builds an assistant message holding a single text block.
func AssistantText(text string) Message {
	return Message{Role: RoleAssistant, Content: []ContentBlock{{Text: text}}}
}
