// Package chat holds the conversation history shared between the pipeline
// agent and the tools it dispatches.
package chat

import (
	"sync"
	"time"
)

// Role identifies the author of a conversation message.
type Role string

const (
	RoleNone      Role = ""
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ToolCall records a function invocation requested by the model.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string // Raw JSON arguments as produced by the model
}

// Message is a single entry in the conversation history.
type Message struct {
	Role       Role
	Content    string
	ToolCalls  []ToolCall // Set on assistant messages that request tools
	ToolCallID string     // Set on tool-result messages only
	CreatedAt  time.Time
}

// Context is the conversation history for one session. It is owned by the
// session and never shared across sessions. Access is serialized because
// tool handlers may append (via the speak primitive) while the pipeline
// loop is reading.
type Context struct {
	mu       sync.RWMutex
	messages []Message
}

// NewContext creates an empty conversation history.
func NewContext() *Context {
	return &Context{}
}

// WithSystemPrompt creates a history seeded with a system message.
func WithSystemPrompt(prompt string) *Context {
	c := NewContext()
	c.Append(RoleSystem, prompt)
	return c
}

// Append adds a message to the history.
func (c *Context) Append(role Role, content string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, Message{
		Role:      role,
		Content:   content,
		CreatedAt: time.Now(),
	})
}

// AppendToolCalls adds an assistant message carrying tool call requests.
// The content may be empty when the model only requests tools.
func (c *Context) AppendToolCalls(content string, calls []ToolCall) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, Message{
		Role:      RoleAssistant,
		Content:   content,
		ToolCalls: calls,
		CreatedAt: time.Now(),
	})
}

// AppendToolResult adds a tool-result message linked to a tool call.
func (c *Context) AppendToolResult(toolCallID, content string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, Message{
		Role:       RoleTool,
		Content:    content,
		ToolCallID: toolCallID,
		CreatedAt:  time.Now(),
	})
}

// Messages returns a copy of the history.
func (c *Context) Messages() []Message {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// Len returns the number of messages in the history.
func (c *Context) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.messages)
}

// LastRole returns the role of the most recent message, or RoleNone when
// the history is empty.
func (c *Context) LastRole() Role {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.messages) == 0 {
		return RoleNone
	}
	return c.messages[len(c.messages)-1].Role
}
