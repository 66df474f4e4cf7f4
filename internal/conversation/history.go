// Package conversation holds the ordered, role-tagged message history of a
// single chat session.
package conversation

import "fixaphone-web/internal/llm"

// History is the ordered sequence of messages sent as context with every
// completion request. It always starts with the system prompt.
//
// History is not safe for concurrent use; its owner serialises access.
type History struct {
	systemPrompt string
	messages     []llm.Message
}

// New creates a History seeded with the system prompt.
func New(systemPrompt string) *History {
	h := &History{systemPrompt: systemPrompt}
	h.Reset()
	return h
}

// Reset drops every turn and leaves only the system message.
func (h *History) Reset() {
	h.messages = []llm.Message{{Role: llm.RoleSystem, Content: h.systemPrompt}}
}

// AppendUser appends a user turn. Callers must not pass blank text.
func (h *History) AppendUser(text string) {
	h.messages = append(h.messages, llm.Message{Role: llm.RoleUser, Content: text})
}

// AppendAssistant appends a model reply.
func (h *History) AppendAssistant(text string) {
	h.messages = append(h.messages, llm.Message{Role: llm.RoleAssistant, Content: text})
}

// Snapshot returns a copy of the messages in order.
func (h *History) Snapshot() []llm.Message {
	out := make([]llm.Message, len(h.messages))
	copy(out, h.messages)
	return out
}

// Len returns the number of messages, including the system message.
func (h *History) Len() int {
	return len(h.messages)
}
