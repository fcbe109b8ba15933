// profchat/client/conversation.go
package client

import (
	"sync"

	"profchat/profchat/utils/types"
)

// Conversation is the client-side transcript. Messages are only appended and
// only the trailing assistant message grows while an answer streams in.
type Conversation struct {
	mu       sync.RWMutex
	messages []types.Message
	err      error
}

// NewConversation starts a transcript with the assistant's greeting.
func NewConversation(greeting string) *Conversation {
	c := &Conversation{}
	if greeting != "" {
		c.messages = append(c.messages, types.Message{Role: types.RoleAssistant, Content: greeting})
	}
	return c
}

// Messages returns a copy that is safe to keep across updates.
func (c *Conversation) Messages() []types.Message {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]types.Message(nil), c.messages...)
}

func (c *Conversation) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.messages)
}

// Last returns the trailing message, or false for an empty transcript.
func (c *Conversation) Last() (types.Message, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.messages) == 0 {
		return types.Message{}, false
	}
	return c.messages[len(c.messages)-1], true
}

// Err is the failure of the most recent exchange, if any.
func (c *Conversation) Err() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.err
}

func (c *Conversation) append(m types.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, m)
}

// extendLast appends text to the trailing message.
func (c *Conversation) extendLast(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.messages) == 0 {
		return
	}
	c.messages[len(c.messages)-1].Content += text
}

// beginExchange records the user's turn and an empty assistant placeholder,
// and returns the history to send (everything before the placeholder).
func (c *Conversation) beginExchange(text string) []types.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.err = nil
	c.messages = append(c.messages, types.Message{Role: types.RoleUser, Content: text})
	history := append([]types.Message(nil), c.messages...)
	c.messages = append(c.messages, types.Message{Role: types.RoleAssistant, Content: ""})
	return history
}

func (c *Conversation) setErr(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.err = err
}
