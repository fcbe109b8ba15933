// profchat/utils/types/chat.go
package types

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Message is one role-tagged turn of a conversation. Order is significant.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ValidRole reports whether role is one of user, assistant or system.
func ValidRole(role string) bool {
	switch role {
	case RoleUser, RoleAssistant, RoleSystem:
		return true
	}
	return false
}

// Match is one vector index hit: a professor with the metadata stored next to
// the review embedding.
type Match struct {
	ID      string  `json:"id"`
	Subject string  `json:"subject"`
	Stars   string  `json:"stars"`
	Score   float32 `json:"score"`
}

// WSChatRequest is the first frame a websocket client sends.
type WSChatRequest struct {
	Token    string    `json:"token,omitempty"`
	Messages []Message `json:"messages"`
}

// WSFrame is every frame the server sends back over the websocket.
type WSFrame struct {
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload,omitempty"`
}

const (
	FrameChunk = "response_chunk"
	FrameEnd   = "response_end"
	FrameError = "error"
)

// Viewer is what the relay knows about the identity provider session.
type Viewer struct {
	SignedIn bool   `json:"signed_in"`
	Name     string `json:"name"`
	UserID   string `json:"user_id,omitempty"`
}
