// profchat/controllers/chat.go
package controllers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"profchat/profchat/config"
	"profchat/profchat/services/llm"
	"profchat/profchat/utils/logging"
	"profchat/profchat/utils/types"

	"go.uber.org/zap"
)

// ErrInvalidConversation marks a request body the relay cannot answer.
var ErrInvalidConversation = errors.New("invalid conversation")

const matchBlockHeader = "\n\nReturned results from vector db (done automatically): "

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type VectorIndex interface {
	Query(ctx context.Context, vector []float32, topK int) ([]types.Match, error)
}

type Completer interface {
	RunStream(ctx context.Context, req llm.ChatRequest) (<-chan string, <-chan error, error)
}

// Archiver stores a finished exchange. It is optional.
type Archiver interface {
	Save(ctx context.Context, question string, matches []types.Match, answer string) (string, error)
}

type ChatDeps struct {
	Embedder  Embedder
	Index     VectorIndex
	Completer Completer
	Assistant *config.Assistant
	Archive   Archiver

	EmbedTimeout      time.Duration
	IndexTimeout      time.Duration
	CompletionTimeout time.Duration
}

type ChatController struct {
	embedder  Embedder
	index     VectorIndex
	completer Completer
	assistant *config.Assistant
	archive   Archiver

	embedTimeout      time.Duration
	indexTimeout      time.Duration
	completionTimeout time.Duration
}

func NewChatController(deps ChatDeps) *ChatController {
	if deps.Assistant == nil {
		deps.Assistant = config.DefaultAssistant()
	}
	if deps.EmbedTimeout <= 0 {
		deps.EmbedTimeout = 15 * time.Second
	}
	if deps.IndexTimeout <= 0 {
		deps.IndexTimeout = 10 * time.Second
	}
	if deps.CompletionTimeout <= 0 {
		deps.CompletionTimeout = 120 * time.Second
	}
	return &ChatController{
		embedder:          deps.Embedder,
		index:             deps.Index,
		completer:         deps.Completer,
		assistant:         deps.Assistant,
		archive:           deps.Archive,
		embedTimeout:      deps.EmbedTimeout,
		indexTimeout:      deps.IndexTimeout,
		completionTimeout: deps.CompletionTimeout,
	}
}

// Reply is either a complete greeting Text or an open fragment stream.
// Errs carries at most one error and is closed after Chunks.
type Reply struct {
	Greeting bool
	Text     string
	Chunks   <-chan string
	Errs     <-chan error
	Matches  []types.Match
}

// Validate checks the shape of an incoming conversation.
func Validate(messages []types.Message) error {
	if len(messages) == 0 {
		return fmt.Errorf("%w: no messages", ErrInvalidConversation)
	}
	for i, m := range messages {
		if !types.ValidRole(m.Role) {
			return fmt.Errorf("%w: message %d has role %q", ErrInvalidConversation, i, m.Role)
		}
	}
	last := messages[len(messages)-1]
	if last.Role != types.RoleUser {
		return fmt.Errorf("%w: last message must come from the user", ErrInvalidConversation)
	}
	if strings.TrimSpace(last.Content) == "" {
		return fmt.Errorf("%w: last message is empty", ErrInvalidConversation)
	}
	return nil
}

// FormatMatches renders index hits in ranked order as the block appended to
// the user's question.
func FormatMatches(matches []types.Match) string {
	var b strings.Builder
	b.WriteString(matchBlockHeader)
	for _, m := range matches {
		fmt.Fprintf(&b, "\nProfessor: %s\nSubject: %s\nStars: %s\n\n", m.ID, m.Subject, m.Stars)
	}
	return b.String()
}

// Answer runs one relay turn. Errors returned here happen before any
// fragment exists; later failures arrive on Reply.Errs.
func (c *ChatController) Answer(ctx context.Context, messages []types.Message) (*Reply, error) {
	defer logging.LogDuration(ctx, "chat_answer_open")()

	if err := Validate(messages); err != nil {
		return nil, err
	}

	last := messages[len(messages)-1]
	if c.assistant.IsGreeting(last.Content) {
		return &Reply{Greeting: true, Text: c.assistant.GreetingReply}, nil
	}

	question := strings.TrimSpace(last.Content)
	matches, err := c.retrieve(ctx, question)
	if err != nil {
		return nil, err
	}

	req := llm.ChatRequest{
		Messages: c.buildMessages(messages, matches),
		Stream:   true,
	}

	streamCtx, cancel := context.WithTimeout(ctx, c.completionTimeout)
	upstream, upstreamErrs, err := c.completer.RunStream(streamCtx, req)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("completion: %w", err)
	}

	chunks := make(chan string)
	errs := make(chan error, 1)
	go c.relay(streamCtx, cancel, upstream, upstreamErrs, chunks, errs, question, matches)

	return &Reply{Chunks: chunks, Errs: errs, Matches: matches}, nil
}

func (c *ChatController) retrieve(ctx context.Context, question string) ([]types.Match, error) {
	embedCtx, cancel := context.WithTimeout(ctx, c.embedTimeout)
	defer cancel()
	vector, err := c.embedder.Embed(embedCtx, question)
	if err != nil {
		return nil, fmt.Errorf("embedding: %w", err)
	}

	indexCtx, cancel := context.WithTimeout(ctx, c.indexTimeout)
	defer cancel()
	matches, err := c.index.Query(indexCtx, vector, c.assistant.TopK)
	if err != nil {
		return nil, fmt.Errorf("vector index: %w", err)
	}
	return matches, nil
}

func (c *ChatController) buildMessages(messages []types.Message, matches []types.Match) []types.Message {
	prior := messages[:len(messages)-1]
	last := messages[len(messages)-1]

	out := make([]types.Message, 0, len(messages)+1)
	out = append(out, types.Message{Role: types.RoleSystem, Content: c.assistant.SystemPrompt})
	out = append(out, prior...)
	out = append(out, types.Message{
		Role:    types.RoleUser,
		Content: last.Content + FormatMatches(matches),
	})
	return out
}

// relay forwards upstream fragments in order and skips empty ones.
func (c *ChatController) relay(ctx context.Context, cancel context.CancelFunc,
	upstream <-chan string, upstreamErrs <-chan error,
	chunks chan<- string, errs chan<- error,
	question string, matches []types.Match) {
	defer cancel()
	defer close(errs)
	defer close(chunks)

	var answer strings.Builder
	for frag := range upstream {
		if frag == "" {
			continue
		}
		answer.WriteString(frag)
		select {
		case chunks <- frag:
		case <-ctx.Done():
			errs <- ctx.Err()
			return
		}
	}

	if err := <-upstreamErrs; err != nil {
		logging.ErrorLogger.Error("completion stream failed", zap.Error(err))
		errs <- fmt.Errorf("completion stream: %w", err)
		return
	}

	if c.archive != nil {
		go c.saveTranscript(question, matches, answer.String())
	}
}

func (c *ChatController) saveTranscript(question string, matches []types.Match, answer string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	key, err := c.archive.Save(ctx, question, matches, answer)
	if err != nil {
		logging.ErrorLogger.Error("transcript upload failed", zap.Error(err))
		return
	}
	logging.AppLogger.Info("transcript archived", zap.String("key", key))
}
