// profchat/services/llm/llm.go
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	httputils "profchat/profchat/utils/http"
	"profchat/profchat/utils/logging"
	"profchat/profchat/utils/types"

	"go.uber.org/zap"
)

// ErrMissingAPIKey is returned by every call made without a configured credential.
var ErrMissingAPIKey = errors.New("llm: missing API key")

type ChatRequest struct {
	Model    string          `json:"model"`
	Messages []types.Message `json:"messages"`
	Stream   bool            `json:"stream"`
	Options  interface{}     `json:"options,omitempty"`
}

type ChatResponse struct {
	Message types.Message `json:"message"`
	Done    bool          `json:"done"`
	Error   string        `json:"error,omitempty"`
}

// OllamaClient streams completions from a local Ollama server (NDJSON lines).
type OllamaClient struct {
	baseURL string
	model   string
	client  *http.Client
}

func NewOllamaClient(baseURL, model string) *OllamaClient {
	if baseURL == "" {
		baseURL = "http://localhost:11434/api"
	}
	if model == "" {
		model = "llama3"
	}
	return &OllamaClient{baseURL: baseURL, model: model, client: &http.Client{}}
}

// RunStream returns the fragment channel and an error channel that carries
// at most one error and is closed after the fragment channel.
func (c *OllamaClient) RunStream(ctx context.Context, req ChatRequest) (<-chan string, <-chan error, error) {
	defer logging.LogDuration(ctx, "ollama_run_stream_open")()

	if req.Model == "" {
		req.Model = c.model
	}
	req.Stream = true
	body, err := httputils.PostStream(ctx, c.client, c.baseURL+"/chat", nil, req)
	if err != nil {
		return nil, nil, fmt.Errorf("ollama chat: %w", err)
	}

	ch := make(chan string)
	errCh := make(chan error, 1)

	go func() {
		defer func() {
			close(ch)
			close(errCh)
			body.Close()
		}()

		decoder := json.NewDecoder(body)

		for {
			var chunk ChatResponse
			if err := decoder.Decode(&chunk); err != nil {
				if err == io.EOF {
					// the body ended before a done message
					errCh <- fmt.Errorf("ollama stream: %w", io.ErrUnexpectedEOF)
					return
				}
				if ctx.Err() != nil {
					errCh <- ctx.Err()
					return
				}
				logging.ErrorLogger.Error("ollama stream decode error", zap.Error(err))
				errCh <- fmt.Errorf("ollama stream: %w", err)
				return
			}
			if chunk.Error != "" {
				errCh <- fmt.Errorf("ollama stream: %s", chunk.Error)
				return
			}
			if chunk.Message.Content != "" {
				select {
				case ch <- chunk.Message.Content:
				case <-ctx.Done():
					errCh <- ctx.Err()
					return
				}
			}
			// If server signals done, finish.
			if chunk.Done {
				return
			}
		}
	}()

	return ch, errCh, nil
}
