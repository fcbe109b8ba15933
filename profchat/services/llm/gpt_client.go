package llm

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	httputils "profchat/profchat/utils/http"
	"profchat/profchat/utils/logging"

	"go.uber.org/zap"
)

const defaultOpenAIBaseURL = "https://api.openai.com/v1"

// GPTClient talks to any OpenAI compatible API (OpenAI itself, Groq, ...).
// It serves both chat completions and embeddings.
type GPTClient struct {
	apiKey         string
	baseURL        string
	model          string
	embeddingModel string
	client         *http.Client
}

type GPTConfig struct {
	APIKey         string
	BaseURL        string
	Model          string
	EmbeddingModel string
	// HTTPClient defaults to a client without timeout: the stream
	// lifetime is bounded by the caller's context instead.
	HTTPClient *http.Client
}

func NewGPTClient(cfg GPTConfig) *GPTClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultOpenAIBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-3.5-turbo"
	}
	if cfg.EmbeddingModel == "" {
		cfg.EmbeddingModel = "text-embedding-ada-002"
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{}
	}
	return &GPTClient{
		apiKey:         cfg.APIKey,
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		model:          cfg.Model,
		embeddingModel: cfg.EmbeddingModel,
		client:         cfg.HTTPClient,
	}
}

type gptChatRequest struct {
	Model    string      `json:"model"`
	Messages interface{} `json:"messages"`
	Stream   bool        `json:"stream"`
	Options  interface{} `json:"options,omitempty"`
}

type gptStreamResponse struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Created int64  `json:"created"`
	Model   string `json:"model"`
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// RunStream opens a streamed chat completion. Opening failures (bad
// credentials, non-2xx status) come back as the third value; failures after
// the stream is open arrive on the error channel, which holds at most one
// error and is closed after the fragment channel.
func (c *GPTClient) RunStream(ctx context.Context, req ChatRequest) (<-chan string, <-chan error, error) {
	defer logging.LogDuration(ctx, "gpt_service_run_stream_open")()

	if c.apiKey == "" {
		return nil, nil, ErrMissingAPIKey
	}
	model := req.Model
	if model == "" {
		model = c.model
	}
	gptReq := gptChatRequest{
		Model:    model,
		Messages: req.Messages,
		Stream:   true,
		Options:  req.Options,
	}

	headers := httputils.Bearer(c.apiKey)
	headers["Accept"] = "text/event-stream"
	body, err := httputils.PostStream(ctx, c.client, c.baseURL+"/chat/completions", headers, gptReq)
	if err != nil {
		return nil, nil, fmt.Errorf("GPT stream request failed: %w", err)
	}

	ch := make(chan string)
	errCh := make(chan error, 1)

	go func() {
		defer func() {
			close(ch)
			close(errCh)
			body.Close()
		}()

		reader := bufio.NewReader(body)

		for {
			line, readErr := reader.ReadString('\n')
			if readErr != nil && readErr != io.EOF {
				if ctx.Err() != nil {
					errCh <- ctx.Err()
					return
				}
				logging.ErrorLogger.Error("GPT stream read error", zap.Error(readErr))
				errCh <- fmt.Errorf("GPT stream read: %w", readErr)
				return
			}

			line = strings.TrimSpace(line)

			// Skip blank lines, comments and other non-data lines
			if strings.HasPrefix(line, "data:") {
				data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
				if data == "[DONE]" {
					return
				}

				var chunk gptStreamResponse
				if err := json.Unmarshal([]byte(data), &chunk); err != nil {
					logging.ErrorLogger.Error("GPT stream JSON parse error",
						zap.Error(err), zap.String("raw_line", data))
					errCh <- fmt.Errorf("GPT stream frame: %w", err)
					return
				}
				if chunk.Error != nil {
					errCh <- fmt.Errorf("GPT stream error: %s", chunk.Error.Message)
					return
				}
				for _, choice := range chunk.Choices {
					if choice.Delta.Content == "" {
						continue
					}
					select {
					case ch <- choice.Delta.Content:
					case <-ctx.Done():
						errCh <- ctx.Err()
						return
					}
				}
			}

			// the body ended without [DONE]
			if readErr == io.EOF {
				errCh <- fmt.Errorf("GPT stream: %w", io.ErrUnexpectedEOF)
				return
			}
		}
	}()

	return ch, errCh, nil
}
