package llm

import (
	"context"
	"errors"
	"fmt"

	httputils "profchat/profchat/utils/http"
	"profchat/profchat/utils/logging"
)

var errEmptyEmbedding = errors.New("embedding response carried no vector")

type embeddingRequest struct {
	Input string `json:"input"`
	Model string `json:"model"`
}

type embeddingResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// Embed turns text into a single vector with the configured embedding model.
func (c *GPTClient) Embed(ctx context.Context, text string) ([]float32, error) {
	defer logging.LogDuration(ctx, "gpt_embed")()

	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	var resp embeddingResponse
	req := embeddingRequest{Input: text, Model: c.embeddingModel}
	if err := httputils.PostJSON(ctx, c.client, c.baseURL+"/embeddings", httputils.Bearer(c.apiKey), req, &resp); err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, errEmptyEmbedding
	}
	return resp.Data[0].Embedding, nil
}
