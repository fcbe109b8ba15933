// profchat/services/llm/groq_client.go
package llm

import "net/http"

const groqBaseURL = "https://api.groq.com/openai/v1"

// NewGroqClient returns a GPTClient pointed at Groq's OpenAI compatible
// endpoint. Groq serves no embeddings, so pair it with another Embedder.
func NewGroqClient(apiKey, model string) *GPTClient {
	if model == "" {
		model = "llama-3.1-8b-instant"
	}
	return NewGPTClient(GPTConfig{
		APIKey:     apiKey,
		BaseURL:    groqBaseURL,
		Model:      model,
		HTTPClient: &http.Client{},
	})
}
