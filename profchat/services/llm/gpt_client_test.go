package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"profchat/profchat/utils/types"
)

func collect(t *testing.T, ch <-chan string, errCh <-chan error) ([]string, error) {
	t.Helper()
	var out []string
	for frag := range ch {
		out = append(out, frag)
	}
	return out, <-errCh
}

func sseChunk(content string) string {
	return fmt.Sprintf("data: {\"choices\":[{\"delta\":{\"content\":%q}}]}\n\n", content)
}

func TestGPTRunStreamOrder(t *testing.T) {
	var gotAuth string
	var gotReq gptChatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotReq)
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, ": keep-alive\n\n")
		for _, c := range []string{"Dr. A ", "teaches ", "CS211."} {
			fmt.Fprint(w, sseChunk(c))
			w.(http.Flusher).Flush()
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	c := NewGPTClient(GPTConfig{APIKey: "k", BaseURL: srv.URL, Model: "m"})
	ch, errCh, err := c.RunStream(context.Background(), ChatRequest{
		Messages: []types.Message{{Role: types.RoleUser, Content: "q"}},
	})
	if err != nil {
		t.Fatalf("RunStream: %v", err)
	}
	frags, streamErr := collect(t, ch, errCh)
	if streamErr != nil {
		t.Fatalf("stream error: %v", streamErr)
	}
	if got := strings.Join(frags, ""); got != "Dr. A teaches CS211." {
		t.Errorf("joined fragments = %q", got)
	}
	if len(frags) != 3 {
		t.Errorf("expected 3 fragments, got %d", len(frags))
	}
	if gotAuth != "Bearer k" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotReq.Model != "m" || !gotReq.Stream {
		t.Errorf("unexpected request: %+v", gotReq)
	}
}

func TestGPTRunStreamMidStreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, sseChunk("one"))
		fmt.Fprint(w, "data: {\"error\":{\"message\":\"overloaded\"}}\n\n")
		fmt.Fprint(w, sseChunk("never"))
	}))
	defer srv.Close()

	c := NewGPTClient(GPTConfig{APIKey: "k", BaseURL: srv.URL})
	ch, errCh, err := c.RunStream(context.Background(), ChatRequest{})
	if err != nil {
		t.Fatalf("RunStream: %v", err)
	}
	frags, streamErr := collect(t, ch, errCh)
	if streamErr == nil || !strings.Contains(streamErr.Error(), "overloaded") {
		t.Fatalf("expected overloaded error, got %v", streamErr)
	}
	if len(frags) != 1 || frags[0] != "one" {
		t.Errorf("fragments = %v", frags)
	}
}

func TestGPTRunStreamTruncated(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, sseChunk("one "))
		fmt.Fprint(w, sseChunk("two "))
	}))
	defer srv.Close()

	c := NewGPTClient(GPTConfig{APIKey: "k", BaseURL: srv.URL})
	ch, errCh, err := c.RunStream(context.Background(), ChatRequest{})
	if err != nil {
		t.Fatalf("RunStream: %v", err)
	}
	frags, streamErr := collect(t, ch, errCh)
	if !errors.Is(streamErr, io.ErrUnexpectedEOF) {
		t.Fatalf("expected io.ErrUnexpectedEOF, got %v", streamErr)
	}
	if strings.Join(frags, "") != "one two " {
		t.Errorf("fragments = %q", frags)
	}
}

func TestGPTRunStreamMalformedFrame(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, sseChunk("one "))
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"cont\n\n")
		fmt.Fprint(w, sseChunk("three"))
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	c := NewGPTClient(GPTConfig{APIKey: "k", BaseURL: srv.URL})
	ch, errCh, err := c.RunStream(context.Background(), ChatRequest{})
	if err != nil {
		t.Fatalf("RunStream: %v", err)
	}
	frags, streamErr := collect(t, ch, errCh)
	if streamErr == nil {
		t.Fatal("expected an error for the malformed frame")
	}
	if len(frags) != 1 || frags[0] != "one " {
		t.Errorf("fragments after a bad frame = %q", frags)
	}
}

func TestOllamaRunStreamTruncated(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, `{"message":{"role":"assistant","content":"Hel"},"done":false}`)
	}))
	defer srv.Close()

	c := NewOllamaClient(srv.URL, "llama3")
	ch, errCh, err := c.RunStream(context.Background(), ChatRequest{})
	if err != nil {
		t.Fatalf("RunStream: %v", err)
	}
	frags, streamErr := collect(t, ch, errCh)
	if !errors.Is(streamErr, io.ErrUnexpectedEOF) {
		t.Fatalf("expected io.ErrUnexpectedEOF, got %v", streamErr)
	}
	if len(frags) != 1 || frags[0] != "Hel" {
		t.Errorf("fragments = %q", frags)
	}
}

func TestGPTRunStreamMissingKey(t *testing.T) {
	c := NewGPTClient(GPTConfig{BaseURL: "http://127.0.0.1:1"})
	if _, _, err := c.RunStream(context.Background(), ChatRequest{}); !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("expected ErrMissingAPIKey, got %v", err)
	}
	if _, err := c.Embed(context.Background(), "x"); !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("expected ErrMissingAPIKey from Embed, got %v", err)
	}
}

func TestGPTRunStreamBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewGPTClient(GPTConfig{APIKey: "bad", BaseURL: srv.URL})
	_, _, err := c.RunStream(context.Background(), ChatRequest{})
	if err == nil || !strings.Contains(err.Error(), "401") {
		t.Fatalf("expected 401 error, got %v", err)
	}
}

func TestGPTEmbed(t *testing.T) {
	var got embeddingRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embeddings" {
			t.Errorf("path = %s", r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		fmt.Fprint(w, `{"data":[{"index":0,"embedding":[0.5,-1,2]}]}`)
	}))
	defer srv.Close()

	c := NewGPTClient(GPTConfig{APIKey: "k", BaseURL: srv.URL, EmbeddingModel: "emb"})
	vec, err := c.Embed(context.Background(), "Who teaches CS211?")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(vec) != 3 || vec[0] != 0.5 || vec[1] != -1 || vec[2] != 2 {
		t.Errorf("vector = %v", vec)
	}
	if got.Input != "Who teaches CS211?" || got.Model != "emb" {
		t.Errorf("request = %+v", got)
	}
}

func TestGPTEmbedEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":[]}`)
	}))
	defer srv.Close()

	c := NewGPTClient(GPTConfig{APIKey: "k", BaseURL: srv.URL})
	if _, err := c.Embed(context.Background(), "x"); err == nil {
		t.Fatal("expected error for empty embedding response")
	}
}

func TestOllamaRunStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat" {
			t.Errorf("path = %s", r.URL.Path)
		}
		fmt.Fprintln(w, `{"message":{"role":"assistant","content":"Hel"},"done":false}`)
		fmt.Fprintln(w, `{"message":{"role":"assistant","content":"lo"},"done":false}`)
		fmt.Fprintln(w, `{"message":{"role":"assistant","content":""},"done":true}`)
	}))
	defer srv.Close()

	c := NewOllamaClient(srv.URL, "llama3")
	ch, errCh, err := c.RunStream(context.Background(), ChatRequest{})
	if err != nil {
		t.Fatalf("RunStream: %v", err)
	}
	frags, streamErr := collect(t, ch, errCh)
	if streamErr != nil {
		t.Fatalf("stream error: %v", streamErr)
	}
	if strings.Join(frags, "") != "Hello" {
		t.Errorf("fragments = %v", frags)
	}
}

func TestGroqClientBaseURL(t *testing.T) {
	c := NewGroqClient("k", "")
	if c.baseURL != groqBaseURL {
		t.Errorf("baseURL = %s", c.baseURL)
	}
	if c.model == "" {
		t.Error("expected a default model")
	}
}
