// profchat/client/client.go
package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	httputils "profchat/profchat/utils/http"
	"profchat/profchat/utils/logging"

	"go.uber.org/zap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ErrEmptyMessage is returned for blank input; the conversation is left alone.
var ErrEmptyMessage = errors.New("empty message")

const readBufferSize = 4096

type Client struct {
	endpoint string
	token    string
	http     *http.Client
}

type Option func(*Client)

// WithToken sends an identity provider session token as a bearer header.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// New returns a client for the relay at serverURL (e.g. http://localhost:8000).
func New(serverURL string, opts ...Option) *Client {
	c := &Client{
		endpoint: strings.TrimRight(serverURL, "/") + "/api/chat",
		http:     &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Send submits text and streams the answer into conv. onUpdate runs after
// every appended chunk. On failure the partial answer stays in place and the
// error is both returned and recorded on conv.
func (c *Client) Send(ctx context.Context, conv *Conversation, text string, onUpdate func()) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyMessage
	}
	if onUpdate == nil {
		onUpdate = func() {}
	}

	history := conv.beginExchange(text)
	onUpdate()

	err := c.stream(ctx, history, func(chunk string) {
		conv.extendLast(chunk)
		onUpdate()
	})
	if err != nil {
		logging.ErrorLogger.Error("chat exchange failed", zap.Error(err))
		conv.setErr(err)
		onUpdate()
	}
	return err
}

func (c *Client) stream(ctx context.Context, history interface{}, emit func(string)) error {
	body, err := httputils.PostStream(ctx, c.http, c.endpoint, c.headers(), history)
	if err != nil {
		return fmt.Errorf("chat request: %w", err)
	}
	defer body.Close()

	// the decoder holds back split runes until the rest arrives
	reader := transform.NewReader(body, unicode.UTF8.NewDecoder())
	buf := make([]byte, readBufferSize)
	for {
		n, readErr := reader.Read(buf)
		if n > 0 {
			emit(string(buf[:n]))
		}
		if readErr == io.EOF {
			return nil
		}
		if readErr != nil {
			return fmt.Errorf("chat stream: %w", readErr)
		}
	}
}

func (c *Client) headers() map[string]string {
	h := httputils.Bearer(c.token)
	if h == nil {
		h = map[string]string{}
	}
	h["Accept"] = "text/plain"
	return h
}
