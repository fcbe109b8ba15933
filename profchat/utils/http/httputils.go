// profchat/utils/http/httputils.go
package httputils

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// StatusError is returned when the upstream answers with a non-2xx status.
type StatusError struct {
	URL    string
	Status string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: bad status: %s", e.URL, e.Status)
	}
	return fmt.Sprintf("%s: bad status: %s - %s", e.URL, e.Status, e.Body)
}

// Bearer builds the Authorization header used by OpenAI compatible APIs.
func Bearer(apiKey string) map[string]string {
	if apiKey == "" {
		return nil
	}
	return map[string]string{"Authorization": "Bearer " + apiKey}
}

func PostJSON(ctx context.Context, client *http.Client, url string, headers map[string]string, body interface{}, resp interface{}) error {
	r, err := do(ctx, client, http.MethodPost, url, headers, body)
	if err != nil {
		return err
	}
	defer r.Body.Close()
	if resp != nil {
		return json.NewDecoder(r.Body).Decode(resp)
	}
	return nil
}

func GetJSON(ctx context.Context, client *http.Client, url string, headers map[string]string, resp interface{}) error {
	r, err := do(ctx, client, http.MethodGet, url, headers, nil)
	if err != nil {
		return err
	}
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(resp)
}

// PostStream posts body and hands back the open response body. The caller owns it.
func PostStream(ctx context.Context, client *http.Client, url string, headers map[string]string, body interface{}) (io.ReadCloser, error) {
	r, err := do(ctx, client, http.MethodPost, url, headers, body)
	if err != nil {
		return nil, err
	}
	return r.Body, nil
}

func do(ctx context.Context, client *http.Client, method, url string, headers map[string]string, body interface{}) (*http.Response, error) {
	if client == nil {
		client = http.DefaultClient
	}
	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(jsonBody)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	r, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	if r.StatusCode < 200 || r.StatusCode >= 300 {
		defer r.Body.Close()
		b, _ := io.ReadAll(io.LimitReader(r.Body, 2048))
		return nil, &StatusError{URL: url, Status: r.Status, Code: r.StatusCode, Body: strings.TrimSpace(string(b))}
	}
	return r, nil
}
