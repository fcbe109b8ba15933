// profchat/sources/pinecone/pinecone.go
package pinecone

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"profchat/profchat/utils/logging"
	"profchat/profchat/utils/types"

	pc "github.com/pinecone-io/go-pinecone/v3/pinecone"
	"go.uber.org/zap"
)

var (
	ErrMissingAPIKey = errors.New("pinecone: missing API key")
	ErrNoIndex       = errors.New("pinecone: neither index host nor index name configured")
)

// controlPlane is the slice of *pc.Client used to find an index host.
type controlPlane interface {
	DescribeIndex(ctx context.Context, idxName string) (*pc.Index, error)
}

// dataPlane is the slice of *pc.IndexConnection used to query.
type dataPlane interface {
	QueryByVectorValues(ctx context.Context, in *pc.QueryByVectorValuesRequest) (*pc.QueryVectorsResponse, error)
}

// Index queries one Pinecone index namespace.
type Index struct {
	name      string
	namespace string
	control   controlPlane
	connect   func(host string) (dataPlane, error)

	mu   sync.Mutex
	host string
	conn dataPlane
}

type Config struct {
	APIKey    string
	IndexName string
	// Host skips the describe-index lookup when set (e.g. "rag-abc.svc.pinecone.io").
	Host      string
	Namespace string
	// ControlPlane overrides https://api.pinecone.io.
	ControlPlane string
	Timeout      time.Duration
}

// NewIndex builds the SDK client. Without an API key it still returns an
// Index whose queries fail with ErrMissingAPIKey, so the server can start.
func NewIndex(cfg Config) (*Index, error) {
	ix := &Index{
		name:      cfg.IndexName,
		namespace: cfg.Namespace,
		host:      normalizeHost(cfg.Host),
	}
	if cfg.APIKey == "" {
		return ix, nil
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}

	client, err := pc.NewClient(pc.NewClientParams{
		ApiKey:     cfg.APIKey,
		Host:       cfg.ControlPlane,
		RestClient: &http.Client{Timeout: cfg.Timeout},
	})
	if err != nil {
		return nil, fmt.Errorf("pinecone client: %w", err)
	}
	ix.control = client
	ix.connect = func(host string) (dataPlane, error) {
		return client.Index(pc.NewIndexConnParams{Host: host, Namespace: cfg.Namespace})
	}
	return ix, nil
}

func normalizeHost(host string) string {
	host = strings.TrimRight(strings.TrimSpace(host), "/")
	if host == "" {
		return ""
	}
	if !strings.HasPrefix(host, "http://") && !strings.HasPrefix(host, "https://") {
		host = "https://" + host
	}
	return host
}

// Query returns up to topK nearest neighbours of vector, best first.
func (ix *Index) Query(ctx context.Context, vector []float32, topK int) ([]types.Match, error) {
	defer logging.LogDuration(ctx, "pinecone_query")()

	if ix.connect == nil {
		return nil, ErrMissingAPIKey
	}
	if topK <= 0 {
		topK = 3
	}
	conn, err := ix.connection(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := conn.QueryByVectorValues(ctx, &pc.QueryByVectorValuesRequest{
		Vector:          vector,
		TopK:            uint32(topK),
		IncludeMetadata: true,
	})
	if err != nil {
		return nil, fmt.Errorf("pinecone query: %w", err)
	}

	matches := make([]types.Match, 0, len(resp.Matches))
	for _, m := range resp.Matches {
		if m == nil || m.Vector == nil {
			continue
		}
		var md map[string]any
		if m.Vector.Metadata != nil {
			md = m.Vector.Metadata.AsMap()
		}
		matches = append(matches, types.Match{
			ID:      m.Vector.Id,
			Subject: metadataString(md, "subject"),
			Stars:   metadataString(md, "stars"),
			Score:   m.Score,
		})
	}
	return matches, nil
}

// connection resolves the data plane host once and keeps the connection.
func (ix *Index) connection(ctx context.Context) (dataPlane, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if ix.conn != nil {
		return ix.conn, nil
	}
	if ix.host == "" {
		if ix.name == "" {
			return nil, ErrNoIndex
		}
		desc, err := ix.control.DescribeIndex(ctx, ix.name)
		if err != nil {
			return nil, fmt.Errorf("pinecone describe index %q: %w", ix.name, err)
		}
		if desc == nil || desc.Host == "" {
			return nil, fmt.Errorf("pinecone describe index %q: empty host", ix.name)
		}
		ix.host = normalizeHost(desc.Host)
		logging.AppLogger.Info("pinecone index resolved", zap.String("index", ix.name), zap.String("host", ix.host))
	}

	conn, err := ix.connect(ix.host)
	if err != nil {
		return nil, fmt.Errorf("pinecone index connection: %w", err)
	}
	ix.conn = conn
	return conn, nil
}

// metadataString renders a metadata value as text; numbers lose a trailing ".0".
func metadataString(md map[string]any, key string) string {
	v, ok := md[key]
	if !ok || v == nil {
		return ""
	}
	switch val := v.(type) {
	case string:
		return val
	default:
		return fmt.Sprint(val)
	}
}
