package rtst

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"emperror.dev/errors"
	"github.com/goccy/go-json"
	"github.com/klauspost/compress/zlib"

	"github.com/voluzi/rtst/pkg/series"
)

var (
	// httpClient is a shared HTTP client with reasonable timeout
	httpClient = &http.Client{
		Timeout: 30 * time.Second,
	}
)

// Client polls an rtst server.
type Client struct {
	url string
}

// NewClient creates a client for the server at host:port.
func NewClient(host string, port int) *Client {
	return &Client{url: fmt.Sprintf("http://%s:%d", host, port)}
}

// NewClientFromURL creates a client for a server base URL.
func NewClientFromURL(url string) *Client {
	return &Client{url: strings.TrimSuffix(url, "/")}
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var body io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == encodingDeflate {
		zr, err := zlib.NewReader(resp.Body)
		if err != nil {
			return nil, errors.Wrap(err, "error reading deflate response")
		}
		defer zr.Close()
		body = zr
	}

	b, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	return b, nil
}

// Query fetches the history of a type (cpu, io_bw, mem or net) newer than
// since, in epoch milliseconds.
func (c *Client) Query(ctx context.Context, queryType string, since int64) (*series.Document, error) {
	q := Query{Type: queryType, Since: since}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url+"/", strings.NewReader(q.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept-Encoding", encodingDeflate)

	b, err := c.do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to query %s history", queryType)
	}
	return series.Decode(bytes.NewReader(b))
}

// Health returns the server state.
func (c *Client) Health(ctx context.Context) (*Health, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url+"/health", nil)
	if err != nil {
		return nil, err
	}

	b, err := c.do(req)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get health")
	}

	health := &Health{}
	if err := json.Unmarshal(b, health); err != nil {
		return nil, errors.Wrap(err, "failed to parse health")
	}
	return health, nil
}
