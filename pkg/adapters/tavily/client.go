package tavily

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/tandem/internal/logging"
	"github.com/aretw0/tandem/pkg/ports"
	"github.com/cenkalti/backoff/v5"
)

const (
	// DefaultBaseURL is the public Tavily API.
	DefaultBaseURL = "https://api.tavily.com"

	// DefaultMaxResults is the number of hits requested per query.
	DefaultMaxResults = 5

	// DefaultTimeout for HTTP requests
	DefaultTimeout = 30 * time.Second
)

// ErrMissingAPIKey is returned by Search when the client has no credentials.
var ErrMissingAPIKey = errors.New("tavily api key is not set")

// StatusError reports a non-2xx answer from the API.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("tavily returned HTTP %d: %s", e.StatusCode, e.Body)
}

// Client implements ports.Searcher on the Tavily search API.
type Client struct {
	apiKey     string
	baseURL    string
	maxResults int
	depth      string
	httpClient *http.Client
	maxTries   uint
	newBackOff func() backoff.BackOff
	logger     *slog.Logger
}

// Option configures the Client.
type Option func(*Client)

// WithBaseURL overrides the API endpoint.
func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(url, "/")
	}
}

// WithMaxResults sets the number of results per query.
func WithMaxResults(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxResults = n
		}
	}
}

// WithSearchDepth selects "basic" or "advanced" search.
func WithSearchDepth(depth string) Option {
	return func(c *Client) {
		c.depth = depth
	}
}

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithMaxTries bounds the attempts per search (including the first one).
func WithMaxTries(n uint) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxTries = n
		}
	}
}

// WithBackOff sets the retry policy between attempts.
func WithBackOff(fn func() backoff.BackOff) Option {
	return func(c *Client) {
		c.newBackOff = fn
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a search client authenticated with apiKey.
func New(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:     apiKey,
		baseURL:    DefaultBaseURL,
		maxResults: DefaultMaxResults,
		depth:      "basic",
		httpClient: &http.Client{Timeout: DefaultTimeout},
		maxTries:   3,
		newBackOff: func() backoff.BackOff {
			return backoff.NewExponentialBackOff()
		},
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type searchRequest struct {
	Query       string `json:"query"`
	MaxResults  int    `json:"max_results"`
	SearchDepth string `json:"search_depth,omitempty"`
}

type searchResponse struct {
	Query   string               `json:"query"`
	Results []ports.SearchResult `json:"results"`
}

// Search runs a web search for query.
// Rate limits, server errors and network failures are retried with exponential backoff.
func (c *Client) Search(ctx context.Context, query string) ([]ports.SearchResult, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	body, err := json.Marshal(searchRequest{Query: query, MaxResults: c.maxResults, SearchDepth: c.depth})
	if err != nil {
		return nil, err
	}

	operation := func() ([]ports.SearchResult, error) {
		results, err := c.search(ctx, body)
		if err != nil && !c.retryable(ctx, err) {
			return nil, backoff.Permanent(err)
		}
		return results, err
	}

	results, err := backoff.Retry(ctx, operation,
		backoff.WithMaxTries(c.maxTries),
		backoff.WithBackOff(c.newBackOff()),
	)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	c.logger.Debug("search done", "query", query, "results", len(results))
	return results, nil
}

// search performs a single attempt
func (c *Client) search(ctx context.Context, body []byte) ([]ports.SearchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return nil, &StatusError{StatusCode: res.StatusCode, Body: strings.TrimSpace(string(b))}
	}

	var sr searchResponse
	if err := json.NewDecoder(res.Body).Decode(&sr); err != nil {
		return nil, backoff.Permanent(fmt.Errorf("failed to decode response: %w", err))
	}
	if sr.Results == nil {
		sr.Results = []ports.SearchResult{}
	}
	return sr.Results, nil
}

func (c *Client) retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode == http.StatusTooManyRequests || statusErr.StatusCode >= 500
	}
	return true
}
