package tavily_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/aretw0/tandem/pkg/adapters/tavily"
	"github.com/aretw0/tandem/pkg/ports"
	"github.com/cenkalti/backoff/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func zeroBackOff() backoff.BackOff { return &backoff.ZeroBackOff{} }

func newClient(t *testing.T, handler http.HandlerFunc, opts ...tavily.Option) *tavily.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	base := []tavily.Option{tavily.WithBaseURL(srv.URL), tavily.WithBackOff(zeroBackOff)}
	return tavily.New("tvly-test", append(base, opts...)...)
}

func TestClient_Search(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "Bearer tvly-test", r.Header.Get("Authorization"))

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "UK GDP 2021-2023", req["query"])
		assert.Equal(t, float64(3), req["max_results"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"query": "UK GDP 2021-2023",
			"results": [
				{"title": "GDP - ONS", "url": "https://www.ons.gov.uk/gdp", "content": "GDP grew 0.1%", "score": 0.97},
				{"title": "World Bank", "url": "https://data.worldbank.org", "content": "3.3 trillion", "score": 0.81}
			],
			"response_time": 1.2
		}`)
	}, tavily.WithMaxResults(3))

	results, err := client.Search(context.Background(), "UK GDP 2021-2023")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, ports.SearchResult{Title: "GDP - ONS", URL: "https://www.ons.gov.uk/gdp", Content: "GDP grew 0.1%", Score: 0.97}, results[0])
}

func TestClient_RetriesRateLimit(t *testing.T) {
	var calls atomic.Int32
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = io.WriteString(w, `{"results": []}`)
	})

	results, err := client.Search(context.Background(), "q")
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Equal(t, int32(2), calls.Load())
}

func TestClient_PermanentError(t *testing.T) {
	var calls atomic.Int32
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"detail": {"error": "Unauthorized: missing or invalid API key."}}`)
	})

	_, err := client.Search(context.Background(), "q")

	var statusErr *tavily.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusUnauthorized, statusErr.StatusCode)
	assert.Contains(t, statusErr.Body, "invalid API key")
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_GivesUpAfterMaxTries(t *testing.T) {
	var calls atomic.Int32
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}, tavily.WithMaxTries(2))

	_, err := client.Search(context.Background(), "q")
	assert.Error(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestClient_MissingKey(t *testing.T) {
	_, err := tavily.New("").Search(context.Background(), "q")
	assert.ErrorIs(t, err, tavily.ErrMissingAPIKey)
}

func TestClient_DoesNotRetryMalformedResponse(t *testing.T) {
	var calls atomic.Int32
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = io.WriteString(w, `{"results": [`)
	})

	_, err := client.Search(context.Background(), "q")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode response")
	assert.Equal(t, int32(1), calls.Load())
}
