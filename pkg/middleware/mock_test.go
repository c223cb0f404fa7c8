package middleware_test

import (
	"context"
	"errors"

	"github.com/aretw0/tandem/pkg/ports"
)

type mockSearcher struct {
	results []ports.SearchResult
	err     error
	calls   int
}

func (m *mockSearcher) Search(ctx context.Context, query string) ([]ports.SearchResult, error) {
	m.calls++
	return m.results, m.err
}

type mockExecutor struct {
	result ports.ExecResult
	err    error
}

func (m *mockExecutor) Execute(ctx context.Context, code string) (ports.ExecResult, error) {
	return m.result, m.err
}

// brokenCache fails every operation.
type brokenCache struct{}

func (brokenCache) Get(ctx context.Context, query string) ([]ports.SearchResult, error) {
	return nil, errors.New("connection refused")
}

func (brokenCache) Set(ctx context.Context, query string, results []ports.SearchResult) error {
	return errors.New("connection refused")
}
