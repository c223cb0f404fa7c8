// Package middleware decorates capabilities (search, code execution) with
// cross-cutting behaviour such as caching, output limits and secret masking.
package middleware

import "github.com/aretw0/tandem/pkg/ports"

// SearcherMiddleware allows wrapping a Searcher to add behavior.
type SearcherMiddleware func(ports.Searcher) ports.Searcher

// ExecutorMiddleware allows wrapping a CodeExecutor to add behavior.
type ExecutorMiddleware func(ports.CodeExecutor) ports.CodeExecutor

// WrapSearcher applies mws to s; the first middleware is the outermost.
func WrapSearcher(s ports.Searcher, mws ...SearcherMiddleware) ports.Searcher {
	for i := len(mws) - 1; i >= 0; i-- {
		s = mws[i](s)
	}
	return s
}

// WrapExecutor applies mws to e; the first middleware is the outermost.
func WrapExecutor(e ports.CodeExecutor, mws ...ExecutorMiddleware) ports.CodeExecutor {
	for i := len(mws) - 1; i >= 0; i-- {
		e = mws[i](e)
	}
	return e
}
