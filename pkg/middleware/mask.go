package middleware

import (
	"context"
	"regexp"

	"github.com/aretw0/tandem/pkg/ports"
)

// DefaultSecretPatterns match common API key formats.
var DefaultSecretPatterns = []string{
	`sk-[A-Za-z0-9_-]{16,}`,
	`tvly-[A-Za-z0-9_-]{16,}`,
	`(?i)(api[_-]?key|token|secret|password)\s*[:=]\s*\S+`,
}

type maskMiddleware struct {
	next     ports.CodeExecutor
	patterns []*regexp.Regexp
}

// NewMaskMiddleware creates a middleware that replaces any match of the patterns in
// execution output with "***", so secrets in the environment never reach the model.
func NewMaskMiddleware(patternStrings []string) ExecutorMiddleware {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		patterns[i] = regexp.MustCompile(p)
	}
	return func(next ports.CodeExecutor) ports.CodeExecutor {
		return &maskMiddleware{next: next, patterns: patterns}
	}
}

func (m *maskMiddleware) Execute(ctx context.Context, code string) (ports.ExecResult, error) {
	res, err := m.next.Execute(ctx, code)
	if err != nil {
		return res, err
	}
	res.Output = m.mask(res.Output)
	res.Error = m.mask(res.Error)
	return res, nil
}

func (m *maskMiddleware) mask(s string) string {
	for _, p := range m.patterns {
		s = p.ReplaceAllString(s, "***")
	}
	return s
}
