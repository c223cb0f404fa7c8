package middleware

import (
	"context"
	"fmt"
	"strings"

	"github.com/aretw0/tandem/pkg/ports"
)

type outputLimitMiddleware struct {
	next     ports.CodeExecutor
	maxLines int
	maxBytes int
}

// NewOutputLimitMiddleware creates a middleware that truncates execution output and
// error text to at most maxLines lines and maxBytes bytes. Non-positive limits are ignored.
func NewOutputLimitMiddleware(maxLines, maxBytes int) ExecutorMiddleware {
	return func(next ports.CodeExecutor) ports.CodeExecutor {
		return &outputLimitMiddleware{next: next, maxLines: maxLines, maxBytes: maxBytes}
	}
}

func (m *outputLimitMiddleware) Execute(ctx context.Context, code string) (ports.ExecResult, error) {
	res, err := m.next.Execute(ctx, code)
	if err != nil {
		return res, err
	}
	res.Output = m.truncate(res.Output)
	res.Error = m.truncate(res.Error)
	return res, nil
}

func (m *outputLimitMiddleware) truncate(s string) string {
	return truncateToMaxBytes(truncateToMaxLines(s, m.maxLines), m.maxBytes)
}

// truncateToMaxLines truncates content to the specified number of lines.
func truncateToMaxLines(content string, maxLines int) string {
	if maxLines <= 0 {
		return content
	}

	lines := strings.Split(content, "\n")
	if len(lines) <= maxLines {
		return content
	}

	return strings.Join(lines[:maxLines], "\n") + fmt.Sprintf("\n... (truncated %d lines)", len(lines)-maxLines)
}

// truncateToMaxBytes cuts content on a rune boundary.
func truncateToMaxBytes(content string, maxBytes int) string {
	if maxBytes <= 0 || len(content) <= maxBytes {
		return content
	}

	cut := maxBytes
	for cut > 0 && !isRuneStart(content[cut]) {
		cut--
	}
	return content[:cut] + "\n... (truncated)"
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
