package runner_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/aretw0/tandem/pkg/domain"
	"github.com/aretw0/tandem/pkg/ports"
	"github.com/aretw0/tandem/pkg/runner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextHandler_Message(t *testing.T) {
	var out bytes.Buffer
	h := runner.NewTextHandler(nil, &out,
		runner.WithTextHandlerRenderer(func(s string) (string, error) { return "Rendered: " + s, nil }),
		runner.WithTextHandlerLabel(strings.ToUpper),
	)

	require.NoError(t, h.Message(context.Background(), domain.NewAssistantMessage("researcher", "GDP data")))
	assert.Equal(t, "\nRESEARCHER\nRendered: GDP data\n", out.String())
}

func TestTextHandler_Input(t *testing.T) {
	var out bytes.Buffer
	h := runner.NewTextHandler(strings.NewReader("  my request \n"), &out)

	val, err := h.Input(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "my request", val)
	assert.Equal(t, "> ", out.String())
}

func TestTextHandler_ProgressQuietByDefault(t *testing.T) {
	var out bytes.Buffer
	h := runner.NewTextHandler(nil, &out)

	require.NoError(t, h.Progress(context.Background(), &domain.NodeEvent{EventBase: domain.EventBase{Type: domain.EventNodeEnter}, Node: "researcher"}))
	assert.Empty(t, out.String())
}

func TestJSONHandler_Records(t *testing.T) {
	var out bytes.Buffer
	h := runner.NewJSONHandler(strings.NewReader(""), &out)
	ctx := context.Background()

	require.NoError(t, h.Progress(ctx, &domain.NodeEvent{EventBase: domain.EventBase{Type: domain.EventNodeEnter, RunID: "r1"}, Node: "researcher", Step: 1}))
	require.NoError(t, h.Message(ctx, domain.NewAssistantMessage("researcher", "data")))
	require.NoError(t, h.SystemOutput(ctx, "done"))
	require.NoError(t, h.Progress(ctx, "ignored"))

	scanner := bufio.NewScanner(&out)
	var records []map[string]any
	for scanner.Scan() {
		var rec map[string]any
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &rec))
		records = append(records, rec)
	}
	require.Len(t, records, 3)

	assert.Equal(t, "node_enter", records[0]["type"])
	assert.Equal(t, "researcher", records[0]["event"].(map[string]any)["node"])
	assert.Equal(t, "message", records[1]["type"])
	assert.Equal(t, "researcher", records[1]["message"].(map[string]any)["name"])
	assert.Equal(t, "system", records[2]["type"])
	assert.Equal(t, "done", records[2]["text"])
}

func TestJSONHandler_Input(t *testing.T) {
	in := strings.NewReader("\"quoted request\"\n\n{\"request\": \"object request\"}\nplain request\n")
	h := runner.NewJSONHandler(in, &bytes.Buffer{})
	ctx := context.Background()

	for _, want := range []string{"quoted request", "object request", "plain request"} {
		got, err := h.Input(ctx)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := h.Input(ctx)
	assert.Error(t, err)
}

type recordingExecutor struct {
	codes []string
}

func (r *recordingExecutor) Execute(ctx context.Context, code string) (ports.ExecResult, error) {
	r.codes = append(r.codes, code)
	return ports.ExecResult{Output: "ok"}, nil
}

func TestConfirmationMiddleware(t *testing.T) {
	tests := []struct {
		answer  string
		allowed bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{"n\n", false},
		{"\n", false},
	}
	for _, tt := range tests {
		t.Run(strings.TrimSpace(tt.answer), func(t *testing.T) {
			var out bytes.Buffer
			h := runner.NewTextHandler(strings.NewReader(tt.answer), &out)
			next := &recordingExecutor{}

			exec := runner.ConfirmationMiddleware(h)(next)
			res, err := exec.Execute(context.Background(), "print(1)")
			require.NoError(t, err)

			assert.Contains(t, out.String(), "Allow execution?")
			if tt.allowed {
				assert.Equal(t, []string{"print(1)"}, next.codes)
				assert.False(t, res.Failed())
			} else {
				assert.Empty(t, next.codes)
				assert.True(t, res.Failed())
				assert.Equal(t, runner.DeniedMessage, res.Error)
			}
		})
	}
}
