package openai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/aretw0/tandem/internal/logging"
	"github.com/aretw0/tandem/pkg/domain"
	"github.com/aretw0/tandem/pkg/ports"
	"github.com/cenkalti/backoff/v5"
	backend "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gpt-4o"

// ErrEmptyResponse is returned when the API answers without any choice.
var ErrEmptyResponse = errors.New("model returned no choices")

// ChatModel implements ports.ChatModel on the OpenAI chat completions API
// (or any compatible endpoint).
type ChatModel struct {
	client     *backend.Client
	model      string
	baseURL    string
	httpClient *http.Client
	maxTries   uint
	newBackOff func() backoff.BackOff
	logger     *slog.Logger
}

// Option configures the ChatModel.
type Option func(*ChatModel)

// WithModel sets the model name.
func WithModel(model string) Option {
	return func(m *ChatModel) {
		if model != "" {
			m.model = model
		}
	}
}

// WithBaseURL points the client at an OpenAI compatible endpoint.
func WithBaseURL(url string) Option {
	return func(m *ChatModel) {
		m.baseURL = url
	}
}

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(c *http.Client) Option {
	return func(m *ChatModel) {
		m.httpClient = c
	}
}

// WithMaxTries bounds the attempts per completion (including the first one).
func WithMaxTries(n uint) Option {
	return func(m *ChatModel) {
		if n > 0 {
			m.maxTries = n
		}
	}
}

// WithBackOff sets the retry policy between attempts.
func WithBackOff(fn func() backoff.BackOff) Option {
	return func(m *ChatModel) {
		m.newBackOff = fn
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *ChatModel) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// New creates a chat model authenticated with apiKey.
func New(apiKey string, opts ...Option) *ChatModel {
	m := &ChatModel{
		model:    DefaultModel,
		maxTries: 3,
		newBackOff: func() backoff.BackOff {
			return backoff.NewExponentialBackOff()
		},
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}

	// Retries are handled here, not by the SDK.
	clientOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if m.baseURL != "" {
		base := m.baseURL
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		clientOpts = append(clientOpts, option.WithBaseURL(base))
	}
	if m.httpClient != nil {
		clientOpts = append(clientOpts, option.WithHTTPClient(m.httpClient))
	}
	m.client = backend.NewClient(clientOpts...)
	return m
}

// Model returns the configured model name.
func (m *ChatModel) Model() string {
	return m.model
}

// Complete sends one chat completion request.
// Rate limits, server errors and network failures are retried with exponential backoff;
// other API errors fail immediately.
func (m *ChatModel) Complete(ctx context.Context, req ports.ChatRequest) (ports.ChatResponse, error) {
	params := backend.ChatCompletionNewParams{
		Model:    backend.F(m.model),
		Messages: backend.F(toMessages(req)),
	}
	if len(req.Tools) > 0 {
		params.Tools = backend.F(toTools(req.Tools))
	}

	attempt := 0
	operation := func() (*backend.ChatCompletion, error) {
		attempt++
		completion, err := m.client.Chat.Completions.New(ctx, params)
		if err != nil {
			if !retryable(ctx, err) {
				return nil, backoff.Permanent(err)
			}
			m.logger.Warn("chat completion failed, retrying", "attempt", attempt, "err", err)
			return nil, err
		}
		return completion, nil
	}

	start := time.Now()
	completion, err := backoff.Retry(ctx, operation,
		backoff.WithMaxTries(m.maxTries),
		backoff.WithBackOff(m.newBackOff()),
	)
	if err != nil {
		return ports.ChatResponse{}, fmt.Errorf("chat completion failed after %d attempts: %w", attempt, err)
	}
	if len(completion.Choices) == 0 {
		return ports.ChatResponse{}, ErrEmptyResponse
	}

	msg := completion.Choices[0].Message
	resp := ports.ChatResponse{
		Content: msg.Content,
		Usage: ports.Usage{
			InputTokens:  completion.Usage.PromptTokens,
			OutputTokens: completion.Usage.CompletionTokens,
		},
	}
	for _, tc := range msg.ToolCalls {
		resp.ToolCalls = append(resp.ToolCalls, domain.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}

	m.logger.Debug("chat completion",
		"model", m.model,
		"duration", time.Since(start),
		"input_tokens", resp.Usage.InputTokens,
		"output_tokens", resp.Usage.OutputTokens,
		"tool_calls", len(resp.ToolCalls),
	)
	return resp, nil
}

func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	var apiErr *backend.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode >= 500
	}
	return true
}

func toMessages(req ports.ChatRequest) []backend.ChatCompletionMessageParamUnion {
	msgs := make([]backend.ChatCompletionMessageParamUnion, 0, len(req.Turns)+1)
	if req.System != "" {
		msgs = append(msgs, backend.SystemMessage(req.System))
	}

	for _, turn := range req.Turns {
		switch turn.Role {
		case domain.RoleSystem:
			msgs = append(msgs, backend.SystemMessage(turn.Content))
		case domain.RoleAssistant:
			msgs = append(msgs, assistantMessage(turn))
		case domain.RoleTool:
			msgs = append(msgs, backend.ToolMessage(turn.ToolCallID, turn.Content))
		default:
			u := backend.UserMessageParts(backend.TextPart(turn.Content))
			if name := participantName(turn.Name); name != "" {
				u.Name = backend.F(name)
			}
			msgs = append(msgs, u)
		}
	}
	return msgs
}

func assistantMessage(turn ports.ChatTurn) backend.ChatCompletionMessageParamUnion {
	if len(turn.ToolCalls) == 0 {
		return backend.AssistantMessage(turn.Content)
	}

	calls := make([]backend.ChatCompletionMessageToolCallParam, 0, len(turn.ToolCalls))
	for _, tc := range turn.ToolCalls {
		calls = append(calls, backend.ChatCompletionMessageToolCallParam{
			ID:   backend.F(tc.ID),
			Type: backend.F(backend.ChatCompletionMessageToolCallTypeFunction),
			Function: backend.F(backend.ChatCompletionMessageToolCallFunctionParam{
				Name:      backend.F(tc.Name),
				Arguments: backend.F(tc.Arguments),
			}),
		})
	}

	msg := backend.ChatCompletionAssistantMessageParam{
		Role:      backend.F(backend.ChatCompletionAssistantMessageParamRoleAssistant),
		ToolCalls: backend.F(calls),
	}
	if turn.Content != "" {
		msg.Content = backend.F([]backend.ChatCompletionAssistantMessageParamContentUnion{
			backend.TextPart(turn.Content),
		})
	}
	return msg
}

func toTools(tools []domain.Tool) []backend.ChatCompletionToolParam {
	out := make([]backend.ChatCompletionToolParam, 0, len(tools))
	for _, t := range tools {
		params := t.Parameters
		if params == nil {
			params = map[string]any{"type": "object", "properties": map[string]any{}}
		}
		out = append(out, backend.ChatCompletionToolParam{
			Type: backend.F(backend.ChatCompletionToolTypeFunction),
			Function: backend.F(backend.FunctionDefinitionParam{
				Name:        backend.F(t.Name),
				Description: backend.F(t.Description),
				Parameters:  backend.F(backend.FunctionParameters(params)),
			}),
		})
	}
	return out
}

var invalidNameChars = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// participantName maps an author to the character set accepted by the API.
func participantName(name string) string {
	return invalidNameChars.ReplaceAllString(name, "_")
}
