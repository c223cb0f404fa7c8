// Package mcp exposes the Tandem engine as a Model Context Protocol server.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/tandem"
	"github.com/aretw0/tandem/internal/logging"
	"github.com/aretw0/tandem/internal/presentation/graph"
	"github.com/aretw0/tandem/pkg/domain"
	"github.com/aretw0/tandem/pkg/runner"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// GraphURI is the resource holding the Mermaid rendering of the workflow.
const GraphURI = "tandem://graph"

// VisualizeArgs are the arguments of the visualize tool.
type VisualizeArgs struct {
	Request string `json:"request"`
}

// VisualizeResponse is the structured result of the visualize tool.
type VisualizeResponse struct {
	Final    string           `json:"final" jsonschema_description:"Content of the last message of the run"`
	Messages []domain.Message `json:"messages" jsonschema_description:"Full transcript of the run"`
	Error    string           `json:"error,omitempty" jsonschema_description:"Set when the run failed; messages then hold the partial transcript"`
}

// Engine is the part of *tandem.Engine the server needs.
type Engine interface {
	Ask(ctx context.Context, request string) (domain.Conversation, error)
	Graph() *domain.Graph
}

// Server wraps the engine and exposes it as an MCP server.
type Server struct {
	engine    Engine
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(engine Engine, opts ...Option) *Server {
	s := &Server{
		engine:    engine,
		logger:    logging.NewNop(),
		mcpServer: server.NewMCPServer("tandem-mcp", strings.TrimSpace(tandem.Version)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying protocol server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the protocol over SSE on addr until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, addr, baseURL string) error {
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", sseServer.SSEHandler())
	mux.Handle("/message", sseServer.MessageHandler())

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func (s *Server) registerTools() {
	visualize := mcp.NewTool("visualize",
		mcp.WithDescription("Research a topic on the web and chart the findings. Runs the researcher, then the chart generator; the chart generator hands control back to the researcher while its message contains QUESTION_TO_RESEARCHER, and the run ends with its first message that does not."),
		mcp.WithString("request", mcp.Required(), mcp.Description("What to research and draw, e.g. \"Fetch the UK's GDP over the past 3 years, then draw a line graph of it.\"")),
		mcp.WithOutputSchema[VisualizeResponse](),
	)
	s.mcpServer.AddTool(visualize, mcp.NewStructuredToolHandler(s.handleVisualize))

	s.mcpServer.AddTool(mcp.NewTool("describe_graph",
		mcp.WithDescription("Describe the agent workflow as a Mermaid flowchart."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return mcp.NewToolResultText(graph.GenerateMermaid(s.engine.Graph(), nil)), nil
	})
}

func (s *Server) handleVisualize(ctx context.Context, request mcp.CallToolRequest, args VisualizeArgs) (VisualizeResponse, error) {
	clean, err := runner.SanitizeInput(strings.TrimSpace(args.Request))
	if err != nil {
		s.logger.Warn("MCP visualize: input rejected", "err", err, "size", len(args.Request))
		return VisualizeResponse{}, fmt.Errorf("input rejected: %w", err)
	}
	if clean == "" {
		return VisualizeResponse{}, errors.New("request is required")
	}

	conv, err := s.engine.Ask(ctx, clean)
	if err != nil {
		partial, ok := domain.PartialOf(err)
		if !ok {
			return VisualizeResponse{}, fmt.Errorf("run failed: %w", err)
		}
		s.logger.Error("MCP visualize: run failed", "err", err, "messages", partial.Len())
		return VisualizeResponse{Messages: partial.Messages(), Error: err.Error()}, nil
	}

	resp := VisualizeResponse{Messages: conv.Messages()}
	if last, ok := conv.Last(); ok {
		resp.Final = last.Content
	}
	return resp, nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(GraphURI, "Agent workflow",
		mcp.WithMIMEType("text/vnd.mermaid"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      GraphURI,
				MIMEType: "text/vnd.mermaid",
				Text:     graph.GenerateMermaid(s.engine.Graph(), nil),
			},
		}, nil
	})
}
