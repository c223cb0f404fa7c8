package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aretw0/tandem/pkg/domain"
	"github.com/aretw0/tandem/pkg/ports"
)

// SearchToolName is the name the model uses to call the web search tool.
const SearchToolName = "tavily_search_results_json"

// SearchArgs are the arguments of the web search tool.
type SearchArgs struct {
	Query string `json:"query" mapstructure:"query" jsonschema:"required" jsonschema_description:"Search query to look up"`
}

// SearchTool exposes a ports.Searcher to the model.
// Search failures are returned as errors and abort the agent invocation.
type SearchTool struct {
	searcher ports.Searcher
}

// NewSearchTool wraps a searcher.
func NewSearchTool(s ports.Searcher) *SearchTool {
	return &SearchTool{searcher: s}
}

func (t *SearchTool) Spec() domain.Tool {
	return domain.Tool{
		Name:        SearchToolName,
		Description: "A search engine optimized for comprehensive, accurate, and trusted results. Useful for when you need to answer questions about current events. Input should be a search query.",
		Parameters:  SchemaFor[SearchArgs](),
	}
}

func (t *SearchTool) Call(ctx context.Context, arguments string) (string, error) {
	args, err := DecodeArgs[SearchArgs](arguments)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(args.Query) == "" {
		return "", fmt.Errorf("search query is empty")
	}

	results, err := t.searcher.Search(ctx, args.Query)
	if err != nil {
		return "", &domain.CapabilityError{Capability: "search", Err: err}
	}
	if results == nil {
		results = []ports.SearchResult{}
	}

	data, err := json.Marshal(results)
	if err != nil {
		return "", fmt.Errorf("failed to encode search results: %w", err)
	}
	return string(data), nil
}
