package runtime

import (
	"fmt"

	"github.com/aretw0/tandem/pkg/domain"
)

// resolveNext evaluates the outgoing edge of a node against the conversation
// produced by that node. Unconditional edges win; otherwise the router is asked
// for a branch key, which must be present in the branch map.
func (e *Engine) resolveNext(from string, conv domain.Conversation) (string, error) {
	if edge, ok := e.graph.Edges[from]; ok {
		return edge.To, nil
	}

	ce, ok := e.graph.Conditionals[from]
	if !ok {
		// Unreachable for a validated graph.
		return "", fmt.Errorf("%w: node %q has no outgoing edge", domain.ErrInvalidGraph, from)
	}

	key := ce.Route(conv)
	target, ok := ce.Branches[key]
	if !ok {
		return "", &domain.RoutingError{Node: from, Key: key, Partial: conv}
	}

	e.logger.Debug("route resolved", domain.KeyNode, from, "key", key, "target", target)
	return target, nil
}
