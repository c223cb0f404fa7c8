package runtime

import (
	"fmt"
	"strings"

	"github.com/aretw0/tandem/pkg/domain"
)

// Validate checks a graph definition for structural errors:
// missing start node, nodes without exactly one outgoing edge, broken links,
// conditional edges without router or branches, and unreachable nodes.
// All problems are reported at once, wrapped with domain.ErrInvalidGraph.
func Validate(g *domain.Graph) error {
	if g == nil {
		return fmt.Errorf("%w: nil graph", domain.ErrInvalidGraph)
	}

	var problems []string

	if g.Start == "" {
		problems = append(problems, "start node is not set")
	} else if _, ok := g.Nodes[g.Start]; !ok {
		problems = append(problems, fmt.Sprintf("start node '%s' not found", g.Start))
	}

	for _, name := range g.NodeNames() {
		node := g.Nodes[name]
		if node.Name != name {
			problems = append(problems, fmt.Sprintf("node registered as '%s' is named '%s'", name, node.Name))
		}
		if node.Run == nil {
			problems = append(problems, fmt.Sprintf("node '%s' has no work function", name))
		}

		_, hasEdge := g.Edges[name]
		_, hasCond := g.Conditionals[name]
		switch {
		case hasEdge && hasCond:
			problems = append(problems, fmt.Sprintf("node '%s' has both an edge and a conditional edge", name))
		case !hasEdge && !hasCond:
			problems = append(problems, fmt.Sprintf("node '%s' has no outgoing edge", name))
		}
	}

	for from, e := range g.Edges {
		if _, ok := g.Nodes[from]; !ok {
			problems = append(problems, fmt.Sprintf("edge from unknown node '%s'", from))
		}
		if !targetExists(g, e.To) {
			problems = append(problems, fmt.Sprintf("edge '%s' -> '%s' points to a missing node", from, e.To))
		}
	}

	for from, ce := range g.Conditionals {
		if _, ok := g.Nodes[from]; !ok {
			problems = append(problems, fmt.Sprintf("conditional edge from unknown node '%s'", from))
		}
		if ce.Route == nil {
			problems = append(problems, fmt.Sprintf("conditional edge from '%s' has no router", from))
		}
		if len(ce.Branches) == 0 {
			problems = append(problems, fmt.Sprintf("conditional edge from '%s' has no branches", from))
		}
		for key, to := range ce.Branches {
			if !targetExists(g, to) {
				problems = append(problems, fmt.Sprintf("branch '%s' of '%s' points to a missing node '%s'", key, from, to))
			}
		}
	}

	if len(problems) == 0 {
		for _, name := range unreachable(g) {
			problems = append(problems, fmt.Sprintf("node '%s' is unreachable from '%s'", name, g.Start))
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: found %d errors:\n- %s", domain.ErrInvalidGraph, len(problems), strings.Join(problems, "\n- "))
	}
	return nil
}

func targetExists(g *domain.Graph, to string) bool {
	if to == domain.End {
		return true
	}
	_, ok := g.Nodes[to]
	return ok
}

// unreachable crawls the graph breadth-first from the start node and returns,
// sorted, the nodes that were never visited.
func unreachable(g *domain.Graph) []string {
	visited := make(map[string]bool)
	queue := []string{g.Start}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		if visited[current] || current == domain.End {
			continue
		}
		visited[current] = true

		for _, target := range g.Targets(current) {
			if !visited[target] {
				queue = append(queue, target)
			}
		}
	}

	var missing []string
	for _, name := range g.NodeNames() {
		if !visited[name] {
			missing = append(missing, name)
		}
	}
	return missing
}
