package graph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/tandem/pkg/domain"
)

const (
	startID = "__start__"
	endID   = "__end__"
)

// GraphOverlay contains dynamic run data to visualize on the graph.
type GraphOverlay struct {
	VisitedNodes []string
	CurrentNode  string
}

// OverlayFromConversation marks every agent that authored a message of conv as visited,
// and the author of the last message as current.
func OverlayFromConversation(g *domain.Graph, conv domain.Conversation) *GraphOverlay {
	overlay := &GraphOverlay{}
	for _, msg := range conv.Messages() {
		if _, ok := g.Node(msg.Name); ok {
			overlay.VisitedNodes = append(overlay.VisitedNodes, msg.Name)
			overlay.CurrentNode = msg.Name
		}
	}
	return overlay
}

// GenerateMermaid produces a Mermaid flowchart of the graph.
// Shapes:
// - Start/End markers: ((Circle))
// - Agent nodes: [Rectangle]
// - Nodes with a conditional edge: {Rhombus}-labelled branches
// Output is deterministic: nodes and branches are sorted by name.
func GenerateMermaid(g *domain.Graph, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")
	sb.WriteString(fmt.Sprintf("    %s((\"start\"))\n", startID))
	sb.WriteString(fmt.Sprintf("    %s((\"end\"))\n", endID))

	for _, name := range g.NodeNames() {
		node := g.Nodes[name]
		label := name
		if node.Description != "" {
			label = fmt.Sprintf("%s <br/> <i>%s</i>", name, escapeLabel(node.Description))
		}
		sb.WriteString(fmt.Sprintf("    %s[\"%s\"]\n", sanitizeMermaidID(name), label))
	}

	if g.Start != "" {
		sb.WriteString(fmt.Sprintf("    %s --> %s\n", startID, sanitizeMermaidID(g.Start)))
	}

	for _, name := range g.NodeNames() {
		safeID := sanitizeMermaidID(name)
		if e, ok := g.Edges[name]; ok {
			sb.WriteString(fmt.Sprintf("    %s --> %s\n", safeID, sanitizeMermaidID(e.To)))
			continue
		}
		ce, ok := g.Conditionals[name]
		if !ok {
			continue
		}
		keys := make([]string, 0, len(ce.Branches))
		for k := range ce.Branches {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			sb.WriteString(fmt.Sprintf("    %s -. \"%s\" .-> %s\n", safeID, escapeLabel(k), sanitizeMermaidID(ce.Branches[k])))
		}
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Black text keeps the labels readable on light and dark themes.
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		seen := make(map[string]bool)
		for _, name := range overlay.VisitedNodes {
			safeID := sanitizeMermaidID(name)
			if safeID != "" && !seen[safeID] {
				seen[safeID] = true
				sb.WriteString(fmt.Sprintf("    class %s visited;\n", safeID))
			}
		}
		if overlay.CurrentNode != "" {
			sb.WriteString(fmt.Sprintf("    class %s current;\n", sanitizeMermaidID(overlay.CurrentNode)))
		}
	}

	return sb.String()
}

func escapeLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	if id == domain.End {
		return endID
	}
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return strings.ReplaceAll(s, "\\", "_")
}
