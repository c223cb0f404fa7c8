/*
Package domain contains the core domain models of the tandem orchestration engine.

It defines the conversation that flows through the graph, the graph definition itself
and the errors and events produced while running it. This package is kept pure and free
of external dependencies like I/O, models or persistence, following Hexagonal
Architecture principles.

# Key Entities

  - Message: One immutable turn of the conversation, tagged with a Role and an author Name.
  - Conversation: The ordered, append-only sequence of Messages shared by all nodes in a run.
  - Graph: Named nodes (each wrapping an Agent), unconditional Edges and ConditionalEdges.
  - End: The terminal marker that stops a run.
  - LifecycleHooks: Callbacks fired on run, node and tool events for observability.
*/
package domain
