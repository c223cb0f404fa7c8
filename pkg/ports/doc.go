/*
Package ports defines the driven ports (interfaces) for the tandem engine.

These interfaces decouple the orchestration core from external implementations,
allowing the same graph to run against real language models and tools or against
deterministic fakes in tests.

# Key Interfaces

  - Agent: Produces exactly one Message from a Conversation snapshot.
  - ChatModel: Language-model inference (e.g., the OpenAI adapter).
  - Searcher: Web search capability used by the research agent.
  - CodeExecutor: Sandboxed code execution used by the chart agent.
  - SearchCache: Memoisation of search results (memory or Redis).
*/
package ports
