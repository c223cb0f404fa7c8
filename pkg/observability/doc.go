/*
Package observability provides tools for monitoring the Tandem engine.

It turns lifecycle hooks into Prometheus metrics (runs, node visits, tool calls, token
usage) and structured log records, so a host can plug both into a run with a single
domain.LifecycleHooks value.
*/
package observability
