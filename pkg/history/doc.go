/*
Package history records every run of the engine into a ports.RunStore.

A Recorder wraps the engine and is used in its place by the CLI, the HTTP
server and the MCP server, so runs started from any surface can be listed and
inspected while the process lives. Recording never changes the result of a
run: a store failure is logged and the conversation (or run error) is returned
unchanged.
*/
package history
