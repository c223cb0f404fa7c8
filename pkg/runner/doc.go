/*
Package runner implements the interactive loop and transcript output for the Tandem engine.

It acts as the bridge between the engine and the outside world: requests are read
through a pluggable IOHandler, sanitized, handed to the engine, and the resulting
conversation (plus live progress events) is written back through the same handler.

# Key Components

  - Runner: reads requests, runs them and reports transcripts and failures.
  - IOHandler: decouples how requests arrive and how transcripts leave (text, JSON).
  - TextHandler: human output with optional markdown rendering, for terminals.
  - JSONHandler: newline-delimited JSON records, for scripts and other programs.
  - ConfirmationMiddleware: asks the user before generated code is executed.

# Usage

	r := runner.New(runner.NewTextHandler(os.Stdin, os.Stdout))
	engine, _ := tandem.New(researcher, chart, tandem.WithLifecycleHooks(r.Hooks()))

	if err := r.Loop(ctx, engine); err != nil {
		log.Fatal(err)
	}
*/
package runner
