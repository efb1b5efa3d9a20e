// Package tui provides the interactive terminal interface for agentflow.
//
// The App model shows a goal input, the ordered sub-task list with status
// indicators, the activity log and, once a run finishes, the final report
// rendered from markdown in a scrollable viewport.
//
// The model reads orchestrator events from a channel, usually fed by an
// orchestrator.EventEmitter subscribed to the orchestrator:
//
//	emitter := orchestrator.NewEventEmitter(256)
//	unsubscribe := orch.Subscribe(emitter.Listener())
//	defer unsubscribe()
//
//	program, _ := tui.NewProgram(ctx, orch, emitter.Events())
//	_, err := program.Run()
//
// Keys: enter submits a goal while idle, r starts over after a run
// finished, arrows and page keys scroll the report, q quits outside the
// input and ctrl+c always quits.
package tui
