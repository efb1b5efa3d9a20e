// Package orchestrator runs a goal through the agentflow pipeline.
//
// A run moves through a fixed, linear sequence of stages:
//   - Decomposing: one structured completion call turns the goal into an
//     ordered list of sub-tasks, all pending
//   - Executing: each sub-task runs in order with the results of the
//     earlier ones as context; a failure ends the run
//   - Summarizing: one call compiles every result into a markdown report
//
// Done and Failed are terminal until Reset. There are no retries and no
// parallel sub-tasks. Observers read copies of run state through Snapshot
// or receive an Event per transition through Subscribe.
//
// Example usage:
//
//	client, _ := api.NewClient(api.ClientConfig{APIKey: key})
//	orch := orchestrator.New(client)
//	snap, err := orch.Run(ctx, "Plan a 1-day city tour")
package orchestrator
