// Package engine implements the bounded plan-execute orchestration loop.
//
// One run moves through the phases INIT -> PLANNING -> {RESPONDING |
// EXECUTING} -> ... -> DONE | ABORTED. The planner produces either a terminal
// response or an ordered plan; the executor runs the head step and records
// its outcome; the loop then replans against the accumulated past steps. A
// recursion guard fires before every PLANNING/EXECUTING transition and, once
// the iteration cap is reached, terminates the run gracefully with a partial
// response synthesized from what was gathered so far.
//
// # Concurrency Model
//
//   - One goroutine per run with an isolated state and channel set
//   - Events are delivered in order over a single stream; the consumer paces
//     delivery, and cancellation is honored at every send
//   - The stream terminates exactly once, with response-ready or aborted
//   - Session store and call limiter are the only shared resources
//
// # Error Handling
//
//   - Tool failures become Failure outcomes, recorded and visible to the
//     planner on the next cycle; they never crash the run
//   - Planner failures degrade to an empty plan, forcing a best-effort
//     response from the accumulated results
//   - Configuration problems surface at construction, before any run starts
//
// # Usage
//
//	eng, err := engine.New(myPlanner, registry,
//	    engine.WithLogger(logger),
//	    engine.WithConfig(cfg))
//	if err != nil {
//	    return err
//	}
//
//	runID, events, errs, err := eng.Run(ctx, "session-1", "find open tickets")
//	if err != nil {
//	    return err
//	}
//	_ = runID
//	for event := range events {
//	    handleEvent(event)
//	}
package engine
