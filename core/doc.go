// Package core provides the foundational domain types used by Planmesh. It
// defines the core abstractions for:
//
//   - State (the plan-execute session state: plan, past steps, shared data)
//   - Steps and Outcomes (planned tool invocations and their tagged results)
//   - Decisions (the planner's respond-or-continue contract)
//   - Messages (role-tagged conversation history) and the Trimmer that bounds it
//   - Events (the typed, finite stream surfaced to a consumer)
//   - Sessions (cross-turn conversational containers) and their store
//   - CallLimiter (the process-wide token bucket gating model calls)
//
// The package intentionally keeps implementation concerns (orchestration,
// planning, tool dispatch) out of scope, exposing small types to enable
// custom backends and extensions.
package core
