// Package planner turns session state into decisions. The ModelPlanner asks
// a language model for either a terminal response or an ordered plan of tool
// steps, enforcing the token budget and the shared rate limit before every
// call. The ModelRouter classifies an incoming query to the toolset best
// suited to answer it.
//
// Model output is requested as a strict JSON document; anything the parser
// cannot turn into a well-formed decision becomes a core.PlanningError, which
// the engine degrades to a best-effort response instead of crashing the run.
package planner
