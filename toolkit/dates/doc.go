// Package dates provides local date and time tools: current date lookups and
// calendar arithmetic. These run without network access, so the planner can
// resolve relative time ranges ("last two weeks") before querying external
// systems.
package dates
