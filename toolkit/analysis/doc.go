// Package analysis provides model-backed scoring and summarization tools.
//
// Both tools accept inline text or shared-data references ("shared:<key>"
// arguments, expanded by the executor before the tool runs), so large
// fetched payloads never travel through the conversation. Multi-item inputs
// are processed map-reduce style: each item is analyzed on its own, then the
// per-item analyses are combined into one aggregate result.
package analysis
