// Package jira provides read-only ticket tracker tools backed by the Jira
// REST API.
//
// The ticket_search tool runs a JQL query and stores every matching issue in
// the shared-data namespace under "jira.<KEY>", so later analysis steps can
// reference issues by key instead of re-fetching or inlining large payloads
// into the conversation.
package jira
