// Package github provides read-only source repository tools backed by the
// GitHub REST API.
//
// Fetched commit and pull request sets are stored in the shared-data
// namespace under "github.<owner/repo>..." keys, so analysis steps can
// reference them without re-fetching.
package github
