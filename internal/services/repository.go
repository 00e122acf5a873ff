// Package services provides repository interfaces and SQLite implementations
// for data access. This layer bridges the raw SQLite store with the HTTP
// handlers, providing a clean abstraction over persistence operations.
package services

import "errors"

// ListOptions controls pagination and sorting for list queries.
type ListOptions struct {
	Limit     int    // Max results per page.
	Offset    int    // Number of results to skip.
	SortBy    string // Column name (validated per-repository).
	SortOrder string // "asc" or "desc" (default "desc").
}

// ListResult wraps a paginated result set with a total count.
type ListResult[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
}

// Sentinel errors returned by repositories.
var (
	// ErrNotFound indicates the requested row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrNotInitialized indicates the database schema has not been created.
	// Callers surface this as an actionable setup message rather than a
	// generic storage failure.
	ErrNotInitialized = errors.New("store not initialized")
)

// normalizeListOptions applies defaults and caps to list options. The
// request-level allow-listing of page sizes and sort keys happens in the web
// layer; this is a last line of defense for direct callers.
func normalizeListOptions(opts ListOptions) ListOptions {
	if opts.Limit <= 0 {
		opts.Limit = 5
	}
	if opts.Offset < 0 {
		opts.Offset = 0
	}
	if opts.SortOrder != "asc" {
		opts.SortOrder = "desc"
	}
	return opts
}
