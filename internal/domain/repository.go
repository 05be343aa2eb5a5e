// Package domain provides shared filtering and pagination types for the
// domain repositories.
package domain

import (
	"time"
)

// ListFilter contains common filtering options for list operations.
type ListFilter struct {
	// Search performs substring search on document numbers
	Search string

	// DateFrom/DateTo bound created_at
	DateFrom *time.Time
	DateTo   *time.Time

	// OrderBy specifies sorting (e.g., "created_at DESC")
	OrderBy string

	// Pagination
	Limit  int
	Offset int
}

// DefaultListFilter returns sensible defaults.
func DefaultListFilter() ListFilter {
	return ListFilter{
		Limit:   50,
		OrderBy: "created_at DESC",
	}
}

// ListResult contains paginated results.
type ListResult[T any] struct {
	Items      []T   `json:"items"`
	TotalCount int64 `json:"totalCount"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
}
