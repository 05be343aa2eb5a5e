// Package sequence provides domain contracts for document numbering.
// Implementations live in the infrastructure layer.
package sequence

import (
	"context"
	"fmt"
	"time"
)

// Kind identifies the document counter a number is drawn from.
// Counters are independent per (tenant, kind) pair.
type Kind string

const (
	KindSale     Kind = "sale"
	KindPurchase Kind = "purchase"
)

// Generator produces sequential document numbers.
//
// NextNumber returns a plain increasing integer, unique and strictly
// increasing per (tenant, kind). Two concurrent callers for the same tenant
// and kind must never receive the same value. Formatting to a display string
// is the caller's concern (see Format).
type Generator interface {
	NextNumber(ctx context.Context, tenantID string, kind Kind) (int64, error)
}

// Config holds display formatting for document numbers.
type Config struct {
	// Prefix added to all numbers (e.g., "SAL", "PUR")
	Prefix string

	// IncludeYear adds year to the number
	IncludeYear bool

	// PadWidth is the minimum number width (default 5)
	PadWidth int
}

// DefaultConfig returns the standard format for a counter kind.
func DefaultConfig(kind Kind) Config {
	prefix := "DOC"
	switch kind {
	case KindSale:
		prefix = "SAL"
	case KindPurchase:
		prefix = "PUR"
	}
	return Config{
		Prefix:      prefix,
		IncludeYear: true,
		PadWidth:    5,
	}
}

// Format renders a counter value as a display number.
// Pattern: PREFIX-YEAR-XXXXX (e.g., SAL-2026-00001).
func Format(cfg Config, period time.Time, num int64) string {
	padWidth := cfg.PadWidth
	if padWidth == 0 {
		padWidth = 5
	}

	if cfg.IncludeYear {
		return fmt.Sprintf("%s-%s-%0*d", cfg.Prefix, period.Format("2006"), padWidth, num)
	}
	return fmt.Sprintf("%s-%0*d", cfg.Prefix, padWidth, num)
}

// ParseNumber extracts the numeric part from a formatted number.
// Returns -1 if parsing fails.
func ParseNumber(formatted string) int64 {
	var num int64
	patterns := []string{
		"%*[^-]-%*d-%d",
		"%*[^-]-%d",
	}

	for _, pattern := range patterns {
		if _, err := fmt.Sscanf(formatted, pattern, &num); err == nil {
			return num
		}
	}

	return -1
}
