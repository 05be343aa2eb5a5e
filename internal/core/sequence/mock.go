package sequence

import (
	"context"
	"sync"
)

// MockGenerator is a test implementation of Generator backed by in-memory
// counters. Safe for concurrent use, so concurrency tests can hammer it.
type MockGenerator struct {
	// NextNumberFunc overrides counter behaviour when set.
	NextNumberFunc func(ctx context.Context, tenantID string, kind Kind) (int64, error)

	mu       sync.Mutex
	counters map[string]int64
}

// NewMockGenerator creates a mock with zeroed counters.
func NewMockGenerator() *MockGenerator {
	return &MockGenerator{counters: make(map[string]int64)}
}

// NextNumber implements Generator.
func (m *MockGenerator) NextNumber(ctx context.Context, tenantID string, kind Kind) (int64, error) {
	if m.NextNumberFunc != nil {
		return m.NextNumberFunc(ctx, tenantID, kind)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.counters == nil {
		m.counters = make(map[string]int64)
	}
	key := tenantID + ":" + string(kind)
	m.counters[key]++
	return m.counters[key], nil
}

// Ensure compile-time interface compliance.
var _ Generator = (*MockGenerator)(nil)
