// Package audit defines the operation audit trail contract.
// This trail records who did what to which document; it is separate from the
// stock movement ledger, which records quantity changes only.
package audit

import (
	"context"

	"stocklot/internal/core/id"
)

// Action is the audited operation type.
type Action string

const (
	ActionCreate Action = "create"
	ActionCancel Action = "cancel"
)

// Recorder persists audit entries. The PostgreSQL implementation lives in
// infrastructure and compresses large change payloads.
type Recorder interface {
	Record(ctx context.Context, tenantID, entityType string, entityID id.ID, action Action, changes map[string]any) error
}

// Nop discards audit entries. Used in tests and when auditing is disabled.
type Nop struct{}

// Record implements Recorder.
func (Nop) Record(ctx context.Context, tenantID, entityType string, entityID id.ID, action Action, changes map[string]any) error {
	return nil
}

var _ Recorder = Nop{}
