package postgres

import (
	"context"
	"fmt"

	"stocklot/internal/core/sequence"
)

// SequenceGenerator implements sequence.Generator on a per-(tenant, kind)
// counter row. The upsert increments and returns the counter in a single
// statement, so concurrent callers always get distinct, increasing values.
type SequenceGenerator struct {
	txManager *TxManager
}

// NewSequenceGenerator creates the counter-backed generator.
func NewSequenceGenerator(txManager *TxManager) *SequenceGenerator {
	return &SequenceGenerator{txManager: txManager}
}

// NextNumber implements sequence.Generator.
//
// Deliberately not tied to the caller's transaction: a reserved value is
// consumed even if the surrounding document is later compensated. Gaps from
// failed documents are accepted; reuse of a number never happens.
func (g *SequenceGenerator) NextNumber(ctx context.Context, tenantID string, kind sequence.Kind) (int64, error) {
	const q = `
		INSERT INTO sys_sequences (tenant_id, kind, current_val)
		VALUES ($1, $2, 1)
		ON CONFLICT (tenant_id, kind)
		DO UPDATE SET current_val = sys_sequences.current_val + 1
		RETURNING current_val
	`

	var num int64
	if err := g.txManager.pool.QueryRow(ctx, q, tenantID, string(kind)).Scan(&num); err != nil {
		return 0, fmt.Errorf("next number for %s/%s: %w", tenantID, kind, err)
	}
	return num, nil
}

var _ sequence.Generator = (*SequenceGenerator)(nil)
