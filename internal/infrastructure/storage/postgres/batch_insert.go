package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// BatchInserter provides bulk inserts over the COPY protocol. Used by the
// ledger repository when a purchase or sale lands many movements at once,
// and by the seeder.
type BatchInserter struct {
	txManager *TxManager
}

// NewBatchInserter creates a new batch inserter.
func NewBatchInserter(txManager *TxManager) *BatchInserter {
	return &BatchInserter{txManager: txManager}
}

// CopyFromSlice performs a bulk insert from a slice of rows.
// Requires an active transaction in ctx; COPY cannot run on the pool wrapper.
func (b *BatchInserter) CopyFromSlice(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	dbTx := b.txManager.GetTx(ctx)
	if dbTx == nil {
		return 0, fmt.Errorf("CopyFromSlice requires transaction context")
	}

	return dbTx.CopyFrom(ctx, pgx.Identifier{table}, columns, pgx.CopyFromRows(rows))
}
