package service

import (
	"context"
	"database/sql"

	"aqcode/internal/common"
)

// beginTx opens one transaction per state transition. Dev mode runs without a
// database; repositories then receive a nil tx and apply writes directly.
func beginTx(ctx context.Context, db *sql.DB) (*sql.Tx, func(), error) {
	if db == nil {
		return nil, func() {}, nil
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, common.Errorf("failed to begin transaction: %w", err)
	}
	return tx, func() { tx.Rollback() }, nil
}

func commitTx(tx *sql.Tx) error {
	if tx == nil {
		return nil
	}
	if err := tx.Commit(); err != nil {
		return common.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
