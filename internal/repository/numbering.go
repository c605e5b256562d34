package repository

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spec-kit/maintenance-service/internal/persistence"
)

// nextDocumentNumber produces the next number in the deterministic
// {PREFIX}{YYYY}{MM}{4-digit sequence} format, with the sequence resetting
// monthly per prefix. The advisory lock serializes concurrent generators for
// the same prefix and period, so two creations never receive the same number.
// Must run inside a transaction (the lock is released on commit/rollback).
func nextDocumentNumber(ctx context.Context, q persistence.Querier, table, column, prefix string, now time.Time) (string, error) {
	stem := prefix + now.Format("200601")

	if _, err := q.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, stem); err != nil {
		return "", fmt.Errorf("acquire number lock: %w", err)
	}

	var last *string
	query := fmt.Sprintf(`SELECT MAX(%s) FROM %s WHERE %s LIKE $1`, column, table, column)
	if err := q.QueryRow(ctx, query, stem+"%").Scan(&last); err != nil {
		return "", fmt.Errorf("read last number: %w", err)
	}

	seq := 1
	if last != nil && len(*last) > 4 {
		if n, err := strconv.Atoi((*last)[len(*last)-4:]); err == nil {
			seq = n + 1
		}
	}
	return fmt.Sprintf("%s%04d", stem, seq), nil
}
