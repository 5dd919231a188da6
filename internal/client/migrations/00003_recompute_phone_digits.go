package migrations

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/lifevault/internal/client/validation"
	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(upRecomputePhoneDigits, downRecomputePhoneDigits)
}

// upRecomputePhoneDigits replaces the SQL backfill of 00002 with the same
// normalization the contacts repository applies on insert and update.
func upRecomputePhoneDigits(ctx context.Context, tx *sql.Tx) error {
	rows, err := tx.QueryContext(ctx, `SELECT id, phone FROM contacts`)
	if err != nil {
		return fmt.Errorf("select contacts: %w", err)
	}

	digits := map[int64]string{}
	for rows.Next() {
		var (
			id    int64
			phone string
		)
		if err := rows.Scan(&id, &phone); err != nil {
			rows.Close()
			return fmt.Errorf("scan contact: %w", err)
		}
		digits[id] = validation.NormalizePhone(phone)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("read contacts: %w", err)
	}
	rows.Close()

	for id, d := range digits {
		if _, err := tx.ExecContext(ctx, `UPDATE contacts SET phone_digits = ? WHERE id = ?`, d, id); err != nil {
			return fmt.Errorf("update contact %d: %w", id, err)
		}
	}
	return nil
}

// Normalized digits are a pure function of phone, so there is nothing to undo.
func downRecomputePhoneDigits(context.Context, *sql.Tx) error {
	return nil
}
