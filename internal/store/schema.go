package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/llehouerou/waveshelf/internal/db"
)

// migrations[i] upgrades a database from version i to i+1. Steps only
// create what is missing and never touch existing rows.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS tracks (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL,
		artist TEXT NOT NULL,
		album TEXT NOT NULL,
		picture BLOB,
		picture_mime TEXT,
		file BLOB NOT NULL,
		file_name TEXT NOT NULL,
		file_size INTEGER NOT NULL,
		added_at INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_tracks_artist ON tracks(artist)`,
	`CREATE INDEX IF NOT EXISTS idx_tracks_album ON tracks(album)`,
}

// CurrentSchemaVersion is the version Open upgrades to.
var CurrentSchemaVersion = len(migrations)

func userVersion(ctx context.Context, q interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
},
) (int, error) {
	var v int
	if err := q.QueryRowContext(ctx, `PRAGMA user_version`).Scan(&v); err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	return v, nil
}

// migrate runs every missing step, each in its own transaction together
// with the version bump. It returns the versions before and after.
func migrate(ctx context.Context, conn *sql.DB) (from, to int, err error) {
	from, err = userVersion(ctx, conn)
	if err != nil {
		return 0, 0, err
	}
	if from > CurrentSchemaVersion {
		return from, from, fmt.Errorf("%w: version %d, supported %d", ErrSchemaTooNew, from, CurrentSchemaVersion)
	}

	for v := from; v < CurrentSchemaVersion; v++ {
		err := db.WithTx(ctx, conn, func(tx *sql.Tx) error {
			if _, err := tx.ExecContext(ctx, migrations[v]); err != nil {
				return err
			}
			// PRAGMA does not accept bound parameters.
			_, err := tx.ExecContext(ctx, fmt.Sprintf(`PRAGMA user_version = %d`, v+1))
			return err
		})
		if err != nil {
			return from, v, fmt.Errorf("migrate schema to version %d: %w", v+1, err)
		}
	}

	return from, CurrentSchemaVersion, nil
}
