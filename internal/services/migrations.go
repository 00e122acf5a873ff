package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ymatsuda/kiroku/internal/store"
)

// EntryMigrations returns the schema migrations for the diaries table.
func EntryMigrations() []store.Migration {
	return []store.Migration{
		{
			Version:     1,
			Description: "create diaries table",
			Up: func(tx *sql.Tx) error {
				_, err := tx.Exec(`
					CREATE TABLE diaries (
						id         INTEGER PRIMARY KEY AUTOINCREMENT,
						date       TEXT NOT NULL,
						content    TEXT NOT NULL,
						created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
					)
				`)
				return err
			},
		},
		{
			Version:     2,
			Description: "index diaries by date",
			Up: func(tx *sql.Tx) error {
				_, err := tx.Exec(`CREATE INDEX idx_diaries_date ON diaries(date)`)
				return err
			},
		},
	}
}

// sampleEntries mirrors the development fixtures the project has always
// shipped with. Contents are at least five characters so they pass validation
// if re-submitted through the form.
var sampleEntries = [][2]string{
	{"2023-10-20", "Beautiful weather today. Took a long walk and felt completely refreshed."},
	{"2023-10-19", "Studied web programming. Learned how form handling and pagination fit together."},
	{"2023-10-18", "Went to see a movie with friends. It was a lot of fun."},
}

// SeedSampleEntries inserts the development sample rows. It is a no-op when
// the diaries table already has data, so enabling seeding in config is safe
// across restarts.
func SeedSampleEntries(ctx context.Context, db *sql.DB) error {
	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM diaries").Scan(&count); err != nil {
		return fmt.Errorf("seed entries: %w", err)
	}
	if count > 0 {
		return nil
	}

	for _, s := range sampleEntries {
		if _, err := db.ExecContext(ctx,
			"INSERT INTO diaries (date, content) VALUES (?, ?)", s[0], s[1],
		); err != nil {
			return fmt.Errorf("seed entry %s: %w", s[0], err)
		}
	}
	return nil
}
