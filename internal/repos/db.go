package repos

import (
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// OpenDB opens the sqlite store holding wizard snapshots. The only
// persisted shared resource in the system; one writer per session, so
// last-write-wins is the whole locking story.
func OpenDB(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err = db.Ping(); err != nil {
		return nil, err
	}
	if err := ensureSchema(db); err != nil {
		return nil, err
	}
	return db, nil
}

func ensureSchema(db *sqlx.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS wizard_snapshots(
  session_id TEXT PRIMARY KEY,          -- same value as the 'sid' cookie
  club_id    TEXT NOT NULL,
  state_json TEXT NOT NULL,
  saved_at   TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_snapshots_saved_at ON wizard_snapshots(saved_at);
`
	_, err := db.Exec(schema)
	return err
}
