package repos

import (
	"time"

	"github.com/jmoiron/sqlx"
)

type SnapshotRepo struct{ db *sqlx.DB }

func NewSnapshotRepo(db *sqlx.DB) *SnapshotRepo { return &SnapshotRepo{db: db} }

type SnapshotRow struct {
	SessionID string `db:"session_id"`
	ClubID    string `db:"club_id"`
	StateJSON string `db:"state_json"`
	SavedAt   string `db:"saved_at"`
}

// Upsert writes the single snapshot row for a session, replacing any
// previous one regardless of club.
func (r *SnapshotRepo) Upsert(sessionID, clubID, stateJSON string, savedAt time.Time) error {
	_, err := r.db.Exec(`
		INSERT INTO wizard_snapshots(session_id, club_id, state_json, saved_at)
		VALUES(?,?,?,?)
		ON CONFLICT(session_id) DO UPDATE
		SET club_id = excluded.club_id, state_json = excluded.state_json, saved_at = excluded.saved_at
	`, sessionID, clubID, stateJSON, savedAt.UTC().Format(time.RFC3339))
	return err
}

func (r *SnapshotRepo) Get(sessionID string) (SnapshotRow, error) {
	var row SnapshotRow
	err := r.db.Get(&row, `
		SELECT session_id, club_id, state_json, saved_at
		FROM wizard_snapshots WHERE session_id = ?
	`, sessionID)
	return row, err
}

func (r *SnapshotRepo) Delete(sessionID string) error {
	_, err := r.db.Exec(`DELETE FROM wizard_snapshots WHERE session_id = ?`, sessionID)
	return err
}

// PurgeOlderThan drops every snapshot saved before the cutoff. Run
// periodically so abandoned sessions do not accumulate.
func (r *SnapshotRepo) PurgeOlderThan(cutoff time.Time) (int64, error) {
	res, err := r.db.Exec(`DELETE FROM wizard_snapshots WHERE saved_at < ?`, cutoff.UTC().Format(time.RFC3339))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
