package services

import (
	"database/sql"
	"encoding/json"
	"time"

	applog "cellardoor/internal/log"
	"cellardoor/internal/repos"
	"cellardoor/internal/wizard"
)

// DefaultSnapshotTTL is the staleness window for saved selections.
const DefaultSnapshotTTL = 24 * time.Hour

// RecoveryService persists in-progress wizard selections so a returning
// session can pick up where it left off. Storage failures degrade to
// no-ops; losing a snapshot must never break the wizard itself.
type RecoveryService struct {
	Snaps *repos.SnapshotRepo
	TTL   time.Duration
}

func NewRecoveryService(snaps *repos.SnapshotRepo, ttl time.Duration) *RecoveryService {
	if ttl <= 0 {
		ttl = DefaultSnapshotTTL
	}
	return &RecoveryService{Snaps: snaps, TTL: ttl}
}

// Save stores the session's snapshot, replacing any previous one.
func (s *RecoveryService) Save(sessionID, clubID string, snap wizard.Snapshot) {
	data, err := json.Marshal(snap)
	if err != nil {
		applog.Error(nil, "recovery.save.marshal", err, map[string]any{"session": sessionID})
		return
	}
	if err := s.Snaps.Upsert(sessionID, clubID, string(data), time.Now()); err != nil {
		applog.Error(nil, "recovery.save", err, map[string]any{"session": sessionID, "club": clubID})
	}
}

// Load returns the stored snapshot only when it belongs to the
// requested club and is younger than the staleness window. Anything
// else is discarded and nil returned.
func (s *RecoveryService) Load(sessionID, clubID string) *wizard.Snapshot {
	row, err := s.Snaps.Get(sessionID)
	if err != nil {
		if err != sql.ErrNoRows {
			applog.Error(nil, "recovery.load", err, map[string]any{"session": sessionID})
		}
		return nil
	}
	savedAt, err := time.Parse(time.RFC3339, row.SavedAt)
	stale := err != nil || time.Since(savedAt) > s.TTL
	if stale || row.ClubID != clubID {
		s.discard(sessionID)
		return nil
	}
	var snap wizard.Snapshot
	if err := json.Unmarshal([]byte(row.StateJSON), &snap); err != nil {
		applog.Warn(nil, "recovery.load.corrupt", map[string]any{"session": sessionID})
		s.discard(sessionID)
		return nil
	}
	return &snap
}

// Clear drops the session's snapshot, typically after checkout hand-off.
func (s *RecoveryService) Clear(sessionID string) {
	s.discard(sessionID)
}

func (s *RecoveryService) discard(sessionID string) {
	if err := s.Snaps.Delete(sessionID); err != nil {
		applog.Error(nil, "recovery.discard", err, map[string]any{"session": sessionID})
	}
}
