package repository

import "context"

const schema = `
CREATE TABLE IF NOT EXISTS anomaly_episodes (
	episode_id           TEXT PRIMARY KEY,
	unit_name            TEXT NOT NULL,
	opened_at            TIMESTAMPTZ NOT NULL,
	severity_level       INTEGER NOT NULL,
	severity_name        TEXT NOT NULL,
	health_score_at_open INTEGER NOT NULL,
	parameters           TEXT NOT NULL,
	recommendations      TEXT NOT NULL,
	tags                 TEXT NOT NULL,
	status               TEXT NOT NULL,
	acknowledged_at      TIMESTAMPTZ,
	acknowledged_by      TEXT,
	cleared_at           TIMESTAMPTZ,
	cleared_by           TEXT,
	duration_minutes     INTEGER
);
CREATE INDEX IF NOT EXISTS idx_episodes_unit ON anomaly_episodes(unit_name);
CREATE INDEX IF NOT EXISTS idx_episodes_status ON anomaly_episodes(status);
CREATE INDEX IF NOT EXISTS idx_episodes_opened ON anomaly_episodes(opened_at);
`

// EnsureSchema creates the ledger table and indexes when missing.
func (r *Episodes) EnsureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, schema)
	return err
}
