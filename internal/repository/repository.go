package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/marinedge/vfd-sentinel/internal/domain"
)

// Episodes persists the anomaly episode ledger in Postgres. All writes are
// idempotent on episode_id: re-running a create is a no-op, and state
// updates are guarded by the current status.
type Episodes struct {
	db *sqlx.DB
}

func New(db *sqlx.DB) *Episodes { return &Episodes{db: db} }

// episodeRow is the flat table shape; parameter snapshots, recommendations
// and tags are stored as JSON text.
type episodeRow struct {
	EpisodeID         string     `db:"episode_id"`
	UnitName          string     `db:"unit_name"`
	OpenedAt          time.Time  `db:"opened_at"`
	SeverityLevel     int        `db:"severity_level"`
	SeverityName      string     `db:"severity_name"`
	HealthScoreAtOpen int        `db:"health_score_at_open"`
	Parameters        string     `db:"parameters"`
	Recommendations   string     `db:"recommendations"`
	Tags              string     `db:"tags"`
	Status            string     `db:"status"`
	AcknowledgedAt    *time.Time `db:"acknowledged_at"`
	AcknowledgedBy    *string    `db:"acknowledged_by"`
	ClearedAt         *time.Time `db:"cleared_at"`
	ClearedBy         *string    `db:"cleared_by"`
	DurationMinutes   *int       `db:"duration_minutes"`
}

func (r *Episodes) CreateEpisode(ctx context.Context, ep domain.AnomalyEpisode) error {
	params, err := json.Marshal(ep.Parameters)
	if err != nil {
		return fmt.Errorf("marshal parameters: %w", err)
	}
	recs, err := json.Marshal(ep.Recommendations)
	if err != nil {
		return fmt.Errorf("marshal recommendations: %w", err)
	}
	tags, err := json.Marshal(ep.Tags)
	if err != nil {
		return fmt.Errorf("marshal tags: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO anomaly_episodes
			(episode_id, unit_name, opened_at, severity_level, severity_name,
			 health_score_at_open, parameters, recommendations, tags, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,'ACTIVE')
		ON CONFLICT (episode_id) DO NOTHING`,
		ep.EpisodeID, ep.Unit, ep.OpenedAt, ep.SeverityLevel, ep.SeverityName,
		ep.HealthScoreAtOpen, string(params), string(recs), string(tags))
	return err
}

func (r *Episodes) AcknowledgeEpisode(ctx context.Context, episodeID, by string, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE anomaly_episodes
		SET status = 'ACKNOWLEDGED', acknowledged_at = $1, acknowledged_by = $2
		WHERE episode_id = $3 AND status = 'ACTIVE'`,
		at, by, episodeID)
	return err
}

func (r *Episodes) ClearEpisode(ctx context.Context, episodeID, by string, at time.Time, durationMinutes int, auto bool) error {
	status := string(domain.EpisodeCleared)
	if auto {
		status = string(domain.EpisodeAutoCleared)
	}
	_, err := r.db.ExecContext(ctx, `
		UPDATE anomaly_episodes
		SET status = $1, cleared_at = $2, cleared_by = $3, duration_minutes = $4
		WHERE episode_id = $5 AND status IN ('ACTIVE', 'ACKNOWLEDGED')`,
		status, at, by, durationMinutes, episodeID)
	return err
}

// ActiveEpisodes returns every persisted non-terminal episode, newest first.
func (r *Episodes) ActiveEpisodes(ctx context.Context) ([]domain.AnomalyEpisode, error) {
	var rows []episodeRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT * FROM anomaly_episodes
		WHERE status IN ('ACTIVE', 'ACKNOWLEDGED')
		ORDER BY opened_at DESC`)
	if err != nil {
		return nil, err
	}
	return decodeRows(rows)
}

// History returns episodes filtered by unit and/or status, newest first.
func (r *Episodes) History(ctx context.Context, unit, status string, limit int) ([]domain.AnomalyEpisode, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `SELECT * FROM anomaly_episodes WHERE 1=1`
	args := []interface{}{}
	if unit != "" {
		args = append(args, unit)
		query += fmt.Sprintf(" AND unit_name = $%d", len(args))
	}
	if status != "" {
		args = append(args, status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY opened_at DESC LIMIT $%d", len(args))

	var rows []episodeRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	return decodeRows(rows)
}

func decodeRows(rows []episodeRow) ([]domain.AnomalyEpisode, error) {
	out := make([]domain.AnomalyEpisode, 0, len(rows))
	for _, row := range rows {
		ep := domain.AnomalyEpisode{
			EpisodeID:         row.EpisodeID,
			Unit:              row.UnitName,
			OpenedAt:          row.OpenedAt,
			SeverityLevel:     row.SeverityLevel,
			SeverityName:      row.SeverityName,
			HealthScoreAtOpen: row.HealthScoreAtOpen,
			Status:            domain.EpisodeStatus(row.Status),
			AcknowledgedAt:    row.AcknowledgedAt,
			ClearedAt:         row.ClearedAt,
		}
		if row.AcknowledgedBy != nil {
			ep.AcknowledgedBy = *row.AcknowledgedBy
		}
		if row.ClearedBy != nil {
			ep.ClearedBy = *row.ClearedBy
		}
		if row.DurationMinutes != nil {
			ep.DurationMinutes = *row.DurationMinutes
		}
		if err := json.Unmarshal([]byte(row.Parameters), &ep.Parameters); err != nil {
			return nil, fmt.Errorf("decode parameters for %s: %w", row.EpisodeID, err)
		}
		if err := json.Unmarshal([]byte(row.Recommendations), &ep.Recommendations); err != nil {
			return nil, fmt.Errorf("decode recommendations for %s: %w", row.EpisodeID, err)
		}
		if err := json.Unmarshal([]byte(row.Tags), &ep.Tags); err != nil {
			return nil, fmt.Errorf("decode tags for %s: %w", row.EpisodeID, err)
		}
		out = append(out, ep)
	}
	return out, nil
}
