package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/samirrijal/obliquemerc/internal/core/domain"
)

// RenderRepo implements ports.RenderRepository.
type RenderRepo struct {
	db *DB
}

func NewRenderRepo(db *DB) *RenderRepo {
	return &RenderRepo{db: db}
}

func (r *RenderRepo) Insert(ctx context.Context, rec *domain.RenderRecord) error {
	scenario, err := json.Marshal(rec.Scenario)
	if err != nil {
		return fmt.Errorf("marshal scenario: %w", err)
	}
	_, err = r.db.Pool.Exec(ctx, `
		INSERT INTO render_history
			(id, scenario_key, scenario, pole_lat, pole_lon, format, invalid_points, bytes, duration_ms, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, rec.ID, rec.ScenarioKey, scenario, rec.Pole.Lat, rec.Pole.Lon, string(rec.Format),
		rec.Invalid, rec.Bytes, rec.Duration.Seconds()*1000, rec.CreatedAt)
	return err
}

// ListRecent returns a page of history, newest first, plus the total row count.
func (r *RenderRepo) ListRecent(ctx context.Context, offset, limit int) ([]domain.RenderRecord, int, error) {
	var total int
	if err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM render_history`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, scenario_key, scenario, pole_lat, pole_lon, format, invalid_points, bytes, duration_ms, created_at
		FROM render_history
		ORDER BY created_at DESC
		OFFSET $1 LIMIT $2
	`, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var records []domain.RenderRecord
	for rows.Next() {
		var (
			rec      domain.RenderRecord
			scenario []byte
			format   string
			ms       float64
		)
		if err := rows.Scan(&rec.ID, &rec.ScenarioKey, &scenario, &rec.Pole.Lat, &rec.Pole.Lon,
			&format, &rec.Invalid, &rec.Bytes, &ms, &rec.CreatedAt); err != nil {
			return nil, 0, err
		}
		if err := json.Unmarshal(scenario, &rec.Scenario); err != nil {
			return nil, 0, fmt.Errorf("decode scenario %s: %w", rec.ID, err)
		}
		rec.Format = domain.Format(format)
		rec.Duration = time.Duration(ms * float64(time.Millisecond))
		records = append(records, rec)
	}
	return records, total, rows.Err()
}
