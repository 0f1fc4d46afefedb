package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fortuna/courtside/internal/store"
)

// LoadSummary describes the staging contents for one game date.
type LoadSummary struct {
	GameDate      sql.NullString `json:"game_date"`
	TeamRows      int            `json:"team_rows"`
	PlayerRows    int            `json:"player_rows"`
	LastLoadedAt  sql.NullTime   `json:"last_loaded_at"`
	DistinctGames int            `json:"distinct_games"`
}

// StagingRepository reads back what the pipeline has landed. Staging is
// append-only, so reads are aggregate summaries rather than row lookups.
type StagingRepository struct {
	db *store.Database
}

// NewStagingRepository creates a new staging repository
func NewStagingRepository(db *store.Database) *StagingRepository {
	return &StagingRepository{db: db}
}

// SummaryByDate returns per-date row counts for the most recent dates loaded.
func (r *StagingRepository) SummaryByDate(ctx context.Context, limit int) ([]*LoadSummary, error) {
	query := `
		SELECT t.game_date,
			COUNT(*) AS team_rows,
			COUNT(DISTINCT t.game_id) AS distinct_games,
			COALESCE(p.player_rows, 0) AS player_rows,
			MAX(t.load_timestamp) AS last_loaded_at
		FROM staging.team_game_stats_raw t
		LEFT JOIN (
			SELECT g.game_date, COUNT(*) AS player_rows
			FROM staging.player_game_stats_raw ps
			JOIN (SELECT DISTINCT game_id, game_date FROM staging.team_game_stats_raw) g
				ON g.game_id = ps.game_id
			GROUP BY g.game_date
		) p ON p.game_date = t.game_date
		GROUP BY t.game_date, p.player_rows
		ORDER BY t.game_date DESC NULLS LAST
		LIMIT $1
	`

	rows, err := r.db.DB().QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("querying staging summary: %w", err)
	}
	defer rows.Close()

	var summaries []*LoadSummary
	for rows.Next() {
		s := &LoadSummary{}
		if err := rows.Scan(&s.GameDate, &s.TeamRows, &s.DistinctGames, &s.PlayerRows, &s.LastLoadedAt); err != nil {
			return nil, fmt.Errorf("scanning staging summary: %w", err)
		}
		summaries = append(summaries, s)
	}

	return summaries, rows.Err()
}

// GameCount returns the number of distinct games already staged for a date.
// Callers use it to decide whether a date needs a pipeline run.
func (r *StagingRepository) GameCount(ctx context.Context, date string) (int, error) {
	query := `
		SELECT COUNT(DISTINCT game_id)
		FROM staging.team_game_stats_raw
		WHERE game_date = $1
	`

	var count int
	if err := r.db.DB().QueryRowContext(ctx, query, date).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting staged games for %s: %w", date, err)
	}

	return count, nil
}
