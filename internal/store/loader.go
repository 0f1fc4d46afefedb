package store

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/lib/pq"

	"github.com/fortuna/courtside/internal/transform"
)

// StagingLoader appends canonical records to the staging tables. Loads are
// batch COPYs inside a transaction; a load timestamp is stamped on every row.
type StagingLoader struct {
	db *Database
}

// NewStagingLoader creates a loader on the given database.
func NewStagingLoader(db *Database) *StagingLoader {
	return &StagingLoader{db: db}
}

var gameStagingColumns = []string{
	"game_id", "team_id", "team_name", "game_date", "matchup", "is_home", "win_loss",
	"field_goals_made", "field_goals_attempted",
	"three_pointers_made", "three_pointers_attempted",
	"free_throws_made", "free_throws_attempted",
	"offensive_rebounds", "defensive_rebounds", "total_rebounds",
	"assists", "steals", "blocks", "turnovers", "personal_fouls", "points",
	"raw_data", "load_timestamp",
}

// playerStagingColumns is the 41-column canonical schema plus the load
// timestamp. Output containing any other field is a programming defect, so
// the column list is fixed here rather than derived from input.
var playerStagingColumns = []string{
	"game_id", "team_id", "player_id", "player_name", "position", "jersey_num",
	"minutes_played",
	"field_goals_made", "field_goals_attempted", "field_goal_pct",
	"three_pointers_made", "three_pointers_attempted", "three_point_pct",
	"free_throws_made", "free_throws_attempted", "free_throw_pct",
	"offensive_rebounds", "defensive_rebounds", "total_rebounds",
	"assists", "steals", "blocks", "turnovers", "personal_fouls", "points",
	"plus_minus",
	"offensive_rating", "defensive_rating", "net_rating",
	"true_shooting_pct", "effective_fg_pct", "usage_pct",
	"pace", "pie",
	"assist_percentage", "assist_to_turnover", "assist_ratio",
	"offensive_rebound_pct", "defensive_rebound_pct", "rebound_percentage",
	"turnover_ratio",
	"raw_data", "load_timestamp",
}

// LoadGamesStaging appends game records to staging.team_game_stats_raw and
// returns the number of rows loaded. Empty input yields 0 without error.
func (l *StagingLoader) LoadGamesStaging(ctx context.Context, games []*transform.GameRecord) (int, error) {
	if len(games) == 0 {
		log.Println("[loader] no games to load")
		return 0, nil
	}

	log.Printf("[loader] loading %d games to staging", len(games))

	loadedAt := time.Now()
	err := l.copyBatch(ctx, "team_game_stats_raw", gameStagingColumns, len(games), func(stmt *sqlStmt, i int) error {
		g := games[i]
		return stmt.Exec(
			g.GameID, g.TeamID, g.TeamName, g.GameDate, g.Matchup, g.IsHome, g.WinLoss,
			g.FieldGoalsMade, g.FieldGoalsAttempted,
			g.ThreePointersMade, g.ThreePointersAttempted,
			g.FreeThrowsMade, g.FreeThrowsAttempted,
			g.OffensiveRebounds, g.DefensiveRebounds, g.TotalRebounds,
			g.Assists, g.Steals, g.Blocks, g.Turnovers, g.PersonalFouls, g.Points,
			g.RawData, loadedAt,
		)
	})
	if err != nil {
		return 0, fmt.Errorf("loading games staging: %w", err)
	}

	log.Printf("[loader] ✓ loaded %d games", len(games))
	return len(games), nil
}

// LoadPlayerStatsStaging appends player records to
// staging.player_game_stats_raw and returns the number of rows loaded.
// Empty input yields 0 without error.
func (l *StagingLoader) LoadPlayerStatsStaging(ctx context.Context, stats []*transform.PlayerStatRecord) (int, error) {
	if len(stats) == 0 {
		log.Println("[loader] no player stats to load")
		return 0, nil
	}

	log.Printf("[loader] loading %d player stats to staging", len(stats))

	loadedAt := time.Now()
	err := l.copyBatch(ctx, "player_game_stats_raw", playerStagingColumns, len(stats), func(stmt *sqlStmt, i int) error {
		s := stats[i]
		return stmt.Exec(
			s.GameID, s.TeamID, s.PlayerID, s.PlayerName, s.Position, s.JerseyNum,
			s.MinutesPlayed,
			s.FieldGoalsMade, s.FieldGoalsAttempted, s.FieldGoalPct,
			s.ThreePointersMade, s.ThreePointersAttempted, s.ThreePointPct,
			s.FreeThrowsMade, s.FreeThrowsAttempted, s.FreeThrowPct,
			s.OffensiveRebounds, s.DefensiveRebounds, s.TotalRebounds,
			s.Assists, s.Steals, s.Blocks, s.Turnovers, s.PersonalFouls, s.Points,
			s.PlusMinus,
			s.OffensiveRating, s.DefensiveRating, s.NetRating,
			s.TrueShootingPct, s.EffectiveFGPct, s.UsagePct,
			s.Pace, s.PIE,
			s.AssistPercentage, s.AssistToTurnover, s.AssistRatio,
			s.OffensiveReboundPct, s.DefensiveReboundPct, s.ReboundPercentage,
			s.TurnoverRatio,
			s.RawData, loadedAt,
		)
	})
	if err != nil {
		return 0, fmt.Errorf("loading player stats staging: %w", err)
	}

	log.Printf("[loader] ✓ loaded %d player stats", len(stats))
	return len(stats), nil
}

// sqlStmt narrows *sql.Stmt to what the row callback needs.
type sqlStmt struct {
	exec func(args ...interface{}) error
}

func (s *sqlStmt) Exec(args ...interface{}) error { return s.exec(args...) }

// copyBatch runs a COPY of n rows into staging.<table> inside a transaction.
func (l *StagingLoader) copyBatch(ctx context.Context, table string, columns []string, n int, row func(*sqlStmt, int) error) error {
	tx, err := l.db.DB().BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, pq.CopyInSchema("staging", table, columns...))
	if err != nil {
		return fmt.Errorf("preparing copy: %w", err)
	}

	wrapped := &sqlStmt{exec: func(args ...interface{}) error {
		_, execErr := stmt.ExecContext(ctx, args...)
		return execErr
	}}

	for i := 0; i < n; i++ {
		if err := row(wrapped, i); err != nil {
			stmt.Close()
			return fmt.Errorf("buffering row %d: %w", i, err)
		}
	}

	// Flush the COPY buffer.
	if _, err := stmt.ExecContext(ctx); err != nil {
		stmt.Close()
		return fmt.Errorf("flushing copy: %w", err)
	}

	if err := stmt.Close(); err != nil {
		return fmt.Errorf("closing copy statement: %w", err)
	}

	return tx.Commit()
}
