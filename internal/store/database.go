package store

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
)

// Database represents the warehouse PostgreSQL connection.
type Database struct {
	conn *sql.DB
	dsn  string
}

// NewDatabase creates a new database connection.
func NewDatabase(dsn string) (*Database, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)
	db.SetConnMaxIdleTime(10 * time.Minute)

	// Test connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Database{
		conn: db,
		dsn:  dsn,
	}, nil
}

// Close closes the database connection.
func (db *Database) Close() error {
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}

// DB returns the underlying *sql.DB for queries.
func (db *Database) DB() *sql.DB {
	return db.conn
}

// migration pairs a tracked version name with its SQL.
type migration struct {
	version string
	sql     string
}

// migrations create the staging landing schema. Staging tables are
// append-only; warehouse modeling happens downstream of this service.
var migrations = []migration{
	{
		version: "001_create_staging_schema.sql",
		sql:     `CREATE SCHEMA IF NOT EXISTS staging`,
	},
	{
		version: "002_create_team_game_stats_raw.sql",
		sql: `
			CREATE TABLE IF NOT EXISTS staging.team_game_stats_raw (
				id BIGSERIAL PRIMARY KEY,
				game_id VARCHAR(20) NOT NULL,
				team_id BIGINT NOT NULL,
				team_name TEXT NOT NULL DEFAULT '',
				game_date DATE,
				matchup TEXT NOT NULL DEFAULT '',
				is_home BOOLEAN NOT NULL DEFAULT FALSE,
				win_loss VARCHAR(1) NOT NULL DEFAULT '',
				field_goals_made INT NOT NULL DEFAULT 0,
				field_goals_attempted INT NOT NULL DEFAULT 0,
				three_pointers_made INT NOT NULL DEFAULT 0,
				three_pointers_attempted INT NOT NULL DEFAULT 0,
				free_throws_made INT NOT NULL DEFAULT 0,
				free_throws_attempted INT NOT NULL DEFAULT 0,
				offensive_rebounds INT NOT NULL DEFAULT 0,
				defensive_rebounds INT NOT NULL DEFAULT 0,
				total_rebounds INT NOT NULL DEFAULT 0,
				assists INT NOT NULL DEFAULT 0,
				steals INT NOT NULL DEFAULT 0,
				blocks INT NOT NULL DEFAULT 0,
				turnovers INT NOT NULL DEFAULT 0,
				personal_fouls INT NOT NULL DEFAULT 0,
				points INT NOT NULL DEFAULT 0,
				raw_data JSONB,
				load_timestamp TIMESTAMPTZ NOT NULL DEFAULT NOW()
			)`,
	},
	{
		version: "003_create_player_game_stats_raw.sql",
		sql: `
			CREATE TABLE IF NOT EXISTS staging.player_game_stats_raw (
				id BIGSERIAL PRIMARY KEY,
				game_id VARCHAR(20) NOT NULL,
				team_id BIGINT NOT NULL,
				player_id BIGINT NOT NULL,
				player_name TEXT NOT NULL DEFAULT '',
				position VARCHAR(10) NOT NULL DEFAULT '',
				jersey_num VARCHAR(10) NOT NULL DEFAULT '',
				minutes_played DOUBLE PRECISION NOT NULL DEFAULT 0,
				field_goals_made INT NOT NULL DEFAULT 0,
				field_goals_attempted INT NOT NULL DEFAULT 0,
				field_goal_pct DOUBLE PRECISION NOT NULL DEFAULT 0,
				three_pointers_made INT NOT NULL DEFAULT 0,
				three_pointers_attempted INT NOT NULL DEFAULT 0,
				three_point_pct DOUBLE PRECISION NOT NULL DEFAULT 0,
				free_throws_made INT NOT NULL DEFAULT 0,
				free_throws_attempted INT NOT NULL DEFAULT 0,
				free_throw_pct DOUBLE PRECISION NOT NULL DEFAULT 0,
				offensive_rebounds INT NOT NULL DEFAULT 0,
				defensive_rebounds INT NOT NULL DEFAULT 0,
				total_rebounds INT NOT NULL DEFAULT 0,
				assists INT NOT NULL DEFAULT 0,
				steals INT NOT NULL DEFAULT 0,
				blocks INT NOT NULL DEFAULT 0,
				turnovers INT NOT NULL DEFAULT 0,
				personal_fouls INT NOT NULL DEFAULT 0,
				points INT NOT NULL DEFAULT 0,
				plus_minus INT,
				offensive_rating DOUBLE PRECISION,
				defensive_rating DOUBLE PRECISION,
				net_rating DOUBLE PRECISION,
				true_shooting_pct DOUBLE PRECISION,
				effective_fg_pct DOUBLE PRECISION,
				usage_pct DOUBLE PRECISION,
				pace DOUBLE PRECISION,
				pie DOUBLE PRECISION,
				assist_percentage DOUBLE PRECISION,
				assist_to_turnover DOUBLE PRECISION,
				assist_ratio DOUBLE PRECISION,
				offensive_rebound_pct DOUBLE PRECISION,
				defensive_rebound_pct DOUBLE PRECISION,
				rebound_percentage DOUBLE PRECISION,
				turnover_ratio DOUBLE PRECISION,
				raw_data JSONB,
				load_timestamp TIMESTAMPTZ NOT NULL DEFAULT NOW()
			)`,
	},
	{
		version: "004_create_staging_indexes.sql",
		sql: `
			CREATE INDEX IF NOT EXISTS idx_team_game_stats_raw_game ON staging.team_game_stats_raw (game_id);
			CREATE INDEX IF NOT EXISTS idx_player_game_stats_raw_game ON staging.player_game_stats_raw (game_id);
			CREATE INDEX IF NOT EXISTS idx_player_game_stats_raw_player ON staging.player_game_stats_raw (player_id)`,
	},
}

// RunMigrations executes all migrations in order.
func (db *Database) RunMigrations() error {
	log.Println("Running database migrations...")

	if err := db.createMigrationsTable(); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	for _, m := range migrations {
		if err := db.runMigration(m); err != nil {
			return fmt.Errorf("failed to run migration %s: %w", m.version, err)
		}
	}

	log.Println("✓ All migrations completed successfully")
	return nil
}

// createMigrationsTable creates a table to track which migrations have been run.
func (db *Database) createMigrationsTable() error {
	query := `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version VARCHAR(255) PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`
	_, err := db.conn.Exec(query)
	return err
}

// runMigration runs a single migration if it hasn't been applied yet.
func (db *Database) runMigration(m migration) error {
	var exists bool
	err := db.conn.QueryRow("SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)", m.version).Scan(&exists)
	if err != nil {
		return err
	}

	if exists {
		log.Printf("  ⊘ Skipping %s (already applied)", m.version)
		return nil
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(m.sql); err != nil {
		return fmt.Errorf("failed to execute migration: %w", err)
	}

	if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES ($1)", m.version); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	log.Printf("  ✓ Applied %s", m.version)
	return nil
}

// HealthCheck performs a health check on the database.
func (db *Database) HealthCheck() error {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	return db.conn.PingContext(ctx)
}
