package pipeline

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/fortuna/courtside/internal/analytics"
	"github.com/fortuna/courtside/internal/transform"
)

// Fetcher retrieves raw provider payloads for one date and its games.
type Fetcher interface {
	FetchGamesByDate(ctx context.Context, date, season string) ([]map[string]interface{}, error)
	FetchPlayerGameStats(ctx context.Context, gameID string) ([]map[string]interface{}, error)
}

// Loader appends canonical records to staging and reports rows loaded.
type Loader interface {
	LoadGamesStaging(ctx context.Context, games []*transform.GameRecord) (int, error)
	LoadPlayerStatsStaging(ctx context.Context, stats []*transform.PlayerStatRecord) (int, error)
}

// BoxScoreCache caches joined raw box-score rows per game. Optional; cache
// failures only cost a refetch, never a run.
type BoxScoreCache interface {
	GetBoxScore(ctx context.Context, gameID string) ([]map[string]interface{}, error)
	PutBoxScore(ctx context.Context, gameID string, rows []map[string]interface{}) error
}

// RunPublisher announces completed runs to downstream consumers. Optional;
// publish failures are logged, never fatal.
type RunPublisher interface {
	PublishRun(ctx context.Context, summary interface{}) error
}

// RunSummary reports the outcome of one pipeline run.
type RunSummary struct {
	RunID              string        `json:"run_id"`
	Date               string        `json:"date"`
	Season             string        `json:"season"`
	GamesLoaded        int           `json:"games_loaded"`
	GamesSkipped       int           `json:"games_skipped"`
	PlayerStatsLoaded  int           `json:"player_stats_loaded"`
	PlayerStatsSkipped int           `json:"player_stats_skipped"`
	Duration           time.Duration `json:"duration_ns"`
}

// Pipeline runs the extraction-normalization-metrics flow for one calendar
// date: fetch raw rows, transform to canonical records, enrich shooting
// efficiency, append to staging. Records are created fresh per run and
// discarded once loaded.
type Pipeline struct {
	fetcher     Fetcher
	loader      Loader
	cache       BoxScoreCache
	publisher   RunPublisher
	transformer *transform.Transformer
	calc        *analytics.Calculator
}

// New creates a pipeline. cache and publisher may be nil.
func New(fetcher Fetcher, loader Loader, cache BoxScoreCache, publisher RunPublisher) *Pipeline {
	return &Pipeline{
		fetcher:     fetcher,
		loader:      loader,
		cache:       cache,
		publisher:   publisher,
		transformer: transform.NewTransformer(),
		calc:        analytics.NewCalculator(),
	}
}

// Run executes one pipeline invocation for a date. Season may be empty, in
// which case the fetch layer infers it. Fetch failures abort the run and
// propagate; the caller decides whether to re-invoke. Transform failures only
// degrade the skipped counts.
func (p *Pipeline) Run(ctx context.Context, date, season string) (*RunSummary, error) {
	runID := uuid.NewString()
	started := time.Now()

	log.Printf("[pipeline] run %s starting for %s", runID, date)

	rawGames, err := p.fetcher.FetchGamesByDate(ctx, date, season)
	if err != nil {
		return nil, fmt.Errorf("fetching games for %s: %w", date, err)
	}

	gameBatch := p.transformer.TransformGames(rawGames)

	// Two rows per game, one per team. Box scores are fetched once per game.
	var gameIDs []string
	seen := make(map[string]bool)
	for _, g := range gameBatch.Records {
		if !seen[g.GameID] {
			seen[g.GameID] = true
			gameIDs = append(gameIDs, g.GameID)
		}
	}

	var playerRecords []*transform.PlayerStatRecord
	playerSkipped := 0
	for _, gameID := range gameIDs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		rawStats, err := p.boxScoreRows(ctx, gameID)
		if err != nil {
			return nil, fmt.Errorf("fetching player stats for game %s: %w", gameID, err)
		}

		statBatch := p.transformer.TransformPlayerStats(rawStats)
		playerRecords = append(playerRecords, statBatch.Records...)
		playerSkipped += len(statBatch.Skipped)
	}

	playerRecords = p.calc.EnrichBatch(playerRecords)

	gamesLoaded, err := p.loader.LoadGamesStaging(ctx, gameBatch.Records)
	if err != nil {
		return nil, fmt.Errorf("loading games: %w", err)
	}

	statsLoaded, err := p.loader.LoadPlayerStatsStaging(ctx, playerRecords)
	if err != nil {
		return nil, fmt.Errorf("loading player stats: %w", err)
	}

	summary := &RunSummary{
		RunID:              runID,
		Date:               date,
		Season:             season,
		GamesLoaded:        gamesLoaded,
		GamesSkipped:       len(gameBatch.Skipped),
		PlayerStatsLoaded:  statsLoaded,
		PlayerStatsSkipped: playerSkipped,
		Duration:           time.Since(started),
	}

	log.Printf("[pipeline] ✓ run %s complete: %d games, %d player stats loaded (%d/%d skipped) in %v",
		runID, summary.GamesLoaded, summary.PlayerStatsLoaded,
		summary.GamesSkipped, summary.PlayerStatsSkipped, summary.Duration.Round(time.Millisecond))

	if p.publisher != nil {
		if err := p.publisher.PublishRun(ctx, summary); err != nil {
			log.Printf("[pipeline] warning: publishing run %s failed: %v", runID, err)
		}
	}

	return summary, nil
}

// boxScoreRows returns the joined box-score rows for a game, consulting the
// cache first. Cache errors fall back to the fetcher.
func (p *Pipeline) boxScoreRows(ctx context.Context, gameID string) ([]map[string]interface{}, error) {
	if p.cache != nil {
		if rows, err := p.cache.GetBoxScore(ctx, gameID); err == nil {
			log.Printf("[pipeline] cache hit for game %s", gameID)
			return rows, nil
		}
	}

	rows, err := p.fetcher.FetchPlayerGameStats(ctx, gameID)
	if err != nil {
		return nil, err
	}

	if p.cache != nil {
		if err := p.cache.PutBoxScore(ctx, gameID, rows); err != nil {
			log.Printf("[pipeline] warning: caching game %s failed: %v", gameID, err)
		}
	}

	return rows, nil
}
