package nba

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strconv"
	"time"
)

var (
	// ErrInvalidSeasonFormat is returned for season strings not matching YYYY-YY.
	ErrInvalidSeasonFormat = errors.New("invalid season format, expected YYYY-YY")

	// ErrInvalidDateFormat is returned for dates not matching YYYY-MM-DD.
	ErrInvalidDateFormat = errors.New("invalid date format, expected YYYY-MM-DD")
)

var seasonPattern = regexp.MustCompile(`^\d{4}-\d{2}$`)

// advSuffix disambiguates columns present in both box-score sources; the
// traditional value keeps the unsuffixed name.
const advSuffix = "_adv"

// Fetcher retrieves raw game and box-score payloads, applying the shared rate
// limit and retry policy to every outbound request.
type Fetcher struct {
	client *Client
	retry  *RetryPolicy
}

// NewFetcher creates a fetcher around the given client and retry policy.
func NewFetcher(client *Client, retry *RetryPolicy) *Fetcher {
	return &Fetcher{client: client, retry: retry}
}

// FetchGamesByDate returns raw team-game rows for a calendar date, two per
// game (one per team). When season is empty it is inferred from the date.
func (f *Fetcher) FetchGamesByDate(ctx context.Context, date, season string) ([]map[string]interface{}, error) {
	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDateFormat, date)
	}

	if season == "" {
		season = InferSeason(day)
	}

	log.Printf("[fetcher] fetching games for %s (season %s)", date, season)

	var rows []map[string]interface{}
	err = f.retry.Do("leaguegamefinder", func() error {
		var opErr error
		rows, opErr = f.client.LeagueGameFinder(ctx, date, season)
		return opErr
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[fetcher] retrieved %d game records for %s", len(rows), date)
	return rows, nil
}

// FetchPlayerGameStats returns one raw row per player for a game, built by
// inner-joining the traditional and advanced box scores on (teamId, personId).
// Traditional values win for columns both sources report; the advanced copy is
// kept under a "_adv" suffix. Rows without a counterpart are dropped.
func (f *Fetcher) FetchPlayerGameStats(ctx context.Context, gameID string) ([]map[string]interface{}, error) {
	log.Printf("[fetcher] fetching player stats for game %s", gameID)

	var traditional []map[string]interface{}
	err := f.retry.Do("boxscoretraditional", func() error {
		var opErr error
		traditional, opErr = f.client.BoxScoreTraditional(ctx, gameID)
		return opErr
	})
	if err != nil {
		return nil, err
	}

	var advanced []map[string]interface{}
	err = f.retry.Do("boxscoreadvanced", func() error {
		var opErr error
		advanced, opErr = f.client.BoxScoreAdvanced(ctx, gameID)
		return opErr
	})
	if err != nil {
		return nil, err
	}

	merged := joinBoxScores(traditional, advanced)
	log.Printf("[fetcher] retrieved stats for %d players in game %s", len(merged), gameID)
	return merged, nil
}

// joinBoxScores is an explicit hash join: build a lookup keyed by
// (teamId, personId) from the advanced rows, probe it while iterating the
// traditional rows.
func joinBoxScores(traditional, advanced []map[string]interface{}) []map[string]interface{} {
	type joinKey struct {
		teamID   string
		personID string
	}

	keyOf := func(row map[string]interface{}) joinKey {
		return joinKey{
			teamID:   fmt.Sprint(row["teamId"]),
			personID: fmt.Sprint(row["personId"]),
		}
	}

	lookup := make(map[joinKey]map[string]interface{}, len(advanced))
	for _, row := range advanced {
		lookup[keyOf(row)] = row
	}

	var merged []map[string]interface{}
	for _, trad := range traditional {
		adv, ok := lookup[keyOf(trad)]
		if !ok {
			// Inner join: traditional rows without an advanced counterpart
			// are dropped too.
			continue
		}

		row := make(map[string]interface{}, len(trad)+len(adv))
		for k, v := range trad {
			row[k] = v
		}
		for k, v := range adv {
			if k == "teamId" || k == "personId" {
				continue
			}
			if _, exists := trad[k]; exists {
				row[k+advSuffix] = v
			} else {
				row[k] = v
			}
		}

		merged = append(merged, row)
	}

	return merged
}

// InferSeason maps a date to its season label. Seasons span October through
// the following June, so October and later belong to the season starting that
// calendar year.
func InferSeason(date time.Time) string {
	year := date.Year()
	if date.Month() >= time.October {
		return seasonLabel(year)
	}
	return seasonLabel(year - 1)
}

// SeasonDateRange returns the first and last calendar dates of a season.
func SeasonDateRange(season string) (string, string, error) {
	if !seasonPattern.MatchString(season) {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidSeasonFormat, season)
	}

	startYear, err := strconv.Atoi(season[:4])
	if err != nil {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidSeasonFormat, season)
	}

	return fmt.Sprintf("%d-10-01", startYear), fmt.Sprintf("%d-06-30", startYear+1), nil
}

func seasonLabel(startYear int) string {
	return fmt.Sprintf("%d-%02d", startYear, (startYear+1)%100)
}
