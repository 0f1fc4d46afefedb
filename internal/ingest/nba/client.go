package nba

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const (
	// BaseURL is the NBA stats API root.
	BaseURL = "https://stats.nba.com/stats"

	// LeagueIDNBA fixes every lookup to the domestic top league.
	LeagueIDNBA = "00"
)

// Client handles NBA stats API requests. Responses stay loosely typed
// (map[string]interface{}) until the transformer coerces them; the provider
// renames and omits fields between calls, so nothing here hard-fails on a
// missing column.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a client with a custom base URL (tests point this at httptest).
func New(baseURL string) *Client {
	if baseURL == "" {
		baseURL = BaseURL
	}
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// NewClient creates a client against the production API.
func NewClient() *Client {
	return New(BaseURL)
}

// LeagueGameFinder fetches team-game rows for a single date. The endpoint
// returns tabular result sets (headers + rowSet); each row is zipped into a
// map keyed by header name, one map per team participation.
func (c *Client) LeagueGameFinder(ctx context.Context, date, season string) ([]map[string]interface{}, error) {
	params := url.Values{}
	params.Set("DateFromNullable", date)
	params.Set("DateToNullable", date)
	params.Set("SeasonNullable", season)
	params.Set("LeagueIDNullable", LeagueIDNBA)

	payload, err := c.fetch(ctx, fmt.Sprintf("%s/leaguegamefinder?%s", c.baseURL, params.Encode()))
	if err != nil {
		return nil, err
	}

	return resultSetRows(payload, 0)
}

// BoxScoreTraditional fetches per-player counting stats for a game.
func (c *Client) BoxScoreTraditional(ctx context.Context, gameID string) ([]map[string]interface{}, error) {
	payload, err := c.fetch(ctx, fmt.Sprintf("%s/boxscoretraditionalv3?GameID=%s", c.baseURL, url.QueryEscape(gameID)))
	if err != nil {
		return nil, err
	}
	return flattenBoxScore(payload, "boxScoreTraditional")
}

// BoxScoreAdvanced fetches per-player provider-computed advanced metrics.
func (c *Client) BoxScoreAdvanced(ctx context.Context, gameID string) ([]map[string]interface{}, error) {
	payload, err := c.fetch(ctx, fmt.Sprintf("%s/boxscoreadvancedv3?GameID=%s", c.baseURL, url.QueryEscape(gameID)))
	if err != nil {
		return nil, err
	}
	return flattenBoxScore(payload, "boxScoreAdvanced")
}

// fetch makes an HTTP GET request with browser-like headers. The stats API
// rejects Go's default client fingerprint with a hang or a 403.
func (c *Client) fetch(ctx context.Context, requestURL string) (map[string]interface{}, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36")
	req.Header.Set("Referer", "https://www.nba.com/")
	req.Header.Set("Origin", "https://www.nba.com")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("x-nba-stats-origin", "stats")
	req.Header.Set("x-nba-stats-token", "true")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("provider returned status %d: %s", resp.StatusCode, truncate(body, 200))
	}

	var result map[string]interface{}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("decoding response: %w (body: %s)", err, truncate(body, 200))
	}

	return result, nil
}

// resultSetRows zips headers with rowSet for the classic tabular endpoints.
func resultSetRows(payload map[string]interface{}, index int) ([]map[string]interface{}, error) {
	resultSets := extractArray(payload, "resultSets")
	if index >= len(resultSets) {
		return nil, fmt.Errorf("no result set at index %d", index)
	}

	set, ok := resultSets[index].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("malformed result set at index %d", index)
	}

	headers := extractArray(set, "headers")
	names := make([]string, 0, len(headers))
	for _, h := range headers {
		if name, ok := h.(string); ok {
			names = append(names, name)
		} else {
			names = append(names, "")
		}
	}

	var rows []map[string]interface{}
	for _, rowInterface := range extractArray(set, "rowSet") {
		values, ok := rowInterface.([]interface{})
		if !ok {
			continue
		}
		row := make(map[string]interface{}, len(names))
		for i, name := range names {
			if name == "" || i >= len(values) {
				continue
			}
			row[name] = values[i]
		}
		rows = append(rows, row)
	}

	return rows, nil
}

// flattenBoxScore turns the nested v3 box-score shape (homeTeam/awayTeam ->
// players -> statistics) into one flat map per player: identifiers merged with
// the statistics object.
func flattenBoxScore(payload map[string]interface{}, key string) ([]map[string]interface{}, error) {
	box := extractMap(payload, key)
	if len(box) == 0 {
		return nil, fmt.Errorf("no %s data in response", key)
	}

	gameID := extractString(box, "gameId")

	var rows []map[string]interface{}
	for _, side := range []string{"homeTeam", "awayTeam"} {
		team := extractMap(box, side)
		if len(team) == 0 {
			continue
		}
		teamID := team["teamId"]

		for _, playerInterface := range extractArray(team, "players") {
			player, ok := playerInterface.(map[string]interface{})
			if !ok {
				continue
			}

			row := map[string]interface{}{
				"gameId": gameID,
				"teamId": teamID,
			}
			for _, field := range []string{"personId", "firstName", "familyName", "position", "jerseyNum", "comment"} {
				if v, ok := player[field]; ok {
					row[field] = v
				}
			}
			for statName, statValue := range extractMap(player, "statistics") {
				row[statName] = statValue
			}

			rows = append(rows, row)
		}
	}

	return rows, nil
}

// Loosely-typed payload helpers.

func extractString(m map[string]interface{}, key string) string {
	if v, ok := m[key]; ok {
		if str, ok := v.(string); ok {
			return str
		}
	}
	return ""
}

func extractMap(m map[string]interface{}, key string) map[string]interface{} {
	if v, ok := m[key]; ok {
		if mapVal, ok := v.(map[string]interface{}); ok {
			return mapVal
		}
	}
	return map[string]interface{}{}
}

func extractArray(m map[string]interface{}, key string) []interface{} {
	if v, ok := m[key]; ok {
		if arrVal, ok := v.([]interface{}); ok {
			return arrVal
		}
	}
	return []interface{}{}
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		b = b[:n]
	}
	return string(b)
}
