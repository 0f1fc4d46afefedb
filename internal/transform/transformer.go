package transform

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"strconv"
	"strings"
	"time"
)

// dateFormats are tried in order; the first successful parse wins.
var dateFormats = []string{"2006-01-02", "01/02/2006", "20060102"}

// Transformer maps raw provider rows to canonical staging records. Each batch
// is processed record-by-record with per-record fault isolation: a row that
// fails to coerce is logged and skipped, never aborting the rest of the batch.
type Transformer struct{}

// NewTransformer creates a transformer.
func NewTransformer() *Transformer {
	return &Transformer{}
}

// TransformGames coerces raw team-game rows into canonical game records.
// An unparseable date yields a null date, not a skipped record; only a missing
// identifier drops the row.
func (t *Transformer) TransformGames(raws []map[string]interface{}) GameBatch {
	log.Printf("[transformer] transforming %d game records", len(raws))

	batch := GameBatch{}
	for i, raw := range raws {
		record, err := transformGame(raw)
		if err != nil {
			key := fmt.Sprint(raw["GAME_ID"])
			log.Printf("[transformer] skipping game %s: %v", key, err)
			batch.Skipped = append(batch.Skipped, Skip{Index: i, Key: key, Reason: err.Error()})
			continue
		}
		batch.Records = append(batch.Records, record)
	}

	log.Printf("[transformer] transformed %d games (%d skipped)", len(batch.Records), len(batch.Skipped))
	return batch
}

func transformGame(raw map[string]interface{}) (*GameRecord, error) {
	gameID, ok := asString(raw["GAME_ID"])
	if !ok || gameID == "" {
		return nil, fmt.Errorf("missing required field GAME_ID")
	}
	teamID, ok := asInt(raw["TEAM_ID"])
	if !ok {
		return nil, fmt.Errorf("missing required field TEAM_ID")
	}

	rawData, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("serializing raw payload: %w", err)
	}

	matchup := stringOr(raw, "MATCHUP", "")

	return &GameRecord{
		GameID:                 gameID,
		TeamID:                 teamID,
		TeamName:               stringOr(raw, "TEAM_NAME", ""),
		GameDate:               parseDate(raw["GAME_DATE"]),
		Matchup:                matchup,
		IsHome:                 !strings.Contains(matchup, "@"),
		WinLoss:                stringOr(raw, "WL", ""),
		FieldGoalsMade:         intOr(raw, "FGM", 0),
		FieldGoalsAttempted:    intOr(raw, "FGA", 0),
		ThreePointersMade:      intOr(raw, "FG3M", 0),
		ThreePointersAttempted: intOr(raw, "FG3A", 0),
		FreeThrowsMade:         intOr(raw, "FTM", 0),
		FreeThrowsAttempted:    intOr(raw, "FTA", 0),
		OffensiveRebounds:      intOr(raw, "OREB", 0),
		DefensiveRebounds:      intOr(raw, "DREB", 0),
		TotalRebounds:          intOr(raw, "REB", 0),
		Assists:                intOr(raw, "AST", 0),
		Steals:                 intOr(raw, "STL", 0),
		Blocks:                 intOr(raw, "BLK", 0),
		Turnovers:              intOr(raw, "TOV", 0),
		PersonalFouls:          intOr(raw, "PF", 0),
		Points:                 intOr(raw, "PTS", 0),
		RawData:                string(rawData),
	}, nil
}

// TransformPlayerStats coerces raw joined box-score rows into canonical
// player-game records.
func (t *Transformer) TransformPlayerStats(raws []map[string]interface{}) PlayerStatBatch {
	log.Printf("[transformer] transforming %d player stat records", len(raws))

	batch := PlayerStatBatch{}
	for i, raw := range raws {
		record, err := transformPlayerStat(raw)
		if err != nil {
			key := fmt.Sprint(raw["personId"])
			log.Printf("[transformer] skipping player stat for player %s: %v", key, err)
			batch.Skipped = append(batch.Skipped, Skip{Index: i, Key: key, Reason: err.Error()})
			continue
		}
		batch.Records = append(batch.Records, record)
	}

	log.Printf("[transformer] transformed %d player stats (%d skipped)", len(batch.Records), len(batch.Skipped))
	return batch
}

func transformPlayerStat(raw map[string]interface{}) (*PlayerStatRecord, error) {
	gameID, ok := asString(raw["gameId"])
	if !ok || gameID == "" {
		return nil, fmt.Errorf("missing required field gameId")
	}
	teamID, ok := asInt(raw["teamId"])
	if !ok {
		return nil, fmt.Errorf("missing required field teamId")
	}
	playerID, ok := asInt(raw["personId"])
	if !ok {
		return nil, fmt.Errorf("missing required field personId")
	}

	rawData, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("serializing raw payload: %w", err)
	}

	name := strings.TrimSpace(stringOr(raw, "firstName", "") + " " + stringOr(raw, "familyName", ""))

	return &PlayerStatRecord{
		GameID:     gameID,
		TeamID:     teamID,
		PlayerID:   playerID,
		PlayerName: name,
		Position:   stringOr(raw, "position", ""),
		JerseyNum:  stringOr(raw, "jerseyNum", ""),

		MinutesPlayed: parseMinutes(stringOr(raw, "minutes", "")),

		FieldGoalsMade:         intOr(raw, "fieldGoalsMade", 0),
		FieldGoalsAttempted:    intOr(raw, "fieldGoalsAttempted", 0),
		FieldGoalPct:           floatOr(raw, "fieldGoalsPercentage", 0),
		ThreePointersMade:      intOr(raw, "threePointersMade", 0),
		ThreePointersAttempted: intOr(raw, "threePointersAttempted", 0),
		ThreePointPct:          floatOr(raw, "threePointersPercentage", 0),
		FreeThrowsMade:         intOr(raw, "freeThrowsMade", 0),
		FreeThrowsAttempted:    intOr(raw, "freeThrowsAttempted", 0),
		FreeThrowPct:           floatOr(raw, "freeThrowsPercentage", 0),

		OffensiveRebounds: intOr(raw, "reboundsOffensive", 0),
		DefensiveRebounds: intOr(raw, "reboundsDefensive", 0),
		TotalRebounds:     intOr(raw, "reboundsTotal", 0),
		Assists:           intOr(raw, "assists", 0),
		Steals:            intOr(raw, "steals", 0),
		Blocks:            intOr(raw, "blocks", 0),
		Turnovers:         intOr(raw, "turnovers", 0),
		PersonalFouls:     intOr(raw, "foulsPersonal", 0),
		Points:            intOr(raw, "points", 0),
		PlusMinus:         nullableInt(raw["plusMinusPoints"]),

		// Provider-supplied advanced metrics: a zero from the provider means
		// "not reported", so these stay null rather than coercing to 0.
		OffensiveRating:     nullableFloat(raw["offensiveRating"]),
		DefensiveRating:     nullableFloat(raw["defensiveRating"]),
		NetRating:           nullableFloat(raw["netRating"]),
		TrueShootingPct:     nullableFloat(raw["trueShootingPercentage"]),
		EffectiveFGPct:      nullableFloat(raw["effectiveFieldGoalPercentage"]),
		UsagePct:            nullableFloat(raw["usagePercentage"]),
		Pace:                nullableFloat(raw["pace"]),
		PIE:                 nullableFloat(raw["PIE"]),
		AssistPercentage:    nullableFloat(raw["assistPercentage"]),
		AssistToTurnover:    nullableFloat(raw["assistToTurnover"]),
		AssistRatio:         nullableFloat(raw["assistRatio"]),
		OffensiveReboundPct: nullableFloat(raw["offensiveReboundPercentage"]),
		DefensiveReboundPct: nullableFloat(raw["defensiveReboundPercentage"]),
		ReboundPercentage:   nullableFloat(raw["reboundPercentage"]),
		TurnoverRatio:       nullableFloat(raw["turnoverRatio"]),

		RawData: string(rawData),
	}, nil
}

// parseMinutes converts "MM:SS" text to decimal minutes rounded to 1 decimal.
// Malformed or absent input yields 0.0, never a failure.
func parseMinutes(minutesStr string) float64 {
	if minutesStr == "" || minutesStr == "0" {
		return 0.0
	}

	if strings.Contains(minutesStr, ":") {
		parts := strings.Split(minutesStr, ":")
		if len(parts) != 2 {
			return 0.0
		}
		mins, err := strconv.Atoi(parts[0])
		if err != nil {
			return 0.0
		}
		secs, err := strconv.Atoi(parts[1])
		if err != nil {
			return 0.0
		}
		return math.Round((float64(mins)+float64(secs)/60.0)*10) / 10
	}

	f, err := strconv.ParseFloat(minutesStr, 64)
	if err != nil {
		return 0.0
	}
	return f
}

// parseDate tries the candidate formats in order and normalizes to
// YYYY-MM-DD. Failure yields a null date.
func parseDate(v interface{}) sql.NullString {
	dateStr, ok := asString(v)
	if !ok || dateStr == "" {
		return sql.NullString{}
	}

	for _, format := range dateFormats {
		if parsed, err := time.Parse(format, dateStr); err == nil {
			return sql.NullString{String: parsed.Format("2006-01-02"), Valid: true}
		}
	}

	log.Printf("[transformer] could not parse date: %s", dateStr)
	return sql.NullString{}
}

// Coercion helpers. JSON decoding leaves numbers as float64 and the provider
// flips between numeric and string encodings, so each helper accepts both.

func asString(v interface{}) (string, bool) {
	switch val := v.(type) {
	case string:
		return val, true
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	case int:
		return strconv.Itoa(val), true
	default:
		return "", false
	}
}

func asInt(v interface{}) (int, bool) {
	switch val := v.(type) {
	case float64:
		return int(val), true
	case int:
		return val, true
	case string:
		i, err := strconv.Atoi(strings.TrimPrefix(val, "+"))
		if err != nil {
			return 0, false
		}
		return i, true
	default:
		return 0, false
	}
}

func asFloat(v interface{}) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case int:
		return float64(val), true
	case string:
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func stringOr(m map[string]interface{}, key, fallback string) string {
	if s, ok := asString(m[key]); ok {
		return s
	}
	return fallback
}

func intOr(m map[string]interface{}, key string, fallback int) int {
	if i, ok := asInt(m[key]); ok {
		return i
	}
	return fallback
}

func floatOr(m map[string]interface{}, key string, fallback float64) float64 {
	if f, ok := asFloat(m[key]); ok {
		return f
	}
	return fallback
}

// nullableFloat copies a value through only when the source provides a truthy
// one; absent, malformed, and zero all map to null.
func nullableFloat(v interface{}) sql.NullFloat64 {
	f, ok := asFloat(v)
	if !ok || f == 0 {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: f, Valid: true}
}

func nullableInt(v interface{}) sql.NullInt32 {
	i, ok := asInt(v)
	if !ok || i == 0 {
		return sql.NullInt32{}
	}
	return sql.NullInt32{Int32: int32(i), Valid: true}
}
