package transform

import "database/sql"

// GameRecord is the canonical team-game entity matching
// staging.team_game_stats_raw. One record per team participation, two per
// game. Immutable once produced.
type GameRecord struct {
	GameID                 string         `json:"game_id" db:"game_id"`
	TeamID                 int            `json:"team_id" db:"team_id"`
	TeamName               string         `json:"team_name" db:"team_name"`
	GameDate               sql.NullString `json:"game_date,omitempty" db:"game_date"`
	Matchup                string         `json:"matchup" db:"matchup"`
	IsHome                 bool           `json:"is_home" db:"is_home"`
	WinLoss                string         `json:"win_loss" db:"win_loss"`
	FieldGoalsMade         int            `json:"field_goals_made" db:"field_goals_made"`
	FieldGoalsAttempted    int            `json:"field_goals_attempted" db:"field_goals_attempted"`
	ThreePointersMade      int            `json:"three_pointers_made" db:"three_pointers_made"`
	ThreePointersAttempted int            `json:"three_pointers_attempted" db:"three_pointers_attempted"`
	FreeThrowsMade         int            `json:"free_throws_made" db:"free_throws_made"`
	FreeThrowsAttempted    int            `json:"free_throws_attempted" db:"free_throws_attempted"`
	OffensiveRebounds      int            `json:"offensive_rebounds" db:"offensive_rebounds"`
	DefensiveRebounds      int            `json:"defensive_rebounds" db:"defensive_rebounds"`
	TotalRebounds          int            `json:"total_rebounds" db:"total_rebounds"`
	Assists                int            `json:"assists" db:"assists"`
	Steals                 int            `json:"steals" db:"steals"`
	Blocks                 int            `json:"blocks" db:"blocks"`
	Turnovers              int            `json:"turnovers" db:"turnovers"`
	PersonalFouls          int            `json:"personal_fouls" db:"personal_fouls"`
	Points                 int            `json:"points" db:"points"`
	RawData                string         `json:"raw_data" db:"raw_data"`
}

// PlayerStatRecord is the canonical player-game entity matching the 41-column
// staging.player_game_stats_raw schema exactly. Null fields distinguish "not
// provided by source" from "computed as zero".
type PlayerStatRecord struct {
	GameID                 string          `json:"game_id" db:"game_id"`
	TeamID                 int             `json:"team_id" db:"team_id"`
	PlayerID               int             `json:"player_id" db:"player_id"`
	PlayerName             string          `json:"player_name" db:"player_name"`
	Position               string          `json:"position" db:"position"`
	JerseyNum              string          `json:"jersey_num" db:"jersey_num"`
	MinutesPlayed          float64         `json:"minutes_played" db:"minutes_played"`
	FieldGoalsMade         int             `json:"field_goals_made" db:"field_goals_made"`
	FieldGoalsAttempted    int             `json:"field_goals_attempted" db:"field_goals_attempted"`
	FieldGoalPct           float64         `json:"field_goal_pct" db:"field_goal_pct"`
	ThreePointersMade      int             `json:"three_pointers_made" db:"three_pointers_made"`
	ThreePointersAttempted int             `json:"three_pointers_attempted" db:"three_pointers_attempted"`
	ThreePointPct          float64         `json:"three_point_pct" db:"three_point_pct"`
	FreeThrowsMade         int             `json:"free_throws_made" db:"free_throws_made"`
	FreeThrowsAttempted    int             `json:"free_throws_attempted" db:"free_throws_attempted"`
	FreeThrowPct           float64         `json:"free_throw_pct" db:"free_throw_pct"`
	OffensiveRebounds      int             `json:"offensive_rebounds" db:"offensive_rebounds"`
	DefensiveRebounds      int             `json:"defensive_rebounds" db:"defensive_rebounds"`
	TotalRebounds          int             `json:"total_rebounds" db:"total_rebounds"`
	Assists                int             `json:"assists" db:"assists"`
	Steals                 int             `json:"steals" db:"steals"`
	Blocks                 int             `json:"blocks" db:"blocks"`
	Turnovers              int             `json:"turnovers" db:"turnovers"`
	PersonalFouls          int             `json:"personal_fouls" db:"personal_fouls"`
	Points                 int             `json:"points" db:"points"`
	PlusMinus              sql.NullInt32   `json:"plus_minus,omitempty" db:"plus_minus"`
	OffensiveRating        sql.NullFloat64 `json:"offensive_rating,omitempty" db:"offensive_rating"`
	DefensiveRating        sql.NullFloat64 `json:"defensive_rating,omitempty" db:"defensive_rating"`
	NetRating              sql.NullFloat64 `json:"net_rating,omitempty" db:"net_rating"`
	TrueShootingPct        sql.NullFloat64 `json:"true_shooting_pct,omitempty" db:"true_shooting_pct"`
	EffectiveFGPct         sql.NullFloat64 `json:"effective_fg_pct,omitempty" db:"effective_fg_pct"`
	UsagePct               sql.NullFloat64 `json:"usage_pct,omitempty" db:"usage_pct"`
	Pace                   sql.NullFloat64 `json:"pace,omitempty" db:"pace"`
	PIE                    sql.NullFloat64 `json:"pie,omitempty" db:"pie"`
	AssistPercentage       sql.NullFloat64 `json:"assist_percentage,omitempty" db:"assist_percentage"`
	AssistToTurnover       sql.NullFloat64 `json:"assist_to_turnover,omitempty" db:"assist_to_turnover"`
	AssistRatio            sql.NullFloat64 `json:"assist_ratio,omitempty" db:"assist_ratio"`
	OffensiveReboundPct    sql.NullFloat64 `json:"offensive_rebound_pct,omitempty" db:"offensive_rebound_pct"`
	DefensiveReboundPct    sql.NullFloat64 `json:"defensive_rebound_pct,omitempty" db:"defensive_rebound_pct"`
	ReboundPercentage      sql.NullFloat64 `json:"rebound_percentage,omitempty" db:"rebound_percentage"`
	TurnoverRatio          sql.NullFloat64 `json:"turnover_ratio,omitempty" db:"turnover_ratio"`
	RawData                string          `json:"raw_data" db:"raw_data"`
}

// Skip records why one raw record was dropped from a batch.
type Skip struct {
	Index  int    `json:"index"`
	Key    string `json:"key"`
	Reason string `json:"reason"`
}

// GameBatch is the result of transforming raw game rows: the records that
// coerced cleanly plus the skips, so callers can report partial success.
type GameBatch struct {
	Records []*GameRecord `json:"records"`
	Skipped []Skip        `json:"skipped"`
}

// PlayerStatBatch is the result of transforming raw player box-score rows.
type PlayerStatBatch struct {
	Records []*PlayerStatRecord `json:"records"`
	Skipped []Skip              `json:"skipped"`
}
