// Package analytics computes derived basketball efficiency metrics.
//
// Formulas follow Basketball-Reference.com methodology, simplified where the
// published formula needs league-wide context. Every function is total: zero
// attempts, zero minutes, and missing team context all yield zero instead of
// a division fault.
package analytics

import (
	"database/sql"
	"log"
	"math"

	"github.com/fortuna/courtside/internal/transform"
)

// League average constants (updated annually).
const (
	LeaguePace = 99.0 // possessions per 48 minutes
)

// WinShares bundles offensive, defensive and total win shares.
type WinShares struct {
	Offensive float64 `json:"offensive_ws"`
	Defensive float64 `json:"defensive_ws"`
	Total     float64 `json:"total_ws"`
}

// Calculator computes advanced metrics for players and teams. It is pure and
// stateless; methods are safe for concurrent use.
type Calculator struct{}

// NewCalculator creates a calculator.
func NewCalculator() *Calculator {
	return &Calculator{}
}

// TrueShootingPct returns PTS / (2 * (FGA + 0.44 * FTA)), rounded to 3
// decimals. Zero when the player attempted nothing.
func (c *Calculator) TrueShootingPct(points, fga, fta int) float64 {
	if fga+fta == 0 {
		return 0.0
	}
	ts := float64(points) / (2 * (float64(fga) + 0.44*float64(fta)))
	return round(ts, 3)
}

// EffectiveFGPct returns (FGM + 0.5 * 3PM) / FGA, rounded to 3 decimals.
func (c *Calculator) EffectiveFGPct(fgm, fg3m, fga int) float64 {
	if fga == 0 {
		return 0.0
	}
	efg := (float64(fgm) + 0.5*float64(fg3m)) / float64(fga)
	return round(efg, 3)
}

// UsageRate estimates the percentage of team plays used by a player while on
// court. Requires team aggregates supplied by the caller; any degenerate
// denominator yields 0.
func (c *Calculator) UsageRate(fga, fta, tov int, minPlayed, teamMin float64, teamFGA, teamFTA, teamTOV int) float64 {
	if minPlayed == 0 || teamMin == 0 {
		return 0.0
	}

	playerPoss := float64(fga) + 0.44*float64(fta) + float64(tov)
	teamPoss := float64(teamFGA) + 0.44*float64(teamFTA) + float64(teamTOV)
	if teamPoss == 0 {
		return 0.0
	}

	usage := 100 * ((playerPoss * (teamMin / 5)) / (minPlayed * teamPoss))
	return round(usage, 1)
}

// PER approximates Player Efficiency Rating; the published formula has many
// more factors. Returns 0 without minutes or pace context.
func (c *Calculator) PER(minPlayed float64, fg3m, ast, fgm, ftm, oreb, dreb, stl, blk, fga, fta, tov, pf int, teamPace, leaguePace float64) float64 {
	if minPlayed == 0 || teamPace == 0 || leaguePace == 0 {
		return 0.0
	}

	factor := (2.0 / 3.0) - (0.5*(leaguePace/teamPace))/(2*(leaguePace/teamPace))
	const vop = 1.0      // value of possession (simplified)
	const drbPct = 0.75  // defensive rebound percentage (simplified)

	astPerFGM := 0.0
	if fgm > 0 {
		astPerFGM = float64(ast) / (2 * float64(fgm))
	}

	uPER := (1 / minPlayed) * (float64(fg3m) +
		(2.0/3.0)*float64(ast) +
		(2-factor*(teamPace/leaguePace))*float64(fgm) +
		float64(ftm)*0.5*(1+(1-astPerFGM)+(2.0/3.0)*astPerFGM) +
		vop*float64(oreb) +
		vop*float64(dreb)*(1-drbPct) +
		vop*float64(stl) +
		vop*float64(blk) +
		vop*float64(ast) -
		vop*float64(fga-fgm) -
		vop*0.44*float64(fta-ftm) -
		vop*float64(tov) -
		float64(pf))

	// Scale to the league average of 15.
	return round(uPER*(15/leaguePace), 1)
}

// OffensiveRating returns points produced per 100 possessions.
func (c *Calculator) OffensiveRating(points, possessions int) float64 {
	if possessions == 0 {
		return 0.0
	}
	return round(100*(float64(points)/float64(possessions)), 1)
}

// DefensiveRating approximates points allowed per 100 possessions, adjusting
// the team rating by the player's share of defensive plays.
func (c *Calculator) DefensiveRating(dreb, stl, blk int, minPlayed, teamMin float64, teamDREB, teamSTL, teamBLK, oppPoints, oppPossessions int) float64 {
	if minPlayed == 0 || teamMin == 0 {
		return 0.0
	}

	teamDRtg := 100.0
	if oppPossessions > 0 {
		teamDRtg = 100 * (float64(oppPoints) / float64(oppPossessions))
	}

	playerDef := (float64(dreb) + float64(stl) + float64(blk)) / minPlayed
	teamDef := (float64(teamDREB) + float64(teamSTL) + float64(teamBLK)) / teamMin

	drtg := teamDRtg
	if teamDef > 0 {
		drtg = teamDRtg * (1 - (playerDef-teamDef)/teamDef*0.1)
	}

	return round(drtg, 1)
}

// WinSharesFor approximates offensive, defensive and total win shares from a
// single stat line.
func (c *Calculator) WinSharesFor(points, fgm, fga, ftm, fta, dreb, stl, blk, tov int) WinShares {
	const marginalPointsPerWin = 30.0 // league average (simplified)

	marginalOffense := float64(points) - 0.92*float64(fga-fgm) - 0.44*float64(fta-ftm)
	ows := marginalOffense / marginalPointsPerWin

	defensiveContribution := float64(dreb+stl+blk) - float64(tov)*0.5
	dws := defensiveContribution / marginalPointsPerWin * 0.7

	return WinShares{
		Offensive: round(ows, 1),
		Defensive: round(dws, 1),
		Total:     round(ows+dws, 1),
	}
}

// BoxPlusMinus approximates BPM per 48 minutes, centered on a league average
// of 0. Returns 0 without minutes.
func (c *Calculator) BoxPlusMinus(points, reb, ast, stl, blk, tov, fga, fgm, fta int, minPlayed float64) float64 {
	if minPlayed == 0 {
		return 0.0
	}

	rawBPM := (0.123*float64(points) +
		0.101*float64(reb) +
		0.215*float64(ast) +
		0.422*float64(stl) +
		0.631*float64(blk) -
		0.176*float64(fga-fgm) -
		0.146*float64(fta-(points-2*fgm)) -
		0.162*float64(tov)) / (minPlayed / 48)

	return round(rawBPM-2.0, 1)
}

// EnrichBatch fills true_shooting_pct and effective_fg_pct from each record's
// own counting stats, only where the provider left them null. Populated values
// are never overwritten and no other field is touched, so the operation is
// idempotent. Team-context metrics are deliberately excluded from staging
// enrichment.
func (c *Calculator) EnrichBatch(records []*transform.PlayerStatRecord) []*transform.PlayerStatRecord {
	log.Printf("[analytics] enriching %d player records", len(records))

	for _, r := range records {
		if !r.TrueShootingPct.Valid {
			r.TrueShootingPct = sql.NullFloat64{
				Float64: c.TrueShootingPct(r.Points, r.FieldGoalsAttempted, r.FreeThrowsAttempted),
				Valid:   true,
			}
		}
		if !r.EffectiveFGPct.Valid {
			r.EffectiveFGPct = sql.NullFloat64{
				Float64: c.EffectiveFGPct(r.FieldGoalsMade, r.ThreePointersMade, r.FieldGoalsAttempted),
				Valid:   true,
			}
		}
	}

	return records
}

// round rounds to the given number of decimal places.
func round(x float64, places int) float64 {
	shift := math.Pow(10, float64(places))
	return math.Round(x*shift) / shift
}
