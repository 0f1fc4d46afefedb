package analytics

import (
	"database/sql"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/fortuna/courtside/internal/transform"
)

func TestShootingMetrics(t *testing.T) {
	calc := NewCalculator()

	Convey("True shooting percentage", t, func() {
		Convey("Follows PTS / (2 * (FGA + 0.44 * FTA))", func() {
			// 30 / (2 * (20 + 0.44*5)) = 30 / 44.4
			So(calc.TrueShootingPct(30, 20, 5), ShouldEqual, 0.676)
		})

		Convey("Is zero when nothing was attempted", func() {
			So(calc.TrueShootingPct(0, 0, 0), ShouldEqual, 0.0)
			So(calc.TrueShootingPct(5, 0, 0), ShouldEqual, 0.0)
		})

		Convey("Handles free-throw-only lines", func() {
			// 2 / (2 * 0.44 * 2) = 1.136...
			So(calc.TrueShootingPct(2, 0, 2), ShouldEqual, 1.136)
		})
	})

	Convey("Effective field goal percentage", t, func() {
		Convey("Weights threes by 1.5", func() {
			// (10 + 0.5*5) / 20
			So(calc.EffectiveFGPct(10, 5, 20), ShouldEqual, 0.625)
		})

		Convey("Is zero with no attempts", func() {
			So(calc.EffectiveFGPct(0, 0, 0), ShouldEqual, 0.0)
		})

		Convey("Equals plain FG% when no threes were made", func() {
			So(calc.EffectiveFGPct(10, 0, 20), ShouldEqual, 0.5)
		})

		Convey("An all-threes line scores 1.5 per make", func() {
			So(calc.EffectiveFGPct(5, 5, 10), ShouldEqual, 0.75)
		})
	})
}

func TestUsageRate(t *testing.T) {
	calc := NewCalculator()

	Convey("Usage rate", t, func() {
		Convey("Is zero without minutes or team context", func() {
			So(calc.UsageRate(20, 5, 3, 0, 240, 90, 22, 13), ShouldEqual, 0.0)
			So(calc.UsageRate(20, 5, 3, 36, 0, 90, 22, 13), ShouldEqual, 0.0)
			So(calc.UsageRate(20, 5, 3, 36, 240, 0, 0, 0), ShouldEqual, 0.0)
		})

		Convey("A full-minutes stat line computes the expected share", func() {
			// playerPoss = 20 + 0.44*5 + 3 = 25.2
			// teamPoss = 90 + 0.44*22 + 13 = 112.68
			// 100 * (25.2 * 48) / (36 * 112.68) = 29.8...
			So(calc.UsageRate(20, 5, 3, 36, 240, 90, 22, 13), ShouldEqual, 29.8)
		})
	})
}

func TestRatingsAndComposites(t *testing.T) {
	calc := NewCalculator()

	Convey("Offensive rating is points per 100 possessions", t, func() {
		So(calc.OffensiveRating(112, 100), ShouldEqual, 112.0)
		So(calc.OffensiveRating(30, 0), ShouldEqual, 0.0)
	})

	Convey("Defensive rating guards its denominators", t, func() {
		So(calc.DefensiveRating(4, 2, 0, 0, 240, 33, 8, 5, 105, 100), ShouldEqual, 0.0)
		So(calc.DefensiveRating(4, 2, 0, 36, 0, 33, 8, 5, 105, 100), ShouldEqual, 0.0)

		Convey("And yields a positive rating for a plausible line", func() {
			drtg := calc.DefensiveRating(4, 2, 0, 36, 240, 33, 8, 5, 105, 100)
			So(drtg, ShouldBeGreaterThan, 0.0)
			So(drtg, ShouldBeLessThan, 150.0)
		})
	})

	Convey("PER is zero without minutes or pace", t, func() {
		So(calc.PER(0, 5, 7, 10, 5, 1, 4, 2, 0, 20, 5, 3, 2, 98.5, LeaguePace), ShouldEqual, 0.0)
		So(calc.PER(36, 5, 7, 10, 5, 1, 4, 2, 0, 20, 5, 3, 2, 0, LeaguePace), ShouldEqual, 0.0)
		So(calc.PER(36, 5, 7, 10, 5, 1, 4, 2, 0, 20, 5, 3, 2, 98.5, 0), ShouldEqual, 0.0)
	})

	Convey("PER tolerates a zero-FGM stat line", t, func() {
		So(func() {
			calc.PER(12, 0, 2, 0, 2, 0, 3, 1, 0, 5, 2, 1, 3, 98.5, LeaguePace)
		}, ShouldNotPanic)
	})

	Convey("Win shares decompose into offensive plus defensive", t, func() {
		ws := calc.WinSharesFor(30, 10, 20, 5, 5, 4, 2, 0, 3)
		So(ws.Total, ShouldEqual, ws.Offensive+ws.Defensive)
	})

	Convey("Box plus-minus is zero without minutes", t, func() {
		So(calc.BoxPlusMinus(30, 5, 7, 2, 0, 3, 20, 10, 5, 0), ShouldEqual, 0.0)
	})
}

func TestEnrichBatch(t *testing.T) {
	calc := NewCalculator()

	record := func() *transform.PlayerStatRecord {
		return &transform.PlayerStatRecord{
			GameID:              "0022400101",
			TeamID:              1610612744,
			PlayerID:            201939,
			Points:              30,
			FieldGoalsMade:      10,
			FieldGoalsAttempted: 20,
			ThreePointersMade:   5,
			FreeThrowsAttempted: 5,
		}
	}

	Convey("Enriching a player batch", t, func() {
		Convey("Fills null shooting efficiency from counting stats", func() {
			records := calc.EnrichBatch([]*transform.PlayerStatRecord{record()})

			So(records, ShouldHaveLength, 1)
			So(records[0].TrueShootingPct.Valid, ShouldBeTrue)
			So(records[0].TrueShootingPct.Float64, ShouldEqual, 0.676)
			So(records[0].EffectiveFGPct.Valid, ShouldBeTrue)
			So(records[0].EffectiveFGPct.Float64, ShouldEqual, 0.625)
		})

		Convey("Never overwrites provider-supplied values", func() {
			r := record()
			r.TrueShootingPct = sql.NullFloat64{Float64: 0.612, Valid: true}

			records := calc.EnrichBatch([]*transform.PlayerStatRecord{r})

			So(records[0].TrueShootingPct.Float64, ShouldEqual, 0.612)
			So(records[0].EffectiveFGPct.Float64, ShouldEqual, 0.625)
		})

		Convey("Is idempotent across repeated enrichment", func() {
			records := calc.EnrichBatch([]*transform.PlayerStatRecord{record()})
			first := records[0].TrueShootingPct.Float64

			records = calc.EnrichBatch(records)
			So(records[0].TrueShootingPct.Float64, ShouldEqual, first)
		})

		Convey("Leaves a zero-attempt line at zero, valid", func() {
			r := record()
			r.Points = 0
			r.FieldGoalsMade = 0
			r.FieldGoalsAttempted = 0
			r.ThreePointersMade = 0
			r.FreeThrowsAttempted = 0

			records := calc.EnrichBatch([]*transform.PlayerStatRecord{r})

			So(records[0].TrueShootingPct.Valid, ShouldBeTrue)
			So(records[0].TrueShootingPct.Float64, ShouldEqual, 0.0)
		})

		Convey("No field beyond the two shooting metrics is touched", func() {
			r := record()
			r.UsagePct = sql.NullFloat64{Float64: 28.4, Valid: true}

			records := calc.EnrichBatch([]*transform.PlayerStatRecord{r})

			So(records[0].UsagePct.Float64, ShouldEqual, 28.4)
			So(records[0].OffensiveRating.Valid, ShouldBeFalse)
			So(records[0].Pace.Valid, ShouldBeFalse)
			So(records[0].PlusMinus.Valid, ShouldBeFalse)
			So(records[0].Points, ShouldEqual, 30)
		})

		Convey("An empty batch is a no-op", func() {
			So(calc.EnrichBatch(nil), ShouldBeEmpty)
		})
	})
}
