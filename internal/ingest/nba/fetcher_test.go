package nba

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestSeasonHelpers(t *testing.T) {
	Convey("Season inference from a calendar date", t, func() {
		Convey("October and later belong to the season starting that year", func() {
			So(InferSeason(time.Date(2024, time.October, 22, 0, 0, 0, 0, time.UTC)), ShouldEqual, "2024-25")
			So(InferSeason(time.Date(2024, time.December, 15, 0, 0, 0, 0, time.UTC)), ShouldEqual, "2024-25")
		})

		Convey("January through June belong to the season started the year before", func() {
			So(InferSeason(time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)), ShouldEqual, "2023-24")
			So(InferSeason(time.Date(2025, time.June, 15, 0, 0, 0, 0, time.UTC)), ShouldEqual, "2024-25")
		})

		Convey("Century rollover pads the suffix", func() {
			So(InferSeason(time.Date(1999, time.November, 1, 0, 0, 0, 0, time.UTC)), ShouldEqual, "1999-00")
		})
	})

	Convey("Season date ranges", t, func() {
		Convey("A season spans October 1 through June 30", func() {
			start, end, err := SeasonDateRange("2024-25")
			So(err, ShouldBeNil)
			So(start, ShouldEqual, "2024-10-01")
			So(end, ShouldEqual, "2025-06-30")
		})

		Convey("A malformed season label is rejected", func() {
			for _, bad := range []string{"2024", "24-25", "2024/25", "2024-2025", ""} {
				_, _, err := SeasonDateRange(bad)
				So(errors.Is(err, ErrInvalidSeasonFormat), ShouldBeTrue)
			}
		})
	})
}

// statsServer fakes the provider with canned payloads per endpoint path.
func statsServer(payloads map[string]interface{}) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for path, payload := range payloads {
			if strings.Contains(r.URL.Path, path) {
				json.NewEncoder(w).Encode(payload)
				return
			}
		}
		w.WriteHeader(http.StatusNotFound)
	}))
}

func newTestFetcher(baseURL string) *Fetcher {
	clock := newFakeClock()
	limiter := NewRateLimiterWithClock(1000, clock)
	retry := NewRetryPolicyWithClock(limiter, 3, time.Millisecond, clock)
	return NewFetcher(New(baseURL), retry)
}

func gameFinderPayload() map[string]interface{} {
	return map[string]interface{}{
		"resultSets": []interface{}{
			map[string]interface{}{
				"headers": []interface{}{"GAME_ID", "TEAM_ID", "TEAM_NAME", "MATCHUP", "PTS"},
				"rowSet": []interface{}{
					[]interface{}{"0022400101", 1610612744, "Golden State Warriors", "GSW vs. LAL", 117},
					[]interface{}{"0022400101", 1610612747, "Los Angeles Lakers", "LAL @ GSW", 109},
				},
			},
		},
	}
}

func boxScorePayload(key string, players map[string][]map[string]interface{}) map[string]interface{} {
	teams := map[string]interface{}{"gameId": "0022400101"}
	teamIDs := map[string]int{"homeTeam": 1610612744, "awayTeam": 1610612747}
	for side, roster := range players {
		list := make([]interface{}, 0, len(roster))
		for _, p := range roster {
			list = append(list, p)
		}
		teams[side] = map[string]interface{}{
			"teamId":  teamIDs[side],
			"players": list,
		}
	}
	return map[string]interface{}{key: teams}
}

func TestFetchGamesByDate(t *testing.T) {
	Convey("Given a provider serving game-finder rows", t, func() {
		srv := statsServer(map[string]interface{}{
			"leaguegamefinder": gameFinderPayload(),
		})
		defer srv.Close()

		fetcher := newTestFetcher(srv.URL)

		Convey("Rows come back keyed by header name, one per team", func() {
			rows, err := fetcher.FetchGamesByDate(context.Background(), "2024-12-15", "2024-25")

			So(err, ShouldBeNil)
			So(rows, ShouldHaveLength, 2)
			So(rows[0]["GAME_ID"], ShouldEqual, "0022400101")
			So(rows[0]["TEAM_NAME"], ShouldEqual, "Golden State Warriors")
			So(rows[1]["MATCHUP"], ShouldEqual, "LAL @ GSW")
		})

		Convey("An empty season is inferred from the date", func() {
			_, err := fetcher.FetchGamesByDate(context.Background(), "2024-12-15", "")
			So(err, ShouldBeNil)
		})

		Convey("A malformed date is rejected before any request", func() {
			_, err := fetcher.FetchGamesByDate(context.Background(), "12/15/2024", "")
			So(errors.Is(err, ErrInvalidDateFormat), ShouldBeTrue)
		})
	})

	Convey("A provider that always fails exhausts the retry budget", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		fetcher := newTestFetcher(srv.URL)
		_, err := fetcher.FetchGamesByDate(context.Background(), "2024-12-15", "2024-25")

		var exhausted *RetryExhaustedError
		So(errors.As(err, &exhausted), ShouldBeTrue)
		So(exhausted.Attempts, ShouldEqual, 3)
	})
}

func TestFetchPlayerGameStats(t *testing.T) {
	player := func(personID int, extra map[string]interface{}) map[string]interface{} {
		p := map[string]interface{}{
			"personId":   personID,
			"firstName":  "Test",
			"familyName": "Player",
			"statistics": extra,
		}
		return p
	}

	Convey("Given traditional and advanced box scores for one game", t, func() {
		traditional := boxScorePayload("boxScoreTraditional", map[string][]map[string]interface{}{
			"homeTeam": {
				player(201939, map[string]interface{}{"points": 30, "minutes": "35:24"}),
				player(203110, map[string]interface{}{"points": 22, "minutes": "33:02"}),
			},
		})
		advanced := boxScorePayload("boxScoreAdvanced", map[string][]map[string]interface{}{
			"homeTeam": {
				player(201939, map[string]interface{}{"offensiveRating": 118.5, "minutes": "35:24"}),
			},
		})

		srv := statsServer(map[string]interface{}{
			"boxscoretraditionalv3": traditional,
			"boxscoreadvancedv3":    advanced,
		})
		defer srv.Close()

		fetcher := newTestFetcher(srv.URL)
		rows, err := fetcher.FetchPlayerGameStats(context.Background(), "0022400101")

		So(err, ShouldBeNil)

		Convey("Only players present in both sources survive the join", func() {
			So(rows, ShouldHaveLength, 1)
			So(rows[0]["personId"], ShouldEqual, 201939)
		})

		Convey("Merged rows carry stats from both sources", func() {
			So(rows[0]["points"], ShouldEqual, 30)
			So(rows[0]["offensiveRating"], ShouldEqual, 118.5)
		})

		Convey("Columns reported by both keep the traditional value, advanced under a suffix", func() {
			So(rows[0]["minutes"], ShouldEqual, "35:24")
			So(rows[0]["minutes_adv"], ShouldEqual, "35:24")
		})
	})
}

func TestJoinBoxScores(t *testing.T) {
	row := func(teamID, personID int, extra map[string]interface{}) map[string]interface{} {
		m := map[string]interface{}{"teamId": teamID, "personId": personID}
		for k, v := range extra {
			m[k] = v
		}
		return m
	}

	Convey("Joining box-score sides", t, func() {
		Convey("Matches on the compound (teamId, personId) key", func() {
			merged := joinBoxScores(
				[]map[string]interface{}{row(1, 100, map[string]interface{}{"points": 10})},
				[]map[string]interface{}{row(2, 100, map[string]interface{}{"pace": 99.0})},
			)

			// Same person on a different team does not match.
			So(merged, ShouldBeEmpty)
		})

		Convey("Drops unmatched rows from either side", func() {
			merged := joinBoxScores(
				[]map[string]interface{}{
					row(1, 100, map[string]interface{}{"points": 10}),
					row(1, 101, map[string]interface{}{"points": 5}),
				},
				[]map[string]interface{}{
					row(1, 100, map[string]interface{}{"pace": 99.0}),
					row(1, 102, map[string]interface{}{"pace": 98.0}),
				},
			)

			So(merged, ShouldHaveLength, 1)
			So(merged[0]["personId"], ShouldEqual, 100)
		})

		Convey("Never duplicates the join key columns", func() {
			merged := joinBoxScores(
				[]map[string]interface{}{row(1, 100, nil)},
				[]map[string]interface{}{row(1, 100, nil)},
			)

			So(merged, ShouldHaveLength, 1)
			_, hasSuffixed := merged[0]["teamId_adv"]
			So(hasSuffixed, ShouldBeFalse)
		})

		Convey("Empty inputs yield an empty join", func() {
			So(joinBoxScores(nil, nil), ShouldBeEmpty)
			So(joinBoxScores([]map[string]interface{}{row(1, 100, nil)}, nil), ShouldBeEmpty)
		})
	})
}
