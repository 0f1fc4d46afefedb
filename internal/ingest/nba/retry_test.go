package nba

import (
	"errors"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestRetryPolicy(t *testing.T) {
	Convey("Given a retry policy over a generous rate limit", t, func() {
		clock := newFakeClock()
		limiter := NewRateLimiterWithClock(100, clock)
		policy := NewRetryPolicyWithClock(limiter, 3, time.Second, clock)

		Convey("A call that succeeds immediately runs once", func() {
			calls := 0
			err := policy.Do("op", func() error {
				calls++
				return nil
			})

			So(err, ShouldBeNil)
			So(calls, ShouldEqual, 1)
			So(clock.sleeps, ShouldBeEmpty)
		})

		Convey("Failures back off exponentially before succeeding", func() {
			calls := 0
			err := policy.Do("op", func() error {
				calls++
				if calls < 3 {
					return errors.New("transient")
				}
				return nil
			})

			So(err, ShouldBeNil)
			So(calls, ShouldEqual, 3)
			So(clock.sleeps, ShouldResemble, []time.Duration{1 * time.Second, 2 * time.Second})
		})

		Convey("Exhausting every attempt yields RetryExhaustedError", func() {
			boom := errors.New("provider down")
			err := policy.Do("leaguegamefinder", func() error { return boom })

			So(err, ShouldNotBeNil)

			var exhausted *RetryExhaustedError
			So(errors.As(err, &exhausted), ShouldBeTrue)
			So(exhausted.Operation, ShouldEqual, "leaguegamefinder")
			So(exhausted.Attempts, ShouldEqual, 3)
			So(errors.Is(err, boom), ShouldBeTrue)

			Convey("And no backoff follows the final failure", func() {
				So(clock.sleeps, ShouldHaveLength, 2)
			})
		})

		Convey("Every attempt spends rate-limit budget, retries included", func() {
			limiter.Reset()
			before := limiter.count

			policy.Do("op", func() error { return errors.New("always") })

			So(limiter.count-before, ShouldEqual, 3)
		})
	})

	Convey("A non-positive attempt count falls back to the default", t, func() {
		clock := newFakeClock()
		policy := NewRetryPolicyWithClock(NewRateLimiterWithClock(10, clock), 0, time.Second, clock)
		So(policy.maxAttempts, ShouldEqual, DefaultMaxAttempts)
	})
}
