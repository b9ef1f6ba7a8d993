// Package scheduler turns elapsed wall-clock time into production.
package scheduler

import (
	"fmt"
	"math"
	"time"

	"crumbs/internal/domain"
	"crumbs/internal/economy"
)

// Settlement is the result of one live tick.
type Settlement struct {
	Seconds int64
	Rate    float64
	Minted  float64
}

// Advance pays rate once for every whole second of elapsed time. The
// fractional remainder is carried into the next call, so the payout does not
// depend on how often the host ticks.
func Advance(st *domain.State, elapsed time.Duration, rate float64) (Settlement, error) {
	if elapsed <= 0 {
		return Settlement{}, nil
	}
	if math.IsNaN(rate) || rate < 0 {
		return Settlement{}, fmt.Errorf("production rate %g: %w", rate, domain.ErrInvariantViolation)
	}

	carry := st.TickCarry + elapsed
	whole := int64(carry / time.Second)
	st.TickCarry = carry - time.Duration(whole)*time.Second
	if whole == 0 {
		return Settlement{Rate: rate}, nil
	}

	minted := float64(whole) * rate
	if err := economy.Credit(st, minted); err != nil {
		return Settlement{}, err
	}
	return Settlement{Seconds: whole, Rate: rate, Minted: minted}, nil
}

// Settle advances the state from its last settlement up to now.
func Settle(st *domain.State, now time.Time, rate float64) (Settlement, error) {
	elapsed := now.Sub(st.LastSettledAt)
	if elapsed <= 0 {
		return Settlement{}, nil
	}
	s, err := Advance(st, elapsed, rate)
	if err != nil {
		return Settlement{}, err
	}
	st.LastSettledAt = now
	return s, nil
}

// IdleBonus is the one-time catch-up granted on load: the time away divided
// by divisor, paid at rate. A save stamped in the future pays nothing.
func IdleBonus(savedAt, now time.Time, rate, divisor float64) (bonus float64, elapsed time.Duration) {
	elapsed = now.Sub(savedAt)
	if elapsed <= 0 || divisor <= 0 {
		return 0, 0
	}
	return elapsed.Seconds() / divisor * rate, elapsed
}
