// Package prestige implements the reset loop that converts a large balance
// into permanent secondary currency, and the shop that spends it.
package prestige

import (
	"crumbs/internal/domain"
)

// Eligible reports whether the balance is strictly above threshold.
func Eligible(st *domain.State, threshold float64) bool {
	return st.Balance > threshold
}

// Prestige banks balance/threshold as secondary currency, zeroes the balance
// and clears the acquired list. Purchase counts and click upgrades are kept.
// When not eligible nothing changes and ok is false.
func Prestige(st *domain.State, ps *domain.PrestigeState, threshold float64) (gained float64, ok bool) {
	if !Eligible(st, threshold) {
		return 0, false
	}
	gained = st.Balance / threshold
	ps.Secondary += gained
	ps.Count++
	st.Balance = 0
	st.Acquired = nil
	return gained, true
}
