// Package modifier runs the random timed events: production and click boosts
// and the gamble offer. Only one event may be rolled while any is running.
package modifier

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"time"

	"crumbs/internal/config"
	"crumbs/internal/domain"
)

var (
	ErrLocked        = errors.New("an event is already running")
	ErrUnknownKind   = errors.New("unknown event kind")
	ErrAlreadyActive = errors.New("event kind already active")
)

// Kinds are the events a roll chooses between, uniformly.
var Kinds = []domain.EventKind{domain.ProductionBoost, domain.ClickBoost, domain.GambleOffer}

// Roller is the randomness source.
type Roller interface {
	Float64() float64
	IntN(n int) int
}

type globalRand struct{}

func (globalRand) Float64() float64 { return rand.Float64() }
func (globalRand) IntN(n int) int   { return rand.IntN(n) }

// DefaultRoller uses math/rand/v2's global source.
func DefaultRoller() Roller {
	return globalRand{}
}

// Outcome is how a gamble offer ended.
type Outcome string

const (
	Declined Outcome = "declined"
	Won      Outcome = "won"
	Lost     Outcome = "lost"
)

type System struct {
	cfg config.EventsConfig
	rng Roller
}

func New(cfg config.EventsConfig, rng Roller) *System {
	if rng == nil {
		rng = DefaultRoller()
	}
	return &System{cfg: cfg, rng: rng}
}

// Roll attempts to start an event once per roll interval. It does nothing
// before the next roll is due or while the lock is held.
func (s *System) Roll(st *domain.State, now time.Time) (domain.ActiveEvent, bool) {
	if s.cfg.Disabled {
		return domain.ActiveEvent{}, false
	}
	if st.NextRollAt.IsZero() {
		st.NextRollAt = now.Add(s.cfg.RollInterval)
		return domain.ActiveEvent{}, false
	}
	if now.Before(st.NextRollAt) {
		return domain.ActiveEvent{}, false
	}
	st.NextRollAt = now.Add(s.cfg.RollInterval)
	if st.EventLock {
		return domain.ActiveEvent{}, false
	}
	if s.rng.Float64() >= s.cfg.TriggerChance {
		return domain.ActiveEvent{}, false
	}

	kind := Kinds[s.rng.IntN(len(Kinds))]
	ev, err := s.Start(st, kind, now)
	if err != nil {
		return domain.ActiveEvent{}, false
	}
	return ev, true
}

// Start activates kind immediately and takes the lock.
func (s *System) Start(st *domain.State, kind domain.EventKind, now time.Time) (domain.ActiveEvent, error) {
	if st.EventLock {
		return domain.ActiveEvent{}, ErrLocked
	}
	if _, ok := st.ActiveEvent(kind); ok {
		return domain.ActiveEvent{}, fmt.Errorf("%s: %w", kind, ErrAlreadyActive)
	}

	ev := domain.ActiveEvent{Kind: kind, StartedAt: now}
	switch kind {
	case domain.ProductionBoost:
		ev.Multiplier = s.cfg.ProductionBoost
		ev.ExpiresAt = now.Add(s.cfg.Duration)
		st.ProductionEventFactor *= ev.Multiplier
	case domain.ClickBoost:
		ev.Multiplier = s.cfg.ClickBoost
		ev.ExpiresAt = now.Add(s.cfg.Duration)
		st.ClickEventFactor *= ev.Multiplier
	case domain.GambleOffer:
		ev.Multiplier = s.cfg.GambleWinFactor
		ev.ExpiresAt = now.Add(s.cfg.GambleTimeout)
	default:
		return domain.ActiveEvent{}, fmt.Errorf("%q: %w", kind, ErrUnknownKind)
	}

	st.ActiveEvents = append(st.ActiveEvents, ev)
	st.EventLock = true
	return ev, nil
}

// Expire clears every event whose deadline has passed, dividing its stored
// multiplier back out. An unanswered gamble lapses as a decline.
func (s *System) Expire(st *domain.State, now time.Time) []domain.ActiveEvent {
	var expired []domain.ActiveEvent
	st.ActiveEvents = slices.DeleteFunc(st.ActiveEvents, func(ev domain.ActiveEvent) bool {
		if !ev.Expired(now) {
			return false
		}
		revert(st, ev)
		expired = append(expired, ev)
		return true
	})
	if len(st.ActiveEvents) == 0 {
		st.EventLock = false
	}
	return expired
}

func revert(st *domain.State, ev domain.ActiveEvent) {
	switch ev.Kind {
	case domain.ProductionBoost:
		st.ProductionEventFactor /= ev.Multiplier
	case domain.ClickBoost:
		st.ClickEventFactor /= ev.Multiplier
	}
}

// Resolve answers the pending gamble. Accepting rolls the win chance: a win
// multiplies the balance by the offer's multiplier, a loss zeroes it.
func (s *System) Resolve(st *domain.State, accept bool) (Outcome, error) {
	i := slices.IndexFunc(st.ActiveEvents, func(ev domain.ActiveEvent) bool {
		return ev.Kind == domain.GambleOffer
	})
	if i < 0 {
		return "", domain.ErrNoGamble
	}
	offer := st.ActiveEvents[i]

	outcome := Declined
	if accept {
		if s.rng.Float64() < s.cfg.GambleWinChance {
			outcome = Won
		} else {
			outcome = Lost
		}
	}

	switch outcome {
	case Won:
		st.Balance *= offer.Multiplier
	case Lost:
		st.Balance = 0
	}
	st.ActiveEvents = slices.Delete(st.ActiveEvents, i, i+1)
	if len(st.ActiveEvents) == 0 {
		st.EventLock = false
	}
	return outcome, nil
}

// Pending reports whether a gamble offer is waiting for an answer.
func Pending(st *domain.State) bool {
	_, ok := st.ActiveEvent(domain.GambleOffer)
	return ok
}
